package request

type LoginRequest struct {
	Pin string `json:"pin" binding:"required,min=4"`
}
