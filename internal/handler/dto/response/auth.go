package response

import (
	"voucherpos/internal/usecase"
)

type LoginResponse struct {
	AccessToken string                  `json:"accessToken"`
	Operator    usecase.OperatorProfile `json:"operator"`
}
