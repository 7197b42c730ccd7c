package api

import (
	"net/http"

	reqdto "voucherpos/internal/handler/dto/request"
	resdto "voucherpos/internal/handler/dto/response"
	"voucherpos/internal/handler/middleware"
	"voucherpos/internal/pkg/errs"
	"voucherpos/internal/usecase"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth usecase.AuthUseCase
}

func NewAuthHandler(auth usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// @Summary Operator login
// @Description Login with the operator PIN
// @Tags auth
// @Accept json
// @Produce json
// @Param request body reqdto.LoginRequest true "Login request"
// @Success 200 {object} resdto.LoginResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req reqdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	token, operator, err := h.auth.Login(c.Request.Context(), req.Pin)
	if err != nil {
		if errs.Is(err, errs.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid PIN",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.LoginResponse{
		AccessToken: token,
		Operator:    operator,
	})
}

// @Summary Current operator
// @Description Get the authenticated operator profile
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} usecase.OperatorProfile
// @Failure 401 {object} map[string]string
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	name, ok := middleware.GetOperator(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Not authenticated",
		})
		return
	}
	c.JSON(http.StatusOK, usecase.OperatorProfile{Name: name})
}
