package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"voucherpos/internal/usecase"

	"github.com/gin-gonic/gin"
)

const ctxOperatorKey = "operator"

type AuthMiddleware struct {
	auth usecase.AuthUseCase
}

func NewAuthMiddleware(auth usecase.AuthUseCase) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// RequireAuth gates mutating endpoints behind the operator's bearer token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimSpace(authHeader[len("Bearer "):])
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Access token required",
			})
			c.Abort()
			return
		}

		profile, err := m.auth.ValidateToken(token)
		if err != nil {
			slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(ctxOperatorKey, profile.Name)
		c.Next()
	}
}

func GetOperator(c *gin.Context) (string, bool) {
	operator, exists := c.Get(ctxOperatorKey)
	if !exists {
		return "", false
	}
	name, ok := operator.(string)
	return name, ok
}
