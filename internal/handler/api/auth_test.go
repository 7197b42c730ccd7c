//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"testing"

	"voucherpos/internal/handler/api"
	resdto "voucherpos/internal/handler/dto/response"
	"voucherpos/internal/pkg/errs"
	"voucherpos/internal/usecase"
	usecasemock "voucherpos/internal/usecase/mocks"
	"voucherpos/tests/common/builder"
	"voucherpos/tests/common/httptest"
	"voucherpos/tests/common/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type AuthHandlerTestSuite struct {
	suite.Suite
	router   *gin.Engine
	mockCtrl *gomock.Controller
	mockAuth *usecasemock.MockAuthUseCase
	handler  *api.AuthHandler
}

func (s *AuthHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockAuth = usecasemock.NewMockAuthUseCase(s.mockCtrl)
	s.handler = api.NewAuthHandler(s.mockAuth)

	s.router.POST("/auth/login", s.handler.Login)
	s.router.GET("/auth/me", func(c *gin.Context) {
		// ミドルウェアの代わりにオペレータをコンテキストへ積む
		if c.GetHeader("Authorization") != "" {
			c.Set("operator", "Ibu Sari")
		}
		s.handler.Me(c)
	})
}

func (s *AuthHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}

func (s *AuthHandlerTestSuite) TestLogin() {
	url := "/auth/login"

	reqBody := builder.NewLoginBuilder().BuildDTO()
	operator := usecase.OperatorProfile{Name: "Ibu Sari"}
	expectedToken := "test-jwt-token"

	s.Run("success: returns 200 OK for valid PIN", func() {
		s.mockAuth.EXPECT().Login(gomock.Any(), reqBody.Pin).
			Return(expectedToken, operator, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")

		var response resdto.LoginResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal(expectedToken, response.AccessToken)
		s.Equal(operator.Name, response.Operator.Name)
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		testCases := []struct {
			name   string
			mutate func(m map[string]any)
		}{
			{name: "missing field: pin (required)", mutate: testutil.Field("pin", nil)},
			{name: "empty pin", mutate: testutil.Field("pin", "")},
			{name: "pin boundary invalid (3 chars)", mutate: testutil.Field("pin", "123")},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				requestMap := testutil.DtoMap(s.T(), reqBody, tc.mutate)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, requestMap, "")
				httptest.AssertFlatError(s.T(), rec, http.StatusBadRequest, "Invalid request format")
			})
		}
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			loginError     error
			expectedStatus int
			expectedMsg    string
		}{
			{
				name:           "invalid PIN",
				loginError:     errs.ErrInvalidCredentials,
				expectedStatus: http.StatusUnauthorized,
				expectedMsg:    "Invalid PIN",
			},
			{
				name:           "internal server error",
				loginError:     errors.New("token signing failed"),
				expectedStatus: http.StatusInternalServerError,
				expectedMsg:    "Internal server error",
			},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockAuth.EXPECT().Login(gomock.Any(), reqBody.Pin).
					Return("", usecase.OperatorProfile{}, tc.loginError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
				httptest.AssertFlatError(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})
}

func (s *AuthHandlerTestSuite) TestMe() {
	url := "/auth/me"

	s.Run("success: returns operator profile", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var response usecase.OperatorProfile
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal("Ibu Sari", response.Name)
	})

	s.Run("error: returns 401 when operator missing in context", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "")
		httptest.AssertFlatError(s.T(), rec, http.StatusUnauthorized, "Not authenticated")
	})
}
