//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"testing"

	"voucherpos/internal/domain/sale"
	"voucherpos/internal/handler/api"
	apimock "voucherpos/internal/handler/api/mocks"
	resdto "voucherpos/internal/handler/dto/response"
	"voucherpos/internal/pkg/errs"
	"voucherpos/tests/common/builder"
	"voucherpos/tests/common/httptest"
	"voucherpos/tests/common/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type SalesHandlerTestSuite struct {
	suite.Suite
	router    *gin.Engine
	mockCtrl  *gomock.Controller
	mockStore *apimock.MockSalesStore
	handler   *api.SalesHandler
}

func (s *SalesHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockStore = apimock.NewMockSalesStore(s.mockCtrl)
	s.handler = api.NewSalesHandler(s.mockStore)

	s.router.POST("/sales", s.handler.Create)
	s.router.GET("/sales", s.handler.List)
	s.router.PATCH("/sales/:id", s.handler.Update)
	s.router.DELETE("/sales/:id", s.handler.Delete)
}

func (s *SalesHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestSalesHandlerSuite(t *testing.T) {
	suite.Run(t, new(SalesHandlerTestSuite))
}

func (s *SalesHandlerTestSuite) TestCreate() {
	url := "/sales"

	reqBody := builder.NewSaleBuilder().BuildDTO()
	record := builder.NewSaleBuilder().BuildRecord()

	s.Run("success: returns 201 Created with the stored record", func() {
		s.mockStore.EXPECT().Add(gomock.Any(), reqBody.ToInput()).
			Return(record, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")

		var response resdto.SaleResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &response)
		s.Equal(record.ID, response.ID)
		s.Equal("Budi Santoso", response.CustomerName)
		s.Equal("7 Hari", response.PackageTier)
		s.Equal(record.Price, response.Price)
		s.Equal(record.NetDeposit, response.NetDeposit)
	})

	s.Run("error: 400 Bad Request on missing fields", func() {
		testCases := []struct {
			name   string
			mutate func(m map[string]any)
		}{
			{name: "missing field: date (required)", mutate: testutil.Field("date", nil)},
			{name: "missing field: customerName (required)", mutate: testutil.Field("customerName", nil)},
			{name: "missing field: packageTier (required)", mutate: testutil.Field("packageTier", nil)},
			{name: "missing field: voucherCode (required)", mutate: testutil.Field("voucherCode", nil)},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				requestMap := testutil.DtoMap(s.T(), reqBody, tc.mutate)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, requestMap, "")
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request format")
			})
		}
	})

	s.Run("error: 422 Unprocessable Entity on unknown tier", func() {
		s.mockStore.EXPECT().Add(gomock.Any(), gomock.Any()).
			Return(sale.Sale{}, errs.Mark(sale.ErrInvalidPackageTier, errs.ErrValidationFailed)).Times(1)

		requestMap := testutil.DtoMap(s.T(), reqBody, testutil.Field("packageTier", "14 Hari"))
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, requestMap, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnprocessableEntity, "Validation failed")
	})
}

func (s *SalesHandlerTestSuite) TestList() {
	s.Run("success: returns all active sales", func() {
		records := []sale.Sale{
			builder.NewSaleBuilder().BuildRecord(),
			builder.NewSaleBuilder().WithID("1717236000001").WithCustomerName("Dewi").BuildRecord(),
		}
		s.mockStore.EXPECT().List(gomock.Any()).Return(records, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/sales", nil, "")

		var response []resdto.SaleResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Len(response, 2)
		s.Equal("Dewi", response[1].CustomerName)
	})

	s.Run("error: 500 when the store fails", func() {
		s.mockStore.EXPECT().List(gomock.Any()).
			Return(nil, errors.New("kv corrupted")).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/sales", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusInternalServerError, "Failed to load sales")
	})
}

func (s *SalesHandlerTestSuite) TestUpdate() {
	record := builder.NewSaleBuilder().BuildRecord()
	url := "/sales/" + record.ID
	name := "Pak Joko"

	s.Run("success: returns the merged record", func() {
		updated := builder.NewSaleBuilder().WithCustomerName(name).BuildRecord()
		s.mockStore.EXPECT().Update(gomock.Any(), record.ID, sale.Partial{CustomerName: &name}).
			Return(updated, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{"customerName": name}, "")

		var response resdto.SaleResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal(name, response.CustomerName)
	})

	s.Run("error: 404 when the record does not exist", func() {
		s.mockStore.EXPECT().Update(gomock.Any(), "missing", gomock.Any()).
			Return(sale.Sale{}, errs.ErrNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, "/sales/missing", map[string]any{"customerName": name}, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Sale not found")
	})
}

func (s *SalesHandlerTestSuite) TestDelete() {
	record := builder.NewSaleBuilder().BuildRecord()

	s.Run("success: returns the removed record", func() {
		s.mockStore.EXPECT().Delete(gomock.Any(), record.ID).
			Return(record, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/sales/"+record.ID, nil, "")

		var response resdto.SaleResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal(record.ID, response.ID)
	})

	s.Run("error: 404 when the record does not exist", func() {
		s.mockStore.EXPECT().Delete(gomock.Any(), "missing").
			Return(sale.Sale{}, errs.ErrNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/sales/missing", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Sale not found")
	})
}
