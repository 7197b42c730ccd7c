package api

import (
	"context"
	"net/http"

	"voucherpos/internal/domain/sale"
	reqdto "voucherpos/internal/handler/dto/request"
	resdto "voucherpos/internal/handler/dto/response"
	"voucherpos/internal/handler/httperr"
	"voucherpos/internal/pkg/errs"
	"voucherpos/internal/store"

	"github.com/gin-gonic/gin"
)

// SalesStore is the slice of the record store the handler consumes.
type SalesStore interface {
	Add(ctx context.Context, in store.SaleInput) (sale.Sale, error)
	Update(ctx context.Context, id string, partial sale.Partial) (sale.Sale, error)
	Delete(ctx context.Context, id string) (sale.Sale, error)
	List(ctx context.Context) ([]sale.Sale, error)
}

type SalesHandler struct {
	sales SalesStore
}

func NewSalesHandler(sales SalesStore) *SalesHandler {
	return &SalesHandler{sales: sales}
}

// @Summary Create sale
// @Description Record a voucher sale; applied locally first when the backend is unreachable
// @Tags sales
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body reqdto.CreateSaleRequest true "Sale"
// @Success 201 {object} resdto.SaleResponse
// @Failure 400 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /sales [post]
func (h *SalesHandler) Create(c *gin.Context) {
	var req reqdto.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	created, err := h.sales.Add(c.Request.Context(), req.ToInput())
	if err != nil {
		abortSaleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resdto.FromSale(created))
}

// @Summary List sales
// @Tags sales
// @Security BearerAuth
// @Produce json
// @Success 200 {array} resdto.SaleResponse
// @Router /sales [get]
func (h *SalesHandler) List(c *gin.Context) {
	sales, err := h.sales.List(c.Request.Context())
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to load sales", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromSales(sales))
}

// @Summary Update sale
// @Description Sparse update; absent fields keep their stored value
// @Tags sales
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Sale id"
// @Param request body reqdto.UpdateSaleRequest true "Partial sale"
// @Success 200 {object} resdto.SaleResponse
// @Failure 404 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /sales/{id} [patch]
func (h *SalesHandler) Update(c *gin.Context) {
	var req reqdto.UpdateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	updated, err := h.sales.Update(c.Request.Context(), c.Param("id"), req.ToPartial())
	if err != nil {
		abortSaleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromSale(updated))
}

// @Summary Delete sale
// @Tags sales
// @Security BearerAuth
// @Produce json
// @Param id path string true "Sale id"
// @Success 200 {object} resdto.SaleResponse
// @Failure 404 {object} httperr.Response
// @Router /sales/{id} [delete]
func (h *SalesHandler) Delete(c *gin.Context) {
	captured, err := h.sales.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortSaleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromSale(captured))
}

func abortSaleError(c *gin.Context, err error) {
	switch {
	case errs.Is(err, errs.ErrValidationFailed):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Validation failed", nil)
	case errs.Is(err, errs.ErrNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Sale not found", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}
