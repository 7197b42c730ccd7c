package api

import (
	"context"
	"net/http"

	"voucherpos/internal/domain/history"
	reqdto "voucherpos/internal/handler/dto/request"
	resdto "voucherpos/internal/handler/dto/response"
	"voucherpos/internal/handler/httperr"
	"voucherpos/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

type HistoryStore interface {
	List(ctx context.Context) ([]history.Entry, error)
	Delete(ctx context.Context, id string) (history.Entry, error)
	MoveToHistory(ctx context.Context, salesID, depositDate string) (history.Entry, error)
	DepositAll(ctx context.Context, depositDate string) (int, error)
}

type HistoryHandler struct {
	history HistoryStore
	sales   SalesStore
}

func NewHistoryHandler(history HistoryStore, sales SalesStore) *HistoryHandler {
	return &HistoryHandler{history: history, sales: sales}
}

// @Summary List deposit history
// @Tags history
// @Security BearerAuth
// @Produce json
// @Success 200 {array} resdto.HistoryResponse
// @Router /history [get]
func (h *HistoryHandler) List(c *gin.Context) {
	entries, err := h.history.List(c.Request.Context())
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to load history", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromHistoryEntries(entries))
}

// @Summary Deposit one sale
// @Description Copies the sale into the ledger, then deletes it from the active set (two mutations, not a transaction)
// @Tags history
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Sale id"
// @Param request body reqdto.DepositRequest true "Deposit date"
// @Success 201 {object} resdto.HistoryResponse
// @Failure 404 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /sales/{id}/deposit [post]
func (h *HistoryHandler) Deposit(c *gin.Context) {
	var req reqdto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	ctx := c.Request.Context()
	entry, err := h.history.MoveToHistory(ctx, c.Param("id"), req.DepositDate)
	if err != nil {
		abortHistoryError(c, err)
		return
	}
	if _, err := h.sales.Delete(ctx, c.Param("id")); err != nil {
		// 台帳への複製は済んでいる。元Saleの削除失敗だけを報告する
		abortHistoryError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resdto.FromHistoryEntry(entry))
}

// @Summary Deposit every open sale
// @Description Moves all open sales to the ledger; on partial failure, re-running the batch converges
// @Tags history
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body reqdto.DepositAllRequest true "Deposit date"
// @Success 200 {object} resdto.DepositAllResponse
// @Failure 422 {object} httperr.Response
// @Router /history/deposit [post]
func (h *HistoryHandler) DepositAll(c *gin.Context) {
	var req reqdto.DepositAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	moved, err := h.history.DepositAll(c.Request.Context(), req.DepositDate)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Deposit batch failed", resdto.DepositAllResponse{Moved: moved})
		return
	}
	c.JSON(http.StatusOK, resdto.DepositAllResponse{Moved: moved})
}

// @Summary Delete history entry
// @Tags history
// @Security BearerAuth
// @Produce json
// @Param id path string true "History entry id"
// @Success 200 {object} resdto.HistoryResponse
// @Failure 404 {object} httperr.Response
// @Router /history/{id} [delete]
func (h *HistoryHandler) Delete(c *gin.Context) {
	captured, err := h.history.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortHistoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromHistoryEntry(captured))
}

func abortHistoryError(c *gin.Context, err error) {
	switch {
	case errs.Is(err, errs.ErrValidationFailed):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Validation failed", nil)
	case errs.Is(err, errs.ErrNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Record not found", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}
