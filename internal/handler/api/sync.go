package api

import (
	"context"
	"net/http"

	resdto "voucherpos/internal/handler/dto/response"
	"voucherpos/internal/handler/httperr"
	"voucherpos/internal/sync/queue"

	"github.com/gin-gonic/gin"
)

type SyncQueue interface {
	State() queue.SyncState
	Drain(ctx context.Context)
	Clear() error
}

// ConnectivityChecker forces an immediate probe instead of waiting for the
// periodic one.
type ConnectivityChecker interface {
	CheckNow(ctx context.Context) bool
}

type SyncHandler struct {
	queue   SyncQueue
	monitor ConnectivityChecker
}

func NewSyncHandler(queue SyncQueue, monitor ConnectivityChecker) *SyncHandler {
	return &SyncHandler{queue: queue, monitor: monitor}
}

// @Summary Sync status
// @Description Connectivity, last sync time and the pending offline queue
// @Tags sync
// @Security BearerAuth
// @Produce json
// @Success 200 {object} resdto.SyncStatusResponse
// @Router /sync/status [get]
func (h *SyncHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, resdto.FromSyncState(h.queue.State()))
}

// @Summary Trigger a drain pass
// @Description Probes connectivity and replays the offline queue; no-op when a pass is already running
// @Tags sync
// @Security BearerAuth
// @Produce json
// @Success 200 {object} resdto.SyncStatusResponse
// @Router /sync/drain [post]
func (h *SyncHandler) Drain(c *gin.Context) {
	ctx := c.Request.Context()
	h.monitor.CheckNow(ctx)
	h.queue.Drain(ctx)
	c.JSON(http.StatusOK, resdto.FromSyncState(h.queue.State()))
}

// @Summary Clear the offline queue
// @Description Manual recovery only; queued mutations are discarded
// @Tags sync
// @Security BearerAuth
// @Produce json
// @Success 200 {object} resdto.SyncStatusResponse
// @Router /sync/queue/clear [post]
func (h *SyncHandler) Clear(c *gin.Context) {
	if err := h.queue.Clear(); err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to clear queue", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromSyncState(h.queue.State()))
}
