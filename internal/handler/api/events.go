package api

import (
	"io"
	"net/http"

	"voucherpos/internal/sync/broadcast"

	"github.com/gin-gonic/gin"
)

type EventsHandler struct {
	broadcaster *broadcast.Broadcaster
}

func NewEventsHandler(broadcaster *broadcast.Broadcaster) *EventsHandler {
	return &EventsHandler{broadcaster: broadcaster}
}

// @Summary Event stream
// @Description Server-sent events mirroring the in-process instant-update broadcast
// @Tags events
// @Security BearerAuth
// @Produce text/event-stream
// @Success 200 {string} string "stream"
// @Router /events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	// 配信はブロードキャスタ上で同期に走るので、遅いクライアントで
	// ミューテーションを止めないようバッファ溢れ分は捨てる
	events := make(chan broadcast.Event, 16)
	unsubscribe := h.broadcaster.Subscribe(func(ev broadcast.Event) {
		select {
		case events <- ev:
		default:
		}
	})
	defer unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Status(http.StatusOK)

	c.Stream(func(_ io.Writer) bool {
		select {
		case ev := <-events:
			c.SSEvent("message", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
