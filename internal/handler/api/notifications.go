package api

import (
	"context"
	"net/http"

	"voucherpos/internal/domain/notification"
	resdto "voucherpos/internal/handler/dto/response"
	"voucherpos/internal/handler/httperr"

	"github.com/gin-gonic/gin"
)

type NotificationsStore interface {
	List(ctx context.Context) ([]notification.Notification, error)
}

type NotificationsHandler struct {
	notifs NotificationsStore
}

func NewNotificationsHandler(notifs NotificationsStore) *NotificationsHandler {
	return &NotificationsHandler{notifs: notifs}
}

// @Summary List notifications
// @Description The capped feedback ring, newest first
// @Tags notifications
// @Security BearerAuth
// @Produce json
// @Success 200 {array} resdto.NotificationResponse
// @Router /notifications [get]
func (h *NotificationsHandler) List(c *gin.Context) {
	ring, err := h.notifs.List(c.Request.Context())
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to load notifications", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromNotifications(ring))
}
