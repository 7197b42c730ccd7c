package response

import (
	"time"

	"voucherpos/internal/domain/notification"

	"github.com/jinzhu/copier"
)

type NotificationResponse struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

func FromNotifications(list []notification.Notification) []NotificationResponse {
	out := make([]NotificationResponse, len(list))
	for i, n := range list {
		_ = copier.Copy(&out[i], &n)
		out[i].Type = string(n.Type)
	}
	return out
}
