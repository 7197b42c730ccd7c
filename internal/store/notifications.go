package store

import (
	"context"
	"sync"

	"voucherpos/internal/domain/notification"
	"voucherpos/internal/pkg/errs"
	"voucherpos/internal/pkg/ident"
	"voucherpos/internal/sync/broadcast"
)

// Notifications is the append-only feedback ledger. The local ring is the
// authority; the remote copy is best-effort and purely for cross-device
// visibility.
type Notifications struct {
	deps    Deps
	gateway NotificationGateway

	mu sync.Mutex // serializes read-modify-write of the ring document
}

func NewNotifications(deps Deps, gateway NotificationGateway) *Notifications {
	return &Notifications{deps: deps, gateway: gateway}
}

// Append prepends a notification to the capped ring, persists it, and
// broadcasts. Failure to persist or mirror remotely never fails the mutation
// that produced the notification.
func (n *Notifications) Append(ctx context.Context, message string, typ notification.Type) notification.Notification {
	entry := notification.Notification{
		ID:        ident.NewLocalID(n.deps.Clock),
		Message:   message,
		Type:      typ,
		Timestamp: n.deps.Clock.Now(),
	}

	n.mu.Lock()
	var ring []notification.Notification
	if _, err := n.deps.KV.Get(notificationsKey, &ring); err != nil {
		n.deps.Logger.Error("failed to load notifications", "error", err.Error())
	}
	ring = notification.Prepend(ring, entry)
	if err := n.deps.KV.Set(notificationsKey, ring); err != nil {
		n.deps.Logger.Error("failed to persist notifications", "error", err.Error())
	}
	n.mu.Unlock()

	n.deps.Broadcaster.Publish(broadcast.Event{
		Type:   "notifications",
		Action: "add",
		Record: entry,
		Source: "local",
	})

	if n.deps.remoteReady() {
		if _, err := n.gateway.CreateNotification(ctx, entry); err != nil {
			// 通知のリモートミラーは任意。失敗はログだけ残す
			n.deps.Logger.Warn("failed to mirror notification", "error", err.Error())
		}
	}

	return entry
}

// List returns the local ring, newest first.
func (n *Notifications) List(_ context.Context) ([]notification.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var ring []notification.Notification
	if _, err := n.deps.KV.Get(notificationsKey, &ring); err != nil {
		return nil, errs.Wrap(err, "failed to load notifications")
	}
	return ring, nil
}
