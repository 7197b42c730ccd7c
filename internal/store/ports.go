package store

import (
	"context"

	"voucherpos/internal/domain/history"
	"voucherpos/internal/domain/notification"
	"voucherpos/internal/domain/sale"
	"voucherpos/internal/notifier"
	"voucherpos/internal/pkg/clock"
	"voucherpos/internal/sync/broadcast"
	"voucherpos/internal/sync/queue"

	"log/slog"
)

// Consumer-side ports. The record stores own these interfaces; the infra
// layer satisfies them.

type SalesGateway interface {
	CreateSale(ctx context.Context, s sale.Sale) (sale.Sale, error)
	UpdateSale(ctx context.Context, id string, s sale.Sale) (sale.Sale, error)
	DeleteSale(ctx context.Context, id string) error
	ListSales(ctx context.Context) ([]sale.Sale, error)
}

type HistoryGateway interface {
	CreateHistory(ctx context.Context, e history.Entry) (history.Entry, error)
	DeleteHistory(ctx context.Context, id string) error
	ListHistory(ctx context.Context) ([]history.Entry, error)
}

type NotificationGateway interface {
	CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error)
	ListNotifications(ctx context.Context, limit int) ([]notification.Notification, error)
}

// Gateway is what the offline replayer needs: every remote mutation a queued
// action can map to.
type Gateway interface {
	SalesGateway
	HistoryGateway
}

// KV is the shared device-local document store. Every write replaces the
// whole value under a key.
type KV interface {
	Get(key string, dest any) (bool, error)
	Set(key string, value any) error
}

// Enqueuer parks a mutation for later replay when the remote backend is
// configured but unreachable.
type Enqueuer interface {
	Enqueue(actionType queue.ActionType, payload any) (queue.OfflineAction, error)
}

type Online interface {
	IsOnline() bool
}

// Local kv document keys. One JSON document per record kind.
const (
	salesKey         = "wifi-voucher-sales"
	historyKey       = "wifi-voucher-history"
	notificationsKey = "wifi-voucher-notifications"
)

// Deps bundles the collaborators every record store shares. Configured is
// false when no remote backend is set up; the stores then run purely local
// and never enqueue.
type Deps struct {
	KV          KV
	Queue       Enqueuer
	Online      Online
	Configured  bool
	Broadcaster *broadcast.Broadcaster
	Emitter     notifier.Notifier
	Clock       clock.Clock
	Logger      *slog.Logger
}

// remoteReady reports whether a mutation should try the remote path first.
func (d Deps) remoteReady() bool {
	return d.Configured && d.Online != nil && d.Online.IsOnline()
}
