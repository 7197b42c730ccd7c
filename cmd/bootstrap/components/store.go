package components

import (
	"log/slog"

	"voucherpos/internal/infra/gateway"
	"voucherpos/internal/infra/kvstore"
	"voucherpos/internal/notifier"
	"voucherpos/internal/pkg/clock"
	"voucherpos/internal/pkg/config"
	"voucherpos/internal/store"
	"voucherpos/internal/sync/broadcast"
	"voucherpos/internal/sync/connectivity"
	"voucherpos/internal/sync/queue"

	"go.uber.org/fx"
)

var StoreModule = fx.Module("store",
	fx.Provide(
		NewNotifier,
		NewStoreDeps,
		NewNotificationsStore,
		NewSalesStore,
		NewHistoryStore,
	),
)

func NewNotifier(cfg config.Config, logger *slog.Logger) notifier.Notifier {
	return notifier.New(cfg.Notifier, logger)
}

func NewStoreDeps(
	cfg config.Config,
	kv *kvstore.Store,
	q *queue.Queue,
	monitor *connectivity.Monitor,
	bc *broadcast.Broadcaster,
	emitter notifier.Notifier,
	c clock.Clock,
	logger *slog.Logger,
) store.Deps {
	return store.Deps{
		KV:          kv,
		Queue:       q,
		Online:      monitor,
		Configured:  cfg.DB.Configured(),
		Broadcaster: bc,
		Emitter:     emitter,
		Clock:       c,
		Logger:      logger,
	}
}

func NewNotificationsStore(deps store.Deps, gw *gateway.Postgres) *store.Notifications {
	return store.NewNotifications(deps, gw)
}

func NewSalesStore(deps store.Deps, gw *gateway.Postgres, notifs *store.Notifications) *store.Sales {
	return store.NewSales(deps, gw, notifs)
}

func NewHistoryStore(deps store.Deps, gw *gateway.Postgres, sales *store.Sales, notifs *store.Notifications) *store.History {
	return store.NewHistory(deps, gw, sales, notifs)
}
