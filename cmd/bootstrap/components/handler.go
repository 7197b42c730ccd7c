package components

import (
	"voucherpos/internal/handler"
	"voucherpos/internal/handler/api"
	"voucherpos/internal/handler/middleware"
	"voucherpos/internal/store"
	"voucherpos/internal/sync/connectivity"
	"voucherpos/internal/sync/queue"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewAuthHandler,
		NewSalesHandler,
		NewHistoryHandler,
		NewNotificationsHandler,
		NewSyncHandler,
		api.NewReportsHandler,
		api.NewEventsHandler,
		NewHandlers,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)

func NewSalesHandler(sales *store.Sales) *api.SalesHandler {
	return api.NewSalesHandler(sales)
}

func NewHistoryHandler(history *store.History, sales *store.Sales) *api.HistoryHandler {
	return api.NewHistoryHandler(history, sales)
}

func NewNotificationsHandler(notifs *store.Notifications) *api.NotificationsHandler {
	return api.NewNotificationsHandler(notifs)
}

func NewSyncHandler(q *queue.Queue, monitor *connectivity.Monitor) *api.SyncHandler {
	return api.NewSyncHandler(q, monitor)
}

func NewHandlers(
	auth *api.AuthHandler,
	sales *api.SalesHandler,
	history *api.HistoryHandler,
	notifications *api.NotificationsHandler,
	sync *api.SyncHandler,
	reports *api.ReportsHandler,
	events *api.EventsHandler,
) handler.Handlers {
	return handler.Handlers{
		Auth:          auth,
		Sales:         sales,
		History:       history,
		Notifications: notifications,
		Sync:          sync,
		Reports:       reports,
		Events:        events,
	}
}
