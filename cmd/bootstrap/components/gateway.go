package components

import (
	"log/slog"

	"voucherpos/internal/infra/gateway"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var GatewayModule = fx.Module("gateway",
	fx.Provide(
		NewRemoteGateway,
		NewChangefeed,
	),
)

// NewRemoteGateway wraps the pool when a remote backend is configured. The
// nil gateway is never called: the record stores gate every remote access on
// cfg.DB.Configured(), and the sync queue only gets an executor when a
// backend exists.
func NewRemoteGateway(pool *pgxpool.Pool) *gateway.Postgres {
	if pool == nil {
		return nil
	}
	return gateway.NewPostgres(pool)
}

func NewChangefeed(pool *pgxpool.Pool, logger *slog.Logger) *gateway.Changefeed {
	if pool == nil {
		return nil
	}
	return gateway.NewChangefeed(pool, logger)
}
