package components

import (
	"context"
	"log/slog"

	"voucherpos/internal/infra/gateway"
	"voucherpos/internal/infra/kvstore"
	"voucherpos/internal/pkg/clock"
	"voucherpos/internal/pkg/config"
	"voucherpos/internal/store"
	"voucherpos/internal/sync/broadcast"
	"voucherpos/internal/sync/connectivity"
	"voucherpos/internal/sync/queue"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var SyncModule = fx.Module("sync",
	fx.Provide(
		broadcast.New,
		NewProber,
		NewMonitor,
		NewReplayer,
		NewSyncQueue,
		NewFeed,
	),
	fx.Invoke(runSyncLoops),
)

// NewProber picks the reachability check: ping the backend pool when one is
// configured, fall back to an HTTP probe, and in pure local-only mode never
// report offline.
func NewProber(cfg config.Config, pool *pgxpool.Pool) connectivity.Prober {
	switch {
	case pool != nil:
		return connectivity.NewPingProber(pool)
	case cfg.Sync.ProbeURL != "":
		return connectivity.NewHTTPProber(cfg.Sync.ProbeURL, cfg.Sync.ProbeTimeout)
	default:
		return connectivity.AlwaysOnline{}
	}
}

func NewMonitor(prober connectivity.Prober, cfg config.Config, logger *slog.Logger) *connectivity.Monitor {
	return connectivity.NewMonitor(prober, cfg.Sync.ProbeTimeout, cfg.Sync.CheckInterval, logger)
}

func NewReplayer(gw *gateway.Postgres, kv *kvstore.Store, bc *broadcast.Broadcaster, c clock.Clock, logger *slog.Logger) *store.Replayer {
	return store.NewReplayer(gw, kv, bc, c, logger)
}

func NewSyncQueue(
	kv *kvstore.Store,
	replayer *store.Replayer,
	monitor *connectivity.Monitor,
	bc *broadcast.Broadcaster,
	c clock.Clock,
	logger *slog.Logger,
	cfg config.Config,
) (*queue.Queue, error) {
	// Without a configured backend the replayer holds a nil gateway, so the
	// queue gets no executor and Drain leaves any previously persisted
	// actions untouched.
	var executor queue.Executor
	if cfg.DB.Configured() {
		executor = replayer
	}
	return queue.New(kv, executor, monitor, bc, c, logger, cfg.Sync)
}

func NewFeed(kv *kvstore.Store, bc *broadcast.Broadcaster, logger *slog.Logger) *store.Feed {
	return store.NewFeed(kv, bc, logger)
}

// runSyncLoops starts the background machinery: the periodic connectivity
// probe, the auto-drain ticker, an immediate drain on reconnect, and the
// changefeed listener when a remote backend exists.
func runSyncLoops(
	lc fx.Lifecycle,
	cfg config.Config,
	monitor *connectivity.Monitor,
	q *queue.Queue,
	feed *store.Feed,
	changefeed *gateway.Changefeed,
) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			monitor.Subscribe(func(online bool) {
				if online {
					go q.Drain(ctx)
				}
			})

			go monitor.Run(ctx)
			go q.RunAutoDrain(ctx, cfg.Sync.DrainInterval)
			if changefeed != nil {
				go changefeed.Run(ctx, feed.Handle)
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return nil
		},
	})
}
