package bootstrap

import (
	"context"

	"voucherpos/internal/infra/kvstore"
	"voucherpos/internal/pkg/config"

	"go.uber.org/fx"
)

var LocalStoreModule = fx.Module("localstore",
	fx.Provide(
		NewLocalStore,
	),
)

// NewLocalStore opens the on-device sqlite kv store. Unlike the remote
// backend this one is mandatory: the ledger cannot run without it.
func NewLocalStore(lc fx.Lifecycle, cfg config.Config) (*kvstore.Store, error) {
	kv, cleanup, err := kvstore.New(cfg.Local.Path)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			cleanup()
			return nil
		},
	})

	return kv, nil
}
