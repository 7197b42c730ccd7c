package bootstrap

import (
	"voucherpos/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	DBModule,
	LocalStoreModule,
	JWTModule,
	components.GatewayModule,
	components.SyncModule,
	components.StoreModule,
	components.UseCaseModule,
	components.HandlerModule,
)
