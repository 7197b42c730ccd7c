package components

import (
	"log/slog"

	"voucherpos/internal/pkg/clock"
	"voucherpos/internal/pkg/config"
	"voucherpos/internal/pkg/jwt"
	"voucherpos/internal/store"
	"voucherpos/internal/usecase"
	"voucherpos/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		NewAuthUseCase,
		NewReportQueries,
	),
)

func NewAuthUseCase(cfg config.Config, jwtService *jwt.Service, logger *slog.Logger) usecase.AuthUseCase {
	return usecase.NewAuthUseCase(cfg.Auth, jwtService, logger)
}

func NewReportQueries(sales *store.Sales, history *store.History, c clock.Clock) queries.ReportQueries {
	return queries.NewReportQueries(sales, history, c)
}
