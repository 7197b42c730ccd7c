package usecase

import (
	"context"
	"log/slog"

	"voucherpos/internal/pkg/config"
	"voucherpos/internal/pkg/errs"
	"voucherpos/internal/pkg/jwt"
	"voucherpos/internal/pkg/password"
)

// OperatorProfile is the authenticated identity. The ledger runs on one
// device for one operator, so this is the whole directory.
type OperatorProfile struct {
	Name string `json:"name"`
}

type AuthUseCase interface {
	Login(ctx context.Context, pin string) (string, OperatorProfile, error)
	ValidateToken(tokenString string) (OperatorProfile, error)
}

type authUseCaseImpl struct {
	cfg        config.AuthConfig
	jwtService *jwt.Service
	logger     *slog.Logger
}

func NewAuthUseCase(cfg config.AuthConfig, jwtService *jwt.Service, logger *slog.Logger) AuthUseCase {
	return &authUseCaseImpl{cfg: cfg, jwtService: jwtService, logger: logger}
}

func (a *authUseCaseImpl) Login(_ context.Context, pin string) (string, OperatorProfile, error) {
	if err := password.ComparePin(a.cfg.OperatorPinHash, pin); err != nil {
		a.logger.Warn("operator login rejected")
		return "", OperatorProfile{}, errs.Mark(err, errs.ErrInvalidCredentials)
	}

	token, err := a.jwtService.GenerateToken(a.cfg.OperatorName)
	if err != nil {
		return "", OperatorProfile{}, errs.Wrap(err, "failed to issue token")
	}

	return token, OperatorProfile{Name: a.cfg.OperatorName}, nil
}

func (a *authUseCaseImpl) ValidateToken(tokenString string) (OperatorProfile, error) {
	claims, err := a.jwtService.ValidateToken(tokenString)
	if err != nil {
		return OperatorProfile{}, errs.Mark(err, errs.ErrInvalidCredentials)
	}
	return OperatorProfile{Name: claims.Operator}, nil
}
