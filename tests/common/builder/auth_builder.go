//go:build unit || e2e

package builder

import (
	reqdto "voucherpos/internal/handler/dto/request"
)

type LoginBuilder struct {
	Pin string
}

func NewLoginBuilder() *LoginBuilder {
	return &LoginBuilder{Pin: "123456"}
}

func (b *LoginBuilder) WithPin(pin string) *LoginBuilder {
	b.Pin = pin
	return b
}

func (b *LoginBuilder) BuildDTO() reqdto.LoginRequest {
	return reqdto.LoginRequest{Pin: b.Pin}
}
