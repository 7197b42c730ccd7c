//go:build unit || e2e

package builder

import (
	"voucherpos/internal/domain/history"
	"voucherpos/internal/domain/sale"
	reqdto "voucherpos/internal/handler/dto/request"
)

type SaleBuilder struct {
	ID           string
	Date         string
	CustomerName string
	PackageTier  sale.PackageTier
	VoucherCode  string
	UpdatedAt    int64
}

func NewSaleBuilder() *SaleBuilder {
	return &SaleBuilder{
		ID:           "550e8400-e29b-41d4-a716-446655440000",
		Date:         "2024-06-01",
		CustomerName: "Budi Santoso",
		PackageTier:  sale.Tier7Hari,
		VoucherCode:  "WIFI-7H-001",
		UpdatedAt:    1717236000000,
	}
}

func (b *SaleBuilder) WithID(id string) *SaleBuilder {
	b.ID = id
	return b
}

func (b *SaleBuilder) WithCustomerName(name string) *SaleBuilder {
	b.CustomerName = name
	return b
}

func (b *SaleBuilder) WithTier(tier sale.PackageTier) *SaleBuilder {
	b.PackageTier = tier
	return b
}

func (b *SaleBuilder) BuildDTO() reqdto.CreateSaleRequest {
	return reqdto.CreateSaleRequest{
		Date:         b.Date,
		CustomerName: b.CustomerName,
		PackageTier:  b.PackageTier.String(),
		VoucherCode:  b.VoucherCode,
	}
}

func (b *SaleBuilder) BuildRecord() sale.Sale {
	s, err := sale.NewSale(b.ID, b.Date, b.CustomerName, b.PackageTier, b.VoucherCode, b.UpdatedAt)
	if err != nil {
		panic(err)
	}
	return s
}

func (b *SaleBuilder) BuildHistoryEntry(id, depositDate string) history.Entry {
	e, err := history.FromSale(id, b.BuildRecord(), depositDate, b.UpdatedAt)
	if err != nil {
		panic(err)
	}
	return e
}
