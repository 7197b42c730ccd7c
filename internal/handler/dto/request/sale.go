package request

import (
	"voucherpos/internal/domain/sale"
	"voucherpos/internal/store"
)

type CreateSaleRequest struct {
	Date         string `json:"date" binding:"required"`
	CustomerName string `json:"customerName" binding:"required"`
	PackageTier  string `json:"packageTier" binding:"required"`
	VoucherCode  string `json:"voucherCode" binding:"required"`
}

func (r *CreateSaleRequest) ToInput() store.SaleInput {
	return store.SaleInput{
		Date:         r.Date,
		CustomerName: r.CustomerName,
		PackageTier:  r.PackageTier,
		VoucherCode:  r.VoucherCode,
	}
}

// UpdateSaleRequest is sparse: absent fields keep their stored value. Tier
// validity is checked by the domain merge, not here.
type UpdateSaleRequest struct {
	Date         *string `json:"date"`
	CustomerName *string `json:"customerName"`
	PackageTier  *string `json:"packageTier"`
	VoucherCode  *string `json:"voucherCode"`
}

func (r *UpdateSaleRequest) ToPartial() sale.Partial {
	p := sale.Partial{
		Date:         r.Date,
		CustomerName: r.CustomerName,
		VoucherCode:  r.VoucherCode,
	}
	if r.PackageTier != nil {
		tier := sale.PackageTier(*r.PackageTier)
		p.PackageTier = &tier
	}
	return p
}
