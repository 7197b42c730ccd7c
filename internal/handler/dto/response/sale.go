package response

import (
	"voucherpos/internal/domain/sale"

	"github.com/jinzhu/copier"
)

type SaleResponse struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	CustomerName string `json:"customerName"`
	PackageTier  string `json:"packageTier"`
	Price        int64  `json:"price"`
	VoucherCode  string `json:"voucherCode"`
	SellerFee    int64  `json:"sellerFee"`
	NetDeposit   int64  `json:"netDeposit"`
	UpdatedAt    int64  `json:"updatedAt"`
}

func FromSale(s sale.Sale) SaleResponse {
	var resp SaleResponse
	_ = copier.Copy(&resp, &s)
	resp.PackageTier = s.PackageTier.String()
	return resp
}

func FromSales(sales []sale.Sale) []SaleResponse {
	out := make([]SaleResponse, len(sales))
	for i, s := range sales {
		out[i] = FromSale(s)
	}
	return out
}
