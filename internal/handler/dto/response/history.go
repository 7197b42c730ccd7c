package response

import (
	"voucherpos/internal/domain/history"

	"github.com/jinzhu/copier"
)

type HistoryResponse struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	CustomerName string `json:"customerName"`
	PackageTier  string `json:"packageTier"`
	Price        int64  `json:"price"`
	VoucherCode  string `json:"voucherCode"`
	SellerFee    int64  `json:"sellerFee"`
	NetDeposit   int64  `json:"netDeposit"`
	DepositDate  string `json:"depositDate"`
	UpdatedAt    int64  `json:"updatedAt"`
}

func FromHistoryEntry(e history.Entry) HistoryResponse {
	var resp HistoryResponse
	_ = copier.Copy(&resp, &e)
	resp.PackageTier = e.PackageTier.String()
	return resp
}

func FromHistoryEntries(entries []history.Entry) []HistoryResponse {
	out := make([]HistoryResponse, len(entries))
	for i, e := range entries {
		out[i] = FromHistoryEntry(e)
	}
	return out
}

type DepositAllResponse struct {
	Moved int `json:"moved"`
}
