package history

import (
	"errors"
	"strings"

	"voucherpos/internal/domain/sale"
)

var ErrEmptyDepositDate = errors.New("deposit date is required")

// Entry is a deposited sale in the history ledger. It copies every Sale
// field verbatim and records the deposit date; its id is independent of the
// originating sale's id.
type Entry struct {
	ID           string           `json:"id"`
	Date         string           `json:"date"`
	CustomerName string           `json:"customerName"`
	PackageTier  sale.PackageTier `json:"packageTier"`
	Price        int64            `json:"price"`
	VoucherCode  string           `json:"voucherCode"`
	SellerFee    int64            `json:"sellerFee"`
	NetDeposit   int64            `json:"netDeposit"`
	DepositDate  string           `json:"depositDate"`
	UpdatedAt    int64            `json:"updatedAt"`
}

func FromSale(id string, s sale.Sale, depositDate string, revision int64) (Entry, error) {
	if strings.TrimSpace(depositDate) == "" {
		return Entry{}, ErrEmptyDepositDate
	}

	return Entry{
		ID:           id,
		Date:         s.Date,
		CustomerName: s.CustomerName,
		PackageTier:  s.PackageTier,
		Price:        s.Price,
		VoucherCode:  s.VoucherCode,
		SellerFee:    s.SellerFee,
		NetDeposit:   s.NetDeposit,
		DepositDate:  strings.TrimSpace(depositDate),
		UpdatedAt:    revision,
	}, nil
}
