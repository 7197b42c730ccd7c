package sale

import (
	"strings"

	"voucherpos/internal/pkg/patch"
)

// Sale is an active voucher sale. Fields are exported because records cross
// every process boundary in the system: the local kv store, the offline
// queue payloads, the change feed and the HTTP surface all round-trip them
// through JSON.
type Sale struct {
	ID           string      `json:"id"`
	Date         string      `json:"date"`
	CustomerName string      `json:"customerName"`
	PackageTier  PackageTier `json:"packageTier"`
	Price        int64       `json:"price"`
	VoucherCode  string      `json:"voucherCode"`
	SellerFee    int64       `json:"sellerFee"`
	NetDeposit   int64       `json:"netDeposit"`
	// UpdatedAt is a unix-millisecond revision used to reconcile optimistic
	// local writes against delayed remote confirmations. A confirmation older
	// than the local revision never clobbers it.
	UpdatedAt int64 `json:"updatedAt"`
}

// NewSale builds a Sale with pricing derived from the tier. The id is
// assigned by the caller (local millisecond token or remote uuid) and is
// immutable afterwards.
func NewSale(id, date, customerName string, tier PackageTier, voucherCode string, revision int64) (Sale, error) {
	if strings.TrimSpace(date) == "" {
		return Sale{}, ErrEmptyDate
	}
	if strings.TrimSpace(customerName) == "" {
		return Sale{}, ErrEmptyCustomerName
	}
	if strings.TrimSpace(voucherCode) == "" {
		return Sale{}, ErrEmptyVoucherCode
	}

	pricing, err := PricingFor(tier)
	if err != nil {
		return Sale{}, err
	}

	return Sale{
		ID:           id,
		Date:         strings.TrimSpace(date),
		CustomerName: strings.TrimSpace(customerName),
		PackageTier:  tier,
		Price:        pricing.Price,
		VoucherCode:  strings.TrimSpace(voucherCode),
		SellerFee:    pricing.SellerFee,
		NetDeposit:   pricing.NetDeposit(),
		UpdatedAt:    revision,
	}, nil
}

// Partial is a sparse update. Absent fields keep their current value; pricing
// fields cannot be patched directly, they follow the tier.
type Partial struct {
	Date         *string
	CustomerName *string
	PackageTier  *PackageTier
	VoucherCode  *string
}

// Apply merges the partial onto the sale and re-derives pricing when the
// tier changes. The id never changes.
func (s Sale) Apply(p Partial, revision int64) (Sale, error) {
	merged := s
	merged.Date = patch.Coalesce(p.Date, s.Date)
	merged.CustomerName = patch.Coalesce(p.CustomerName, s.CustomerName)
	merged.VoucherCode = patch.Coalesce(p.VoucherCode, s.VoucherCode)

	if p.PackageTier != nil {
		tier, err := NewPackageTier(p.PackageTier.String())
		if err != nil {
			return Sale{}, err
		}
		pricing, err := PricingFor(tier)
		if err != nil {
			return Sale{}, err
		}
		merged.PackageTier = tier
		merged.Price = pricing.Price
		merged.SellerFee = pricing.SellerFee
		merged.NetDeposit = pricing.NetDeposit()
	}

	if strings.TrimSpace(merged.CustomerName) == "" {
		return Sale{}, ErrEmptyCustomerName
	}
	if strings.TrimSpace(merged.VoucherCode) == "" {
		return Sale{}, ErrEmptyVoucherCode
	}

	merged.UpdatedAt = revision
	return merged, nil
}
