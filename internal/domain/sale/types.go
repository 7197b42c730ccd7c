package sale

import "errors"

var (
	ErrInvalidPackageTier = errors.New("invalid package tier")
	ErrEmptyCustomerName  = errors.New("customer name is required")
	ErrEmptyVoucherCode   = errors.New("voucher code is required")
	ErrEmptyDate          = errors.New("sale date is required")
)

// PackageTier is a voucher validity period. The tier labels are the ones
// printed on the physical vouchers, so they stay in Indonesian.
type PackageTier string

const (
	Tier24Jam  PackageTier = "24 Jam"
	Tier7Hari  PackageTier = "7 Hari"
	Tier15Hari PackageTier = "15 Hari"
	Tier30Hari PackageTier = "30 Hari"
)

func NewPackageTier(s string) (PackageTier, error) {
	tier := PackageTier(s)
	switch tier {
	case Tier24Jam, Tier7Hari, Tier15Hari, Tier30Hari:
		return tier, nil
	default:
		return "", ErrInvalidPackageTier
	}
}

func (t PackageTier) String() string {
	return string(t)
}

func AllTiers() []PackageTier {
	return []PackageTier{Tier24Jam, Tier7Hari, Tier15Hari, Tier30Hari}
}
