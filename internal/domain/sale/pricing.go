package sale

// Pricing is the fixed per-tier price breakdown in rupiah. Price and seller
// fee are never caller-supplied; they derive from the tier alone and
// NetDeposit() is always Price - SellerFee.
type Pricing struct {
	Price     int64
	SellerFee int64
}

func (p Pricing) NetDeposit() int64 {
	return p.Price - p.SellerFee
}

var priceTable = map[PackageTier]Pricing{
	Tier24Jam:  {Price: 5000, SellerFee: 1000},
	Tier7Hari:  {Price: 20000, SellerFee: 2000},
	Tier15Hari: {Price: 35000, SellerFee: 5000},
	Tier30Hari: {Price: 60000, SellerFee: 5000},
}

func PricingFor(tier PackageTier) (Pricing, error) {
	p, ok := priceTable[tier]
	if !ok {
		return Pricing{}, ErrInvalidPackageTier
	}
	return p, nil
}
