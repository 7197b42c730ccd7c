package queries

import (
	"context"
	"time"

	"voucherpos/internal/domain/history"
	"voucherpos/internal/domain/sale"
	"voucherpos/internal/pkg/clock"
	"voucherpos/internal/pkg/errs"
)

// TierBreakdown is the per-package-tier slice of a report section.
type TierBreakdown struct {
	PackageTier string `json:"packageTier"`
	Count       int    `json:"count"`
	Revenue     int64  `json:"revenue"`
	Fees        int64  `json:"fees"`
	NetDeposit  int64  `json:"netDeposit"`
}

// ReportSection aggregates one record set (active sales or the deposit
// ledger).
type ReportSection struct {
	Count      int             `json:"count"`
	Revenue    int64           `json:"revenue"`
	Fees       int64           `json:"fees"`
	NetDeposit int64           `json:"netDeposit"`
	ByTier     []TierBreakdown `json:"byTier"`
}

type ReportSummary struct {
	Active      ReportSection `json:"active"`
	History     ReportSection `json:"history"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// Read-side ports; satisfied by the record stores, so the summary reflects
// whatever copy (remote or local) the stores currently serve.
type SalesSource interface {
	List(ctx context.Context) ([]sale.Sale, error)
}

type HistorySource interface {
	List(ctx context.Context) ([]history.Entry, error)
}

type ReportQueries interface {
	Summary(ctx context.Context) (*ReportSummary, error)
}

type reportQueriesImpl struct {
	sales   SalesSource
	history HistorySource
	clock   clock.Clock
}

func NewReportQueries(sales SalesSource, history HistorySource, c clock.Clock) ReportQueries {
	return &reportQueriesImpl{sales: sales, history: history, clock: c}
}

func (q *reportQueriesImpl) Summary(ctx context.Context) (*ReportSummary, error) {
	open, err := q.sales.List(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "failed to load sales for report")
	}
	ledger, err := q.history.List(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "failed to load history for report")
	}

	summary := &ReportSummary{
		Active:      newSection(),
		History:     newSection(),
		GeneratedAt: q.clock.Now(),
	}
	for _, s := range open {
		accumulate(&summary.Active, s.PackageTier, s.Price, s.SellerFee, s.NetDeposit)
	}
	for _, e := range ledger {
		accumulate(&summary.History, e.PackageTier, e.Price, e.SellerFee, e.NetDeposit)
	}
	return summary, nil
}

// newSection pre-seeds every known tier so the breakdown shape is stable
// even when a tier has no records.
func newSection() ReportSection {
	tiers := sale.AllTiers()
	section := ReportSection{ByTier: make([]TierBreakdown, len(tiers))}
	for i, tier := range tiers {
		section.ByTier[i] = TierBreakdown{PackageTier: tier.String()}
	}
	return section
}

func accumulate(section *ReportSection, tier sale.PackageTier, price, fee, net int64) {
	section.Count++
	section.Revenue += price
	section.Fees += fee
	section.NetDeposit += net

	for i := range section.ByTier {
		if section.ByTier[i].PackageTier == tier.String() {
			section.ByTier[i].Count++
			section.ByTier[i].Revenue += price
			section.ByTier[i].Fees += fee
			section.ByTier[i].NetDeposit += net
			return
		}
	}
}
