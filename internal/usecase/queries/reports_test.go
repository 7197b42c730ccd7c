//go:build unit

package queries_test

import (
	"context"
	"testing"
	"time"

	"voucherpos/internal/domain/history"
	"voucherpos/internal/domain/sale"
	"voucherpos/internal/pkg/clock"
	"voucherpos/internal/usecase/queries"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type salesSourceStub struct{ sales []sale.Sale }

func (s *salesSourceStub) List(_ context.Context) ([]sale.Sale, error) { return s.sales, nil }

type historySourceStub struct{ entries []history.Entry }

func (s *historySourceStub) List(_ context.Context) ([]history.Entry, error) {
	return s.entries, nil
}

func mustSale(t *testing.T, id, customer string, tier sale.PackageTier) sale.Sale {
	t.Helper()
	s, err := sale.NewSale(id, "2024-06-01", customer, tier, "WIFI-"+id, 0)
	require.NoError(t, err)
	return s
}

func TestReportSummary(t *testing.T) {
	ctx := context.Background()
	mc := clock.NewMockClock(time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC))

	t.Run("ティア別と合計を両セットで集計する", func(t *testing.T) {
		s1 := mustSale(t, "1", "Budi", sale.Tier7Hari)
		s2 := mustSale(t, "2", "Siti", sale.Tier7Hari)
		s3 := mustSale(t, "3", "Andi", sale.Tier24Jam)
		h1, err := history.FromSale("h1", mustSale(t, "4", "Dewi", sale.Tier30Hari), "2024-06-01", 0)
		require.NoError(t, err)

		q := queries.NewReportQueries(
			&salesSourceStub{sales: []sale.Sale{s1, s2, s3}},
			&historySourceStub{entries: []history.Entry{h1}},
			mc,
		)

		summary, err := q.Summary(ctx)
		require.NoError(t, err)

		assert.Equal(t, 3, summary.Active.Count)
		assert.Equal(t, int64(20000+20000+5000), summary.Active.Revenue)
		assert.Equal(t, int64(2000+2000+1000), summary.Active.Fees)
		assert.Equal(t, int64(18000+18000+4000), summary.Active.NetDeposit)

		assert.Equal(t, 1, summary.History.Count)
		assert.Equal(t, int64(60000), summary.History.Revenue)
		assert.Equal(t, int64(55000), summary.History.NetDeposit)

		require.Len(t, summary.Active.ByTier, 4)
		assert.Equal(t, "24 Jam", summary.Active.ByTier[0].PackageTier)
		assert.Equal(t, 1, summary.Active.ByTier[0].Count)
		assert.Equal(t, 2, summary.Active.ByTier[1].Count) // 7 Hari
		assert.Equal(t, 0, summary.Active.ByTier[2].Count) // 15 Hari

		assert.Equal(t, mc.Now(), summary.GeneratedAt)
	})

	t.Run("空セットでも全ティアの枠を返す", func(t *testing.T) {
		q := queries.NewReportQueries(&salesSourceStub{}, &historySourceStub{}, mc)

		summary, err := q.Summary(ctx)
		require.NoError(t, err)

		assert.Equal(t, 0, summary.Active.Count)
		require.Len(t, summary.Active.ByTier, 4)
		require.Len(t, summary.History.ByTier, 4)
	})
}
