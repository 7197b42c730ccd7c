//go:build e2e

package gateway_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"voucherpos/internal/domain/history"
	"voucherpos/internal/domain/notification"
	"voucherpos/internal/domain/sale"
	"voucherpos/internal/infra"
	"voucherpos/internal/infra/gateway"
	"voucherpos/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
)

type gatewaySuite struct {
	suite.Suite
	pool *pgxpool.Pool
	gw   *gateway.Postgres
}

func TestGatewaySuite(t *testing.T) {
	s := new(gatewaySuite)
	pool, _ := e2e.SetupBackend(t)
	s.pool = pool
	s.gw = gateway.NewPostgres(pool)
	suite.Run(t, s)
}

func (s *gatewaySuite) SetupTest() {
	ctx := context.Background()
	_, err := s.pool.Exec(ctx, "TRUNCATE sales, history, notifications")
	s.Require().NoError(err)
}

func (s *gatewaySuite) mustCreateSale(name string, tier sale.PackageTier) sale.Sale {
	candidate, err := sale.NewSale("1717236000000", "2024-06-01", name, tier, "WIFI-001", 1717236000000)
	s.Require().NoError(err)

	created, err := s.gw.CreateSale(context.Background(), candidate)
	s.Require().NoError(err)
	return created
}

func (s *gatewaySuite) TestSales() {
	ctx := context.Background()

	s.Run("作成時にバックエンドがUUIDを採番し、他フィールドは保存される", func() {
		candidate, err := sale.NewSale("1717236000000", "2024-06-01", "Budi Santoso", sale.Tier7Hari, "WIFI-7H-001", 1717236000000)
		s.Require().NoError(err)

		created, err := s.gw.CreateSale(ctx, candidate)
		s.Require().NoError(err)

		_, err = uuid.Parse(created.ID)
		s.NoError(err, "採番されたIDはUUIDであること")
		s.NotEqual(candidate.ID, created.ID)

		want := candidate
		want.ID = created.ID
		s.Empty(cmp.Diff(want, created))
	})

	s.Run("更新は全フィールドを差し替えて返す", func() {
		created := s.mustCreateSale("Budi Santoso", sale.Tier7Hari)

		modified := created
		modified.CustomerName = "Dewi Lestari"
		modified.UpdatedAt = created.UpdatedAt + 1000

		updated, err := s.gw.UpdateSale(ctx, created.ID, modified)
		s.Require().NoError(err)
		s.Empty(cmp.Diff(modified, updated))
	})

	s.Run("存在しないIDの更新はNOT_FOUND", func() {
		ghost := s.mustCreateSale("Budi Santoso", sale.Tier24Jam)
		_, err := s.gw.UpdateSale(ctx, uuid.NewString(), ghost)
		s.True(infra.IsKind(err, infra.KindNotFound))
	})

	s.Run("削除後は一覧に現れない", func() {
		created := s.mustCreateSale("Budi Santoso", sale.Tier30Hari)

		s.Require().NoError(s.gw.DeleteSale(ctx, created.ID))

		listed, err := s.gw.ListSales(ctx)
		s.Require().NoError(err)
		for _, rec := range listed {
			s.NotEqual(created.ID, rec.ID)
		}

		err = s.gw.DeleteSale(ctx, created.ID)
		s.True(infra.IsKind(err, infra.KindNotFound), "二重削除はNOT_FOUND")
	})

	s.Run("不正な階層はVALIDATION（CHECK制約違反）", func() {
		bogus := sale.Sale{
			ID:           "x",
			Date:         "2024-06-01",
			CustomerName: "Budi",
			PackageTier:  sale.PackageTier("14 Hari"),
			Price:        20000,
			VoucherCode:  "WIFI-001",
			SellerFee:    2000,
			NetDeposit:   18000,
			UpdatedAt:    1,
		}
		_, err := s.gw.CreateSale(ctx, bogus)
		s.True(infra.IsKind(err, infra.KindValidation))
	})
}

func (s *gatewaySuite) TestHistory() {
	ctx := context.Background()

	created := s.mustCreateSale("Budi Santoso", sale.Tier15Hari)
	entry, err := history.FromSale("1717236000001", created, "2024-06-05", created.UpdatedAt)
	s.Require().NoError(err)

	stored, err := s.gw.CreateHistory(ctx, entry)
	s.Require().NoError(err)

	_, err = uuid.Parse(stored.ID)
	s.NoError(err)

	want := entry
	want.ID = stored.ID
	s.Empty(cmp.Diff(want, stored))

	listed, err := s.gw.ListHistory(ctx)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal("2024-06-05", listed[0].DepositDate)

	s.Require().NoError(s.gw.DeleteHistory(ctx, stored.ID))
	err = s.gw.DeleteHistory(ctx, stored.ID)
	s.True(infra.IsKind(err, infra.KindNotFound))
}

func (s *gatewaySuite) TestNotifications() {
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, msg := range []string{"Penjualan A disimpan", "Penjualan B disimpan", "Penjualan C disimpan"} {
		_, err := s.gw.CreateNotification(ctx, notification.Notification{
			ID:        "local",
			Message:   msg,
			Type:      notification.TypeSuccess,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
		s.Require().NoError(err)
	}

	listed, err := s.gw.ListNotifications(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(listed, 2, "LIMITが効くこと")
	s.Equal("Penjualan C disimpan", listed[0].Message, "新しい順に並ぶこと")
	s.Equal("Penjualan B disimpan", listed[1].Message)
}

func (s *gatewaySuite) TestChangefeed() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan gateway.ChangeEvent, 16)
	feed := gateway.NewChangefeed(s.pool, slog.Default())
	go feed.Run(ctx, func(ev gateway.ChangeEvent) { events <- ev })

	// LISTENが張られるまで少し待つ
	time.Sleep(500 * time.Millisecond)

	created := s.mustCreateSale("Budi Santoso", sale.Tier7Hari)

	ev := s.waitEvent(events)
	s.Equal("sales", ev.Table)
	s.Equal("insert", ev.EventType)
	s.Equal(created.ID, ev.ID)
	s.NotEmpty(ev.Record, "insertイベントは行全体を運ぶこと")

	s.Require().NoError(s.gw.DeleteSale(context.Background(), created.ID))

	ev = s.waitEvent(events)
	s.Equal("delete", ev.EventType)
	s.Equal(created.ID, ev.ID)
	s.Empty(ev.Record, "deleteイベントはIDのみ")
}

func (s *gatewaySuite) waitEvent(events <-chan gateway.ChangeEvent) gateway.ChangeEvent {
	select {
	case ev := <-events:
		return ev
	case <-time.After(10 * time.Second):
		s.FailNow("変更イベントが届きませんでした")
		return gateway.ChangeEvent{}
	}
}
