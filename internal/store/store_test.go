//go:build unit

package store_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"voucherpos/internal/domain/history"
	"voucherpos/internal/domain/notification"
	"voucherpos/internal/domain/sale"
	"voucherpos/internal/infra"
	"voucherpos/internal/infra/gateway"
	"voucherpos/internal/notifier"
	"voucherpos/internal/pkg/clock"
	"voucherpos/internal/pkg/config"
	"voucherpos/internal/pkg/errs"
	"voucherpos/internal/store"
	"voucherpos/internal/sync/broadcast"
	"voucherpos/internal/sync/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}}
}

func (m *memKV) Get(key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memKV) Set(key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

// gatewayStub is an in-memory remote backend. unavailable=true makes every
// call fail the way a dropped connection would.
type gatewayStub struct {
	mu            sync.Mutex
	sales         map[string]sale.Sale
	history       map[string]history.Entry
	notifications []notification.Notification
	unavailable   bool
	nextID        int
}

func newGatewayStub() *gatewayStub {
	return &gatewayStub{
		sales:   map[string]sale.Sale{},
		history: map[string]history.Entry{},
	}
}

func (g *gatewayStub) down(msg string) error {
	return infra.WrapRepoErr(infra.KindUnavailable, msg, errs.New("connection refused"))
}

func (g *gatewayStub) assignID() string {
	g.nextID++
	return fmt.Sprintf("uuid-%d", g.nextID)
}

func (g *gatewayStub) CreateSale(_ context.Context, s sale.Sale) (sale.Sale, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unavailable {
		return sale.Sale{}, g.down("create sale")
	}
	s.ID = g.assignID()
	g.sales[s.ID] = s
	return s, nil
}

func (g *gatewayStub) UpdateSale(_ context.Context, id string, s sale.Sale) (sale.Sale, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unavailable {
		return sale.Sale{}, g.down("update sale")
	}
	if _, ok := g.sales[id]; !ok {
		return sale.Sale{}, infra.WrapRepoErr(infra.KindNotFound, "sale "+id+" not found", nil)
	}
	s.ID = id
	g.sales[id] = s
	return s, nil
}

func (g *gatewayStub) DeleteSale(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unavailable {
		return g.down("delete sale")
	}
	if _, ok := g.sales[id]; !ok {
		return infra.WrapRepoErr(infra.KindNotFound, "sale "+id+" not found", nil)
	}
	delete(g.sales, id)
	return nil
}

func (g *gatewayStub) ListSales(_ context.Context) ([]sale.Sale, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unavailable {
		return nil, g.down("list sales")
	}
	out := make([]sale.Sale, 0, len(g.sales))
	for _, s := range g.sales {
		out = append(out, s)
	}
	return out, nil
}

func (g *gatewayStub) CreateHistory(_ context.Context, e history.Entry) (history.Entry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unavailable {
		return history.Entry{}, g.down("create history")
	}
	e.ID = g.assignID()
	g.history[e.ID] = e
	return e, nil
}

func (g *gatewayStub) DeleteHistory(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unavailable {
		return g.down("delete history")
	}
	if _, ok := g.history[id]; !ok {
		return infra.WrapRepoErr(infra.KindNotFound, "history entry "+id+" not found", nil)
	}
	delete(g.history, id)
	return nil
}

func (g *gatewayStub) ListHistory(_ context.Context) ([]history.Entry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unavailable {
		return nil, g.down("list history")
	}
	out := make([]history.Entry, 0, len(g.history))
	for _, e := range g.history {
		out = append(out, e)
	}
	return out, nil
}

func (g *gatewayStub) CreateNotification(_ context.Context, n notification.Notification) (notification.Notification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unavailable {
		return notification.Notification{}, g.down("create notification")
	}
	n.ID = g.assignID()
	g.notifications = append(g.notifications, n)
	return n, nil
}

func (g *gatewayStub) ListNotifications(_ context.Context, limit int) ([]notification.Notification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unavailable {
		return nil, g.down("list notifications")
	}
	if limit > len(g.notifications) {
		limit = len(g.notifications)
	}
	return g.notifications[:limit], nil
}

type fakeOnline struct{ online bool }

func (f *fakeOnline) IsOnline() bool { return f.online }

type captureEmitter struct {
	mu      sync.Mutex
	notices []notifier.Notice
}

func (c *captureEmitter) Notify(_ context.Context, n notifier.Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, n)
}

func (c *captureEmitter) last(t *testing.T) notifier.Notice {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.notices)
	return c.notices[len(c.notices)-1]
}

// ---- fixture ----

type env struct {
	kv      *memKV
	gw      *gatewayStub
	online  *fakeOnline
	clock   *clock.MockClock
	bc      *broadcast.Broadcaster
	queue   *queue.Queue
	sales   *store.Sales
	history *store.History
	notifs  *store.Notifications
	feed    *store.Feed
	emitter *captureEmitter
}

func newEnv(t *testing.T, configured bool) *env {
	t.Helper()

	kv := newMemKV()
	gw := newGatewayStub()
	online := &fakeOnline{online: true}
	mc := clock.NewMockClock(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	logger := slog.Default()
	bc := broadcast.New(mc, logger)

	replayer := store.NewReplayer(gw, kv, bc, mc, logger)
	q, err := queue.New(kv, replayer, online, bc, mc, logger, config.NewTestConfig().Sync)
	require.NoError(t, err)

	emitter := &captureEmitter{}
	deps := store.Deps{
		KV:          kv,
		Queue:       q,
		Online:      online,
		Configured:  configured,
		Broadcaster: bc,
		Emitter:     emitter,
		Clock:       mc,
		Logger:      logger,
	}

	notifs := store.NewNotifications(deps, gw)
	sales := store.NewSales(deps, gw, notifs)
	hist := store.NewHistory(deps, gw, sales, notifs)
	feed := store.NewFeed(kv, bc, logger)

	return &env{
		kv: kv, gw: gw, online: online, clock: mc, bc: bc,
		queue: q, sales: sales, history: hist, notifs: notifs, feed: feed,
		emitter: emitter,
	}
}

func (e *env) lastNotificationMessage(t *testing.T) string {
	t.Helper()
	ring, err := e.notifs.List(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, ring)
	return ring[0].Message
}

func validInput() store.SaleInput {
	return store.SaleInput{
		Date:         "2024-06-01",
		CustomerName: "Budi",
		PackageTier:  "7 Hari",
		VoucherCode:  "WIFI-1234",
	}
}

// ---- tests ----

func TestSalesAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("リモート到達時はリモート優先で正準レコードを返す", func(t *testing.T) {
		e := newEnv(t, true)

		created, err := e.sales.Add(ctx, validInput())
		require.NoError(t, err)

		assert.Equal(t, "uuid-1", created.ID)
		assert.Equal(t, int64(20000), created.Price)
		assert.Equal(t, int64(2000), created.SellerFee)
		assert.Equal(t, int64(18000), created.NetDeposit)
		assert.Equal(t, 0, e.queue.PendingCount())

		// 正準レコードがローカル文書にも入っている
		local, err := e.sales.List(ctx)
		require.NoError(t, err)
		require.Len(t, local, 1)
		assert.Equal(t, "uuid-1", local[0].ID)

		assert.Equal(t, "Penjualan Budi disimpan", e.lastNotificationMessage(t))

		notice := e.emitter.last(t)
		assert.Equal(t, notifier.SeveritySuccess, notice.Severity)
		assert.Equal(t, []string{"operator"}, notice.Audience)
	})

	t.Run("バックエンド未設定ならローカルidで即時適用しキューには積まない", func(t *testing.T) {
		e := newEnv(t, false)

		created, err := e.sales.Add(ctx, validInput())
		require.NoError(t, err)

		assert.Regexp(t, `^\d{13,}$`, created.ID) // unix-ms token
		assert.Equal(t, 0, e.queue.PendingCount())
		assert.False(t, strings.HasSuffix(e.lastNotificationMessage(t), "(offline)"))
	})

	t.Run("設定済みだが到達不能ならローカル適用とエンキューにフォールバックする", func(t *testing.T) {
		e := newEnv(t, true)
		e.gw.unavailable = true

		created, err := e.sales.Add(ctx, validInput())
		require.NoError(t, err) // RemoteUnavailableは呼び出し側に漏れない

		assert.Regexp(t, `^\d{13,}$`, created.ID)
		assert.Equal(t, 1, e.queue.PendingCount())
		assert.True(t, strings.HasSuffix(e.lastNotificationMessage(t), "(offline)"))

		local, err := e.sales.List(ctx)
		require.NoError(t, err)
		assert.Len(t, local, 1)
	})

	t.Run("検証エラーは即時返却でフォールバックもエンキューもしない", func(t *testing.T) {
		e := newEnv(t, true)
		e.gw.unavailable = true

		in := validInput()
		in.PackageTier = "14 Hari"
		_, err := e.sales.Add(ctx, in)
		require.True(t, errs.Is(err, errs.ErrValidationFailed))

		assert.Equal(t, 0, e.queue.PendingCount())
		local, listErr := e.sales.List(ctx)
		require.NoError(t, listErr)
		assert.Empty(t, local)
	})
}

func TestSalesUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("部分更新は未指定フィールドを保持する", func(t *testing.T) {
		e := newEnv(t, false)
		created, err := e.sales.Add(ctx, validInput())
		require.NoError(t, err)

		e.clock.Add(time.Second)
		name := "Siti"
		updated, err := e.sales.Update(ctx, created.ID, sale.Partial{CustomerName: &name})
		require.NoError(t, err)

		assert.Equal(t, "Siti", updated.CustomerName)
		assert.Equal(t, created.VoucherCode, updated.VoucherCode)
		assert.Equal(t, created.Date, updated.Date)
		assert.Equal(t, created.Price, updated.Price)
		assert.Greater(t, updated.UpdatedAt, created.UpdatedAt)
	})

	t.Run("ティア変更は価格を再導出する", func(t *testing.T) {
		e := newEnv(t, false)
		created, err := e.sales.Add(ctx, validInput())
		require.NoError(t, err)

		tier := sale.Tier30Hari
		updated, err := e.sales.Update(ctx, created.ID, sale.Partial{PackageTier: &tier})
		require.NoError(t, err)

		assert.Equal(t, int64(60000), updated.Price)
		assert.Equal(t, int64(5000), updated.SellerFee)
		assert.Equal(t, int64(55000), updated.NetDeposit)
	})

	t.Run("存在しないidはNotFound", func(t *testing.T) {
		e := newEnv(t, false)

		name := "X"
		_, err := e.sales.Update(ctx, "missing", sale.Partial{CustomerName: &name})
		require.True(t, errs.Is(err, errs.ErrNotFound))
	})
}

func TestSalesDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("削除は除去前のレコードを返す", func(t *testing.T) {
		e := newEnv(t, false)
		created, err := e.sales.Add(ctx, validInput())
		require.NoError(t, err)

		captured, err := e.sales.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Budi", captured.CustomerName)

		local, err := e.sales.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, local)
	})

	t.Run("到達不能時はローカル除去とエンキュー", func(t *testing.T) {
		e := newEnv(t, true)
		created, err := e.sales.Add(ctx, validInput())
		require.NoError(t, err)

		e.gw.unavailable = true
		_, err = e.sales.Delete(ctx, created.ID)
		require.NoError(t, err)

		assert.Equal(t, 1, e.queue.PendingCount())
		local, err := e.sales.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, local)
	})
}

// オフラインで追加→復旧→drainで正準idに収束するシナリオ
func TestOfflineAddThenSync(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, true)
	e.gw.unavailable = true

	created, err := e.sales.Add(ctx, validInput())
	require.NoError(t, err)
	require.Equal(t, 1, e.queue.PendingCount())

	e.gw.unavailable = false
	e.clock.Set(time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC))
	e.queue.Drain(ctx)

	assert.Equal(t, 0, e.queue.PendingCount())

	// リモートに作成済み
	remote, err := e.gw.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, remote, 1)
	assert.Equal(t, "Budi", remote[0].CustomerName)

	// ローカル文書のidが正準idへ置き換わっている
	var local []sale.Sale
	found, err := e.kv.Get("wifi-voucher-sales", &local)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, local, 1)
	assert.NotEqual(t, created.ID, local[0].ID)
	assert.Equal(t, remote[0].ID, local[0].ID)

	state := e.queue.State()
	require.NotNil(t, state.LastSyncTime)
	assert.Equal(t, time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC), *state.LastSyncTime)
}

func TestMoveToHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("全フィールドを複製し独立idを持つ", func(t *testing.T) {
		e := newEnv(t, false)
		created, err := e.sales.Add(ctx, validInput())
		require.NoError(t, err)

		e.clock.Add(time.Second)
		entry, err := e.history.MoveToHistory(ctx, created.ID, "2024-06-02")
		require.NoError(t, err)

		assert.NotEqual(t, created.ID, entry.ID)
		assert.Equal(t, created.CustomerName, entry.CustomerName)
		assert.Equal(t, created.Price, entry.Price)
		assert.Equal(t, created.VoucherCode, entry.VoucherCode)
		assert.Equal(t, created.NetDeposit, entry.NetDeposit)
		assert.Equal(t, "2024-06-02", entry.DepositDate)

		// 移動は追加のみ。元のSaleの削除は呼び出し側の別ミューテーション
		open, err := e.sales.List(ctx)
		require.NoError(t, err)
		assert.Len(t, open, 1)
	})

	t.Run("空のdepositDateは検証エラー", func(t *testing.T) {
		e := newEnv(t, false)
		created, err := e.sales.Add(ctx, validInput())
		require.NoError(t, err)

		_, err = e.history.MoveToHistory(ctx, created.ID, "  ")
		require.True(t, errs.Is(err, errs.ErrValidationFailed))
	})
}

func TestDepositAll(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, false)

	_, err := e.sales.Add(ctx, validInput())
	require.NoError(t, err)
	e.clock.Add(time.Millisecond)
	in := validInput()
	in.CustomerName = "Siti"
	in.PackageTier = "24 Jam"
	_, err = e.sales.Add(ctx, in)
	require.NoError(t, err)

	e.clock.Add(time.Millisecond)
	moved, err := e.history.DepositAll(ctx, "2024-06-02")
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	open, err := e.sales.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	ledger, err := e.history.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ledger, 2)

	// 再実行は冪等
	moved, err = e.history.DepositAll(ctx, "2024-06-02")
	require.NoError(t, err)
	assert.Equal(t, 0, moved)
}

func TestFeed(t *testing.T) {
	ctx := context.Background()

	saleEvent := func(eventType, id string, updatedAt int64) gatewayChange {
		return gatewayChange{
			eventType: eventType,
			id:        id,
			record: map[string]any{
				"id": id, "sale_date": "2024-06-01", "customer_name": "Budi",
				"package_tier": "7 Hari", "price": 20000, "voucher_code": "WIFI-1234",
				"seller_fee": 2000, "net_deposit": 18000, "updated_at": updatedAt,
			},
		}
	}

	t.Run("確定インサートは新規レコードとして取り込む", func(t *testing.T) {
		e := newEnv(t, true)

		e.feed.Handle(saleEvent("insert", "uuid-9", 100).toEvent(t))

		// Listはリモート優先なのでローカル文書を直接見る
		var doc []sale.Sale
		_, err := e.kv.Get("wifi-voucher-sales", &doc)
		require.NoError(t, err)
		require.Len(t, doc, 1)
		assert.Equal(t, "uuid-9", doc[0].ID)
	})

	t.Run("楽観適用済みidのインサートは重複させない", func(t *testing.T) {
		e := newEnv(t, true)
		created, err := e.sales.Add(ctx, validInput())
		require.NoError(t, err)

		e.feed.Handle(saleEvent("insert", created.ID, created.UpdatedAt).toEvent(t))

		var doc []sale.Sale
		_, err = e.kv.Get("wifi-voucher-sales", &doc)
		require.NoError(t, err)
		assert.Len(t, doc, 1)
	})

	t.Run("古い確定更新は新しいローカル版を潰さない", func(t *testing.T) {
		e := newEnv(t, true)
		created, err := e.sales.Add(ctx, validInput())
		require.NoError(t, err)

		stale := saleEvent("update", created.ID, created.UpdatedAt-1000)
		stale.record["customer_name"] = "Stale"
		e.feed.Handle(stale.toEvent(t))

		var doc []sale.Sale
		_, err = e.kv.Get("wifi-voucher-sales", &doc)
		require.NoError(t, err)
		require.Len(t, doc, 1)
		assert.Equal(t, "Budi", doc[0].CustomerName)
	})

	t.Run("確定削除はレコードを除去する", func(t *testing.T) {
		e := newEnv(t, true)
		created, err := e.sales.Add(ctx, validInput())
		require.NoError(t, err)

		e.feed.Handle(gatewayChange{eventType: "delete", id: created.ID}.toEvent(t))

		var doc []sale.Sale
		_, err = e.kv.Get("wifi-voucher-sales", &doc)
		require.NoError(t, err)
		assert.Empty(t, doc)
	})
}

// gatewayChange builds the NOTIFY payload shape the backend triggers emit.
type gatewayChange struct {
	eventType string
	id        string
	record    map[string]any
}

func (c gatewayChange) toEvent(t *testing.T) gateway.ChangeEvent {
	t.Helper()
	var raw json.RawMessage
	if c.record != nil {
		b, err := json.Marshal(c.record)
		require.NoError(t, err)
		raw = b
	}
	return gateway.ChangeEvent{Table: "sales", EventType: c.eventType, ID: c.id, Record: raw}
}
