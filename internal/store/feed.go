package store

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"voucherpos/internal/domain/history"
	"voucherpos/internal/domain/notification"
	"voucherpos/internal/domain/sale"
	"voucherpos/internal/infra/gateway"
	"voucherpos/internal/sync/broadcast"
)

// Feed applies confirmed backend changes to the local documents. Inserts
// that match a record already applied optimistically are deduped by id;
// updates older than the live local revision are dropped so a delayed
// confirmation never clobbers a newer local write.
type Feed struct {
	kv     KV
	bc     *broadcast.Broadcaster
	logger *slog.Logger

	mu sync.Mutex
}

func NewFeed(kv KV, bc *broadcast.Broadcaster, logger *slog.Logger) *Feed {
	return &Feed{kv: kv, bc: bc, logger: logger}
}

// row payloads as NOTIFY-ed by the backend triggers (row_to_json column
// names).
type saleRow struct {
	ID           string `json:"id"`
	SaleDate     string `json:"sale_date"`
	CustomerName string `json:"customer_name"`
	PackageTier  string `json:"package_tier"`
	Price        int64  `json:"price"`
	VoucherCode  string `json:"voucher_code"`
	SellerFee    int64  `json:"seller_fee"`
	NetDeposit   int64  `json:"net_deposit"`
	UpdatedAt    int64  `json:"updated_at"`
}

func (r saleRow) toDomain() sale.Sale {
	return sale.Sale{
		ID:           r.ID,
		Date:         r.SaleDate,
		CustomerName: r.CustomerName,
		PackageTier:  sale.PackageTier(r.PackageTier),
		Price:        r.Price,
		VoucherCode:  r.VoucherCode,
		SellerFee:    r.SellerFee,
		NetDeposit:   r.NetDeposit,
		UpdatedAt:    r.UpdatedAt,
	}
}

type historyRow struct {
	saleRow
	DepositDate string `json:"deposit_date"`
}

func (r historyRow) toDomain() history.Entry {
	return history.Entry{
		ID:           r.ID,
		Date:         r.SaleDate,
		CustomerName: r.CustomerName,
		PackageTier:  sale.PackageTier(r.PackageTier),
		Price:        r.Price,
		VoucherCode:  r.VoucherCode,
		SellerFee:    r.SellerFee,
		NetDeposit:   r.NetDeposit,
		DepositDate:  r.DepositDate,
		UpdatedAt:    r.UpdatedAt,
	}
}

type notificationRow struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// Handle is the changefeed callback. Malformed events are logged and
// dropped; the local documents stay the authority.
func (f *Feed) Handle(ev gateway.ChangeEvent) {
	switch ev.Table {
	case "sales":
		f.handleSale(ev)
	case "history":
		f.handleHistory(ev)
	case "notifications":
		f.handleNotification(ev)
	default:
		f.logger.Warn("change event for unknown table", "table", ev.Table)
	}
}

func (f *Feed) handleSale(ev gateway.ChangeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var local []sale.Sale
	if _, err := f.kv.Get(salesKey, &local); err != nil {
		f.logger.Error("failed to load sales", "error", err.Error())
		return
	}

	switch ev.EventType {
	case "insert", "update":
		var row saleRow
		if err := json.Unmarshal(ev.Record, &row); err != nil {
			f.logger.Warn("malformed sale change record", "error", err.Error())
			return
		}
		rec := row.toDomain()

		idx := -1
		for i := range local {
			if local[i].ID == rec.ID {
				idx = i
				break
			}
		}

		if ev.EventType == "insert" {
			if idx >= 0 {
				// 楽観適用済みのレコードの確定インサート。重複させない
				return
			}
			local = append([]sale.Sale{rec}, local...)
		} else {
			if idx >= 0 {
				if local[idx].UpdatedAt > rec.UpdatedAt {
					// 遅延した確定通知。新しいローカル版を守る
					return
				}
				local[idx] = rec
			} else {
				local = append([]sale.Sale{rec}, local...)
			}
		}

		f.persistSales(local)
		f.publish("sales", actionFor(ev.EventType), rec)

	case "delete":
		kept := local[:0]
		removed := false
		for _, rec := range local {
			if rec.ID == ev.ID {
				removed = true
				continue
			}
			kept = append(kept, rec)
		}
		if !removed {
			return
		}
		f.persistSales(kept)
		f.publish("sales", "delete", deletePayload{ID: ev.ID})
	}
}

func (f *Feed) handleHistory(ev gateway.ChangeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var local []history.Entry
	if _, err := f.kv.Get(historyKey, &local); err != nil {
		f.logger.Error("failed to load history", "error", err.Error())
		return
	}

	switch ev.EventType {
	case "insert", "update":
		var row historyRow
		if err := json.Unmarshal(ev.Record, &row); err != nil {
			f.logger.Warn("malformed history change record", "error", err.Error())
			return
		}
		rec := row.toDomain()

		idx := -1
		for i := range local {
			if local[i].ID == rec.ID {
				idx = i
				break
			}
		}

		if ev.EventType == "insert" {
			if idx >= 0 {
				return
			}
			local = append([]history.Entry{rec}, local...)
		} else {
			if idx >= 0 {
				if local[idx].UpdatedAt > rec.UpdatedAt {
					return
				}
				local[idx] = rec
			} else {
				local = append([]history.Entry{rec}, local...)
			}
		}

		if err := f.kv.Set(historyKey, local); err != nil {
			f.logger.Error("failed to persist history", "error", err.Error())
			return
		}
		f.publish("history", actionFor(ev.EventType), rec)

	case "delete":
		kept := local[:0]
		removed := false
		for _, rec := range local {
			if rec.ID == ev.ID {
				removed = true
				continue
			}
			kept = append(kept, rec)
		}
		if !removed {
			return
		}
		if err := f.kv.Set(historyKey, kept); err != nil {
			f.logger.Error("failed to persist history", "error", err.Error())
			return
		}
		f.publish("history", "delete", deletePayload{ID: ev.ID})
	}
}

func (f *Feed) handleNotification(ev gateway.ChangeEvent) {
	if ev.EventType != "insert" {
		return
	}

	var row notificationRow
	if err := json.Unmarshal(ev.Record, &row); err != nil {
		f.logger.Warn("malformed notification change record", "error", err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var ring []notification.Notification
	if _, err := f.kv.Get(notificationsKey, &ring); err != nil {
		f.logger.Error("failed to load notifications", "error", err.Error())
		return
	}
	for _, n := range ring {
		if n.ID == row.ID {
			return
		}
		// 自装置がミラーした通知は別idで戻ってくるので内容で畳む
		if n.Message == row.Message && n.Timestamp.Equal(row.CreatedAt) {
			return
		}
	}

	rec := notification.Notification{
		ID:        row.ID,
		Message:   row.Message,
		Type:      notification.Type(row.Type),
		Timestamp: row.CreatedAt,
	}
	ring = notification.Prepend(ring, rec)
	if err := f.kv.Set(notificationsKey, ring); err != nil {
		f.logger.Error("failed to persist notifications", "error", err.Error())
		return
	}
	f.publish("notifications", "add", rec)
}

func (f *Feed) persistSales(local []sale.Sale) {
	if err := f.kv.Set(salesKey, local); err != nil {
		f.logger.Error("failed to persist sales", "error", err.Error())
	}
}

func (f *Feed) publish(kind, action string, rec any) {
	f.bc.Publish(broadcast.Event{
		Type:   kind,
		Action: action,
		Record: rec,
		Source: "changefeed",
	})
}

func actionFor(eventType string) string {
	if eventType == "insert" {
		return "add"
	}
	return "update"
}
