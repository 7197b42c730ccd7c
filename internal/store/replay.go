package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"voucherpos/internal/domain/history"
	"voucherpos/internal/domain/sale"
	"voucherpos/internal/infra"
	"voucherpos/internal/pkg/clock"
	"voucherpos/internal/pkg/errs"
	"voucherpos/internal/sync/broadcast"
	"voucherpos/internal/sync/queue"
)

// Replayer executes queued offline actions against the remote backend and
// reconciles the local documents with the canonical records it gets back.
//
// Offline-created records carry local millisecond ids; the backend assigns
// uuids on insert. The replayer keeps an in-memory alias from local id to
// remote id so queued mutations enqueued after the create still land on the
// right row. The alias map does not survive a restart: by then the create
// either replayed (and the local document carries the remote id) or is still
// queued ahead of its dependents in FIFO order.
type Replayer struct {
	gateway Gateway
	kv      KV
	bc      *broadcast.Broadcaster
	clock   clock.Clock
	logger  *slog.Logger

	mu      sync.Mutex
	aliases map[string]string // local id -> remote id
}

func NewReplayer(gateway Gateway, kv KV, bc *broadcast.Broadcaster, c clock.Clock, logger *slog.Logger) *Replayer {
	return &Replayer{
		gateway: gateway,
		kv:      kv,
		bc:      bc,
		clock:   c,
		logger:  logger,
		aliases: make(map[string]string),
	}
}

// Execute replays one action. A nil return removes the action from the
// queue; an error leaves it queued for the next pass (up to the retry
// ceiling).
func (r *Replayer) Execute(ctx context.Context, action queue.OfflineAction) error {
	switch action.Type {
	case queue.ActionAddSale:
		return r.addSale(ctx, action)
	case queue.ActionUpdateSale:
		return r.updateSale(ctx, action)
	case queue.ActionDeleteSale:
		return r.deleteSale(ctx, action)
	case queue.ActionMoveToHistory:
		return r.addHistory(ctx, action)
	case queue.ActionDeleteHistory:
		return r.deleteHistory(ctx, action)
	default:
		// 未知のアクションは再試行しても直らない。落として先へ進む
		r.logger.Error("dropping unknown offline action", "type", string(action.Type), "id", action.ID)
		return nil
	}
}

func (r *Replayer) addSale(ctx context.Context, action queue.OfflineAction) error {
	var local sale.Sale
	if err := json.Unmarshal(action.Payload, &local); err != nil {
		return errs.Wrap(err, "malformed ADD_SALE payload")
	}

	created, err := r.gateway.CreateSale(ctx, local)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.aliases[local.ID] = created.ID
	r.mu.Unlock()

	r.reconcileSale(local.ID, created)
	return nil
}

func (r *Replayer) updateSale(ctx context.Context, action queue.OfflineAction) error {
	var merged sale.Sale
	if err := json.Unmarshal(action.Payload, &merged); err != nil {
		return errs.Wrap(err, "malformed UPDATE_SALE payload")
	}

	localID := merged.ID
	merged.ID = r.resolve(merged.ID)

	updated, err := r.gateway.UpdateSale(ctx, merged.ID, merged)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			// 対象行が消えている。収束済みとして扱う
			r.logger.Warn("queued update targets a missing sale", "id", merged.ID)
			return nil
		}
		return err
	}

	r.reconcileSale(localID, updated)
	return nil
}

func (r *Replayer) deleteSale(ctx context.Context, action queue.OfflineAction) error {
	var payload deletePayload
	if err := json.Unmarshal(action.Payload, &payload); err != nil {
		return errs.Wrap(err, "malformed DELETE_SALE payload")
	}

	err := r.gateway.DeleteSale(ctx, r.resolve(payload.ID))
	if err != nil && !infra.IsKind(err, infra.KindNotFound) {
		return err
	}
	return nil
}

func (r *Replayer) addHistory(ctx context.Context, action queue.OfflineAction) error {
	var entry history.Entry
	if err := json.Unmarshal(action.Payload, &entry); err != nil {
		return errs.Wrap(err, "malformed MOVE_TO_HISTORY payload")
	}

	created, err := r.gateway.CreateHistory(ctx, entry)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.aliases[entry.ID] = created.ID
	r.mu.Unlock()

	r.reconcileHistory(entry.ID, created)
	return nil
}

func (r *Replayer) deleteHistory(ctx context.Context, action queue.OfflineAction) error {
	var payload deletePayload
	if err := json.Unmarshal(action.Payload, &payload); err != nil {
		return errs.Wrap(err, "malformed DELETE_HISTORY payload")
	}

	err := r.gateway.DeleteHistory(ctx, r.resolve(payload.ID))
	if err != nil && !infra.IsKind(err, infra.KindNotFound) {
		return err
	}
	return nil
}

func (r *Replayer) resolve(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if remote, ok := r.aliases[id]; ok {
		return remote
	}
	return id
}

// reconcileSale swaps the optimistic local record for the canonical remote
// one. A canonical record older than the live local revision only donates
// its id; the newer local fields stay (a later queued update will carry
// them).
func (r *Replayer) reconcileSale(localID string, canonical sale.Sale) {
	var local []sale.Sale
	if _, err := r.kv.Get(salesKey, &local); err != nil {
		r.logger.Error("failed to load sales for reconciliation", "error", err.Error())
		return
	}

	result := canonical
	kept := local[:0]
	found := false
	for _, rec := range local {
		if rec.ID != localID && rec.ID != canonical.ID {
			kept = append(kept, rec)
			continue
		}
		if found {
			// 変更フィードが先に確定インサートを適用していた場合の重複を畳む
			continue
		}
		found = true
		if rec.UpdatedAt > canonical.UpdatedAt {
			rec.ID = canonical.ID
			result = rec
		} else {
			rec = canonical
		}
		kept = append(kept, rec)
	}
	if !found {
		kept = append([]sale.Sale{canonical}, kept...)
	}

	if err := r.kv.Set(salesKey, kept); err != nil {
		r.logger.Error("failed to persist reconciled sales", "error", err.Error())
		return
	}

	r.bc.Publish(broadcast.Event{
		Type:   "sales",
		Action: "update",
		Record: result,
		Source: "sync",
	})
}

func (r *Replayer) reconcileHistory(localID string, canonical history.Entry) {
	var local []history.Entry
	if _, err := r.kv.Get(historyKey, &local); err != nil {
		r.logger.Error("failed to load history for reconciliation", "error", err.Error())
		return
	}

	kept := local[:0]
	found := false
	for _, rec := range local {
		if rec.ID != localID && rec.ID != canonical.ID {
			kept = append(kept, rec)
			continue
		}
		if found {
			continue
		}
		found = true
		kept = append(kept, canonical)
	}
	if !found {
		kept = append([]history.Entry{canonical}, kept...)
	}

	if err := r.kv.Set(historyKey, kept); err != nil {
		r.logger.Error("failed to persist reconciled history", "error", err.Error())
		return
	}

	r.bc.Publish(broadcast.Event{
		Type:   "history",
		Action: "update",
		Record: canonical,
		Source: "sync",
	})
}
