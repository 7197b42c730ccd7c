package store

import (
	"context"
	"sync"

	"voucherpos/internal/domain/history"
	"voucherpos/internal/domain/notification"
	"voucherpos/internal/infra"
	"voucherpos/internal/notifier"
	"voucherpos/internal/pkg/clock"
	"voucherpos/internal/pkg/errs"
	"voucherpos/internal/pkg/ident"
	"voucherpos/internal/sync/broadcast"
	"voucherpos/internal/sync/queue"
)

// History is the mutation/query surface for the deposit ledger. Same
// dual-path behaviour as Sales.
type History struct {
	deps    Deps
	gateway HistoryGateway
	sales   *Sales
	notifs  *Notifications

	mu sync.Mutex // serializes read-modify-write of the history document
}

func NewHistory(deps Deps, gateway HistoryGateway, sales *Sales, notifs *Notifications) *History {
	return &History{deps: deps, gateway: gateway, sales: sales, notifs: notifs}
}

// Add appends a pre-built entry. Validation happened at construction.
func (h *History) Add(ctx context.Context, entry history.Entry) (history.Entry, error) {
	fallback := h.deps.Configured
	if h.deps.remoteReady() {
		created, err := h.gateway.CreateHistory(ctx, entry)
		switch {
		case err == nil:
			h.replaceOrPrepend(created)
			h.publish("add", created, "remote")
			h.emit(ctx, "Setoran "+created.CustomerName+" dicatat", notification.TypeSuccess)
			return created, nil
		case infra.IsKind(err, infra.KindValidation):
			return history.Entry{}, errs.Mark(err, errs.ErrValidationFailed)
		default:
			h.deps.Logger.Warn("remote history create failed, applying locally", "error", err.Error())
		}
	}

	h.replaceOrPrepend(entry)
	h.publish("add", entry, "local")

	msg := "Setoran " + entry.CustomerName + " dicatat"
	if fallback {
		msg += " (offline)"
		if _, err := h.deps.Queue.Enqueue(queue.ActionMoveToHistory, entry); err != nil {
			h.deps.Logger.Error("failed to enqueue offline history add", "error", err.Error())
		}
	}
	h.emit(ctx, msg, notification.TypeSuccess)

	return entry, nil
}

// Delete removes an entry from the ledger, returning the captured record.
func (h *History) Delete(ctx context.Context, id string) (history.Entry, error) {
	captured, err := h.find(ctx, id)
	if err != nil {
		return history.Entry{}, err
	}

	fallback := h.deps.Configured
	source := "local"
	if h.deps.remoteReady() {
		err := h.gateway.DeleteHistory(ctx, id)
		switch {
		case err == nil, infra.IsKind(err, infra.KindNotFound):
			fallback = false
			source = "remote"
		default:
			h.deps.Logger.Warn("remote history delete failed, removing locally", "error", err.Error())
		}
	}

	h.removeLocal(id)
	h.publish("delete", captured, source)

	msg := "Riwayat " + captured.CustomerName + " dihapus"
	if fallback {
		msg += " (offline)"
		if _, err := h.deps.Queue.Enqueue(queue.ActionDeleteHistory, deletePayload{ID: id}); err != nil {
			h.deps.Logger.Error("failed to enqueue offline history delete", "error", err.Error())
		}
	}
	h.emit(ctx, msg, notification.TypeInfo)

	return captured, nil
}

// List returns the ledger, refreshing from remote when reachable.
func (h *History) List(ctx context.Context) ([]history.Entry, error) {
	if h.deps.remoteReady() {
		remote, err := h.gateway.ListHistory(ctx)
		if err == nil {
			h.mu.Lock()
			if err := h.deps.KV.Set(historyKey, remote); err != nil {
				h.deps.Logger.Error("failed to persist history", "error", err.Error())
			}
			h.mu.Unlock()
			return remote, nil
		}
		h.deps.Logger.Warn("remote history list failed, serving local copy", "error", err.Error())
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	var local []history.Entry
	if _, err := h.deps.KV.Get(historyKey, &local); err != nil {
		return nil, errs.Wrap(err, "failed to load history")
	}
	return local, nil
}

// MoveToHistory copies the sale into the ledger under a fresh id. Deleting
// the originating sale is a separate mutation owned by the caller; the two
// are not a transaction.
func (h *History) MoveToHistory(ctx context.Context, salesID, depositDate string) (history.Entry, error) {
	s, err := h.sales.find(ctx, salesID)
	if err != nil {
		return history.Entry{}, err
	}

	entry, err := history.FromSale(
		ident.NewLocalID(h.deps.Clock), s, depositDate, clock.Millis(h.deps.Clock),
	)
	if err != nil {
		return history.Entry{}, errs.Mark(err, errs.ErrValidationFailed)
	}

	return h.Add(ctx, entry)
}

// DepositAll moves every open sale to the ledger with the given deposit
// date, deleting each moved sale. The batch stops at the first failure;
// moved sales are already gone from the active set, so re-running the whole
// batch converges.
func (h *History) DepositAll(ctx context.Context, depositDate string) (int, error) {
	open, err := h.sales.List(ctx)
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, s := range open {
		if _, err := h.MoveToHistory(ctx, s.ID, depositDate); err != nil {
			return moved, errs.Wrap(err, "deposit batch stopped at sale "+s.ID)
		}
		if _, err := h.sales.Delete(ctx, s.ID); err != nil {
			return moved, errs.Wrap(err, "deposit batch stopped at sale "+s.ID)
		}
		moved++
	}
	return moved, nil
}

func (h *History) find(ctx context.Context, id string) (history.Entry, error) {
	h.mu.Lock()
	var local []history.Entry
	_, err := h.deps.KV.Get(historyKey, &local)
	h.mu.Unlock()
	if err != nil {
		return history.Entry{}, errs.Wrap(err, "failed to load history")
	}
	for _, rec := range local {
		if rec.ID == id {
			return rec, nil
		}
	}

	if h.deps.remoteReady() {
		remote, err := h.gateway.ListHistory(ctx)
		if err == nil {
			for _, rec := range remote {
				if rec.ID == id {
					return rec, nil
				}
			}
		}
	}

	return history.Entry{}, errs.Mark(errs.New("history entry "+id+" not found"), errs.ErrNotFound)
}

func (h *History) replaceOrPrepend(entry history.Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var local []history.Entry
	if _, err := h.deps.KV.Get(historyKey, &local); err != nil {
		h.deps.Logger.Error("failed to load history", "error", err.Error())
	}

	replaced := false
	for i := range local {
		if local[i].ID == entry.ID {
			local[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		local = append([]history.Entry{entry}, local...)
	}

	if err := h.deps.KV.Set(historyKey, local); err != nil {
		h.deps.Logger.Error("failed to persist history", "error", err.Error())
	}
}

func (h *History) removeLocal(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var local []history.Entry
	if _, err := h.deps.KV.Get(historyKey, &local); err != nil {
		h.deps.Logger.Error("failed to load history", "error", err.Error())
	}

	kept := local[:0]
	for _, rec := range local {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}

	if err := h.deps.KV.Set(historyKey, kept); err != nil {
		h.deps.Logger.Error("failed to persist history", "error", err.Error())
	}
}

func (h *History) publish(action string, entry history.Entry, source string) {
	h.deps.Broadcaster.Publish(broadcast.Event{
		Type:   "history",
		Action: action,
		Record: entry,
		Source: source,
	})
}

func (h *History) emit(ctx context.Context, msg string, typ notification.Type) {
	h.notifs.Append(ctx, msg, typ)
	h.deps.Emitter.Notify(ctx, notifier.Notice{
		Title:    "Riwayat Setoran",
		Message:  msg,
		Severity: notifier.Severity(typ),
		Audience: []string{"operator"},
	})
}
