package store

import (
	"context"
	"sync"

	"voucherpos/internal/domain/notification"
	"voucherpos/internal/domain/sale"
	"voucherpos/internal/infra"
	"voucherpos/internal/notifier"
	"voucherpos/internal/pkg/clock"
	"voucherpos/internal/pkg/errs"
	"voucherpos/internal/pkg/ident"
	"voucherpos/internal/sync/broadcast"
	"voucherpos/internal/sync/queue"
)

// SaleInput is the caller-supplied part of a new sale. Pricing is derived
// from the tier, never accepted from the caller.
type SaleInput struct {
	Date         string
	CustomerName string
	PackageTier  string
	VoucherCode  string
}

// Sales is the mutation/query surface for active voucher sales. Every
// mutation is dual-path: remote-first when a backend is configured and
// reachable, optimistic local apply otherwise. A remote transport failure is
// absorbed by the fallback and never reaches the caller.
type Sales struct {
	deps    Deps
	gateway SalesGateway
	notifs  *Notifications

	mu sync.Mutex // serializes read-modify-write of the sales document
}

func NewSales(deps Deps, gateway SalesGateway, notifs *Notifications) *Sales {
	return &Sales{deps: deps, gateway: gateway, notifs: notifs}
}

// Add creates a sale and returns it synchronously; the caller never blocks
// on remote confirmation beyond the first attempt.
func (s *Sales) Add(ctx context.Context, in SaleInput) (sale.Sale, error) {
	tier, err := sale.NewPackageTier(in.PackageTier)
	if err != nil {
		return sale.Sale{}, errs.Mark(err, errs.ErrValidationFailed)
	}
	candidate, err := sale.NewSale(
		ident.NewLocalID(s.deps.Clock),
		in.Date, in.CustomerName, tier, in.VoucherCode,
		clock.Millis(s.deps.Clock),
	)
	if err != nil {
		return sale.Sale{}, errs.Mark(err, errs.ErrValidationFailed)
	}

	// configured-but-offline skips the remote attempt and queues straight away
	fallback := s.deps.Configured
	if s.deps.remoteReady() {
		created, err := s.gateway.CreateSale(ctx, candidate)
		switch {
		case err == nil:
			s.replaceOrPrepend(created)
			s.publish("add", created, "remote")
			s.emit(ctx, "Penjualan "+created.CustomerName+" disimpan", notification.TypeSuccess)
			return created, nil
		case infra.IsKind(err, infra.KindValidation):
			return sale.Sale{}, errs.Mark(err, errs.ErrValidationFailed)
		default:
			s.deps.Logger.Warn("remote create failed, applying locally", "error", err.Error())
		}
	}

	// 楽観的ローカル適用。永続化の完了を待たずに見える状態になる
	s.replaceOrPrepend(candidate)
	s.publish("add", candidate, "local")

	msg := "Penjualan " + candidate.CustomerName + " disimpan"
	if fallback {
		msg += " (offline)"
		if _, err := s.deps.Queue.Enqueue(queue.ActionAddSale, candidate); err != nil {
			s.deps.Logger.Error("failed to enqueue offline add", "error", err.Error())
		}
	}
	s.emit(ctx, msg, notification.TypeSuccess)

	return candidate, nil
}

// Update merges a sparse partial onto the stored sale. Fields absent from
// the partial keep their current value.
func (s *Sales) Update(ctx context.Context, id string, partial sale.Partial) (sale.Sale, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return sale.Sale{}, err
	}

	merged, err := current.Apply(partial, clock.Millis(s.deps.Clock))
	if err != nil {
		return sale.Sale{}, errs.Mark(err, errs.ErrValidationFailed)
	}

	fallback := s.deps.Configured
	if s.deps.remoteReady() {
		updated, err := s.gateway.UpdateSale(ctx, id, merged)
		switch {
		case err == nil:
			s.replaceOrPrepend(updated)
			s.publish("update", updated, "remote")
			s.emit(ctx, "Penjualan "+updated.CustomerName+" diperbarui", notification.TypeSuccess)
			return updated, nil
		case infra.IsKind(err, infra.KindValidation):
			return sale.Sale{}, errs.Mark(err, errs.ErrValidationFailed)
		case infra.IsKind(err, infra.KindNotFound):
			// ローカル専用idのレコードはリモートに存在しない。ローカルへフォールバック
			s.deps.Logger.Warn("sale missing remotely, updating locally", "id", id)
		default:
			s.deps.Logger.Warn("remote update failed, applying locally", "error", err.Error())
		}
	}

	s.replaceOrPrepend(merged)
	s.publish("update", merged, "local")

	msg := "Penjualan " + merged.CustomerName + " diperbarui"
	if fallback {
		msg += " (offline)"
		if _, err := s.deps.Queue.Enqueue(queue.ActionUpdateSale, merged); err != nil {
			s.deps.Logger.Error("failed to enqueue offline update", "error", err.Error())
		}
	}
	s.emit(ctx, msg, notification.TypeSuccess)

	return merged, nil
}

// Delete removes a sale and returns the captured record so downstream
// messaging can reference it after removal.
func (s *Sales) Delete(ctx context.Context, id string) (sale.Sale, error) {
	captured, err := s.find(ctx, id)
	if err != nil {
		return sale.Sale{}, err
	}

	fallback := s.deps.Configured
	source := "local"
	if s.deps.remoteReady() {
		err := s.gateway.DeleteSale(ctx, id)
		switch {
		case err == nil, infra.IsKind(err, infra.KindNotFound):
			// リモート側に無いのは既に収束している状態として扱う
			fallback = false
			source = "remote"
		default:
			s.deps.Logger.Warn("remote delete failed, removing locally", "error", err.Error())
		}
	}

	s.removeLocal(id)
	s.publish("delete", captured, source)

	msg := "Penjualan " + captured.CustomerName + " dihapus"
	if fallback {
		msg += " (offline)"
		if _, err := s.deps.Queue.Enqueue(queue.ActionDeleteSale, deletePayload{ID: id}); err != nil {
			s.deps.Logger.Error("failed to enqueue offline delete", "error", err.Error())
		}
	}
	s.emit(ctx, msg, notification.TypeInfo)

	return captured, nil
}

// List returns all active sales, refreshing the local document from the
// remote backend when it is reachable. A transport failure silently falls
// back to the local copy.
func (s *Sales) List(ctx context.Context) ([]sale.Sale, error) {
	if s.deps.remoteReady() {
		remote, err := s.gateway.ListSales(ctx)
		if err == nil {
			s.mu.Lock()
			if err := s.deps.KV.Set(salesKey, remote); err != nil {
				s.deps.Logger.Error("failed to persist sales", "error", err.Error())
			}
			s.mu.Unlock()
			return remote, nil
		}
		s.deps.Logger.Warn("remote list failed, serving local copy", "error", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var local []sale.Sale
	if _, err := s.deps.KV.Get(salesKey, &local); err != nil {
		return nil, errs.Wrap(err, "failed to load sales")
	}
	return local, nil
}

// find looks the sale up locally first, then remotely. Absent from both is
// NotFound.
func (s *Sales) find(ctx context.Context, id string) (sale.Sale, error) {
	s.mu.Lock()
	var local []sale.Sale
	_, err := s.deps.KV.Get(salesKey, &local)
	s.mu.Unlock()
	if err != nil {
		return sale.Sale{}, errs.Wrap(err, "failed to load sales")
	}
	for _, rec := range local {
		if rec.ID == id {
			return rec, nil
		}
	}

	if s.deps.remoteReady() {
		remote, err := s.gateway.ListSales(ctx)
		if err == nil {
			for _, rec := range remote {
				if rec.ID == id {
					return rec, nil
				}
			}
		}
	}

	return sale.Sale{}, errs.Mark(errs.New("sale "+id+" not found"), errs.ErrNotFound)
}

// replaceOrPrepend writes rec into the local document: in place when the id
// already exists, at the head otherwise (newest first).
func (s *Sales) replaceOrPrepend(rec sale.Sale) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var local []sale.Sale
	if _, err := s.deps.KV.Get(salesKey, &local); err != nil {
		s.deps.Logger.Error("failed to load sales", "error", err.Error())
	}

	replaced := false
	for i := range local {
		if local[i].ID == rec.ID {
			local[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		local = append([]sale.Sale{rec}, local...)
	}

	if err := s.deps.KV.Set(salesKey, local); err != nil {
		s.deps.Logger.Error("failed to persist sales", "error", err.Error())
	}
}

func (s *Sales) removeLocal(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var local []sale.Sale
	if _, err := s.deps.KV.Get(salesKey, &local); err != nil {
		s.deps.Logger.Error("failed to load sales", "error", err.Error())
	}

	kept := local[:0]
	for _, rec := range local {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}

	if err := s.deps.KV.Set(salesKey, kept); err != nil {
		s.deps.Logger.Error("failed to persist sales", "error", err.Error())
	}
}

func (s *Sales) publish(action string, rec sale.Sale, source string) {
	s.deps.Broadcaster.Publish(broadcast.Event{
		Type:   "sales",
		Action: action,
		Record: rec,
		Source: source,
	})
}

// emit appends to the notification ring and hands the copy to the feedback
// emitter. Both are side effects; neither can fail the mutation.
func (s *Sales) emit(ctx context.Context, msg string, typ notification.Type) {
	s.notifs.Append(ctx, msg, typ)
	s.deps.Emitter.Notify(ctx, notifier.Notice{
		Title:    "Penjualan",
		Message:  msg,
		Severity: notifier.Severity(typ),
		Audience: []string{"operator"},
	})
}

// deletePayload is the queued form of a delete: the id is all the replayer
// needs.
type deletePayload struct {
	ID string `json:"id"`
}
