package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"voucherpos/internal/pkg/clock"
	"voucherpos/internal/pkg/config"
	"voucherpos/internal/pkg/errs"
	"voucherpos/internal/pkg/ident"
	"voucherpos/internal/sync/broadcast"
)

// Persisted keys in the local kv store.
const (
	queueKey    = "offline-action-queue"
	lastSyncKey = "last-sync-time"
)

type ActionType string

const (
	ActionAddSale       ActionType = "ADD_SALE"
	ActionUpdateSale    ActionType = "UPDATE_SALE"
	ActionDeleteSale    ActionType = "DELETE_SALE"
	ActionMoveToHistory ActionType = "MOVE_TO_HISTORY"
	ActionDeleteHistory ActionType = "DELETE_HISTORY"
)

// OfflineAction is one queued mutation awaiting replay against the remote
// backend. Only RetryCount ever changes after enqueue.
type OfflineAction struct {
	ID         string          `json:"id"`
	Type       ActionType      `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt int64           `json:"enqueuedAt"`
	RetryCount int             `json:"retryCount"`
}

// DrainResult summarizes one drain pass. Exhausted lists actions removed
// after hitting the retry ceiling — reported, never retried again.
type DrainResult struct {
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Exhausted []OfflineAction `json:"exhausted,omitempty"`
}

// SyncState is the observable snapshot backing the sync-status surface.
type SyncState struct {
	IsOnline       bool            `json:"isOnline"`
	LastSyncTime   *time.Time      `json:"lastSyncTime,omitempty"`
	PendingActions []OfflineAction `json:"pendingActions"`
	SyncInProgress bool            `json:"syncInProgress"`
}

// KV is the slice of the persistent key-value store the queue needs.
type KV interface {
	Get(key string, dest any) (bool, error)
	Set(key string, value any) error
}

// Executor replays one action against the Remote Data Gateway.
type Executor interface {
	Execute(ctx context.Context, action OfflineAction) error
}

// Online reports current connectivity (the Connectivity Monitor).
type Online interface {
	IsOnline() bool
}

// Queue is the durable FIFO of mutations that could not reach the remote
// backend. Replay preserves enqueue order; at most one drain pass runs at a
// time.
type Queue struct {
	mu         sync.Mutex
	actions    []OfflineAction
	lastSync   *time.Time
	inProgress bool

	drainMu sync.Mutex

	kv          KV
	executor    Executor
	online      Online
	broadcaster *broadcast.Broadcaster
	clock       clock.Clock
	logger      *slog.Logger
	maxRetries  int
}

func New(
	kv KV,
	executor Executor,
	online Online,
	broadcaster *broadcast.Broadcaster,
	c clock.Clock,
	logger *slog.Logger,
	cfg config.SyncConfig,
) (*Queue, error) {
	q := &Queue{
		kv:          kv,
		executor:    executor,
		online:      online,
		broadcaster: broadcaster,
		clock:       c,
		logger:      logger,
		maxRetries:  cfg.MaxRetries,
	}

	if _, err := kv.Get(queueKey, &q.actions); err != nil {
		return nil, errs.Wrap(err, "failed to load offline queue")
	}
	var last time.Time
	found, err := kv.Get(lastSyncKey, &last)
	if err != nil {
		return nil, errs.Wrap(err, "failed to load last sync time")
	}
	if found {
		q.lastSync = &last
	}

	return q, nil
}

// Enqueue appends a fresh action and persists the whole queue before
// returning. Identical repeated calls create distinct entries; dedup is the
// replayer's problem, not the queue's.
func (q *Queue) Enqueue(actionType ActionType, payload any) (OfflineAction, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return OfflineAction{}, errs.Wrap(err, "failed to serialize offline action payload")
	}

	action := OfflineAction{
		ID:         ident.NewActionID(q.clock),
		Type:       actionType,
		Payload:    raw,
		EnqueuedAt: q.clock.Now().UnixMilli(),
		RetryCount: 0,
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.actions = append(q.actions, action)
	if err := q.kv.Set(queueKey, q.actions); err != nil {
		// keep the in-memory entry; the next persist retries the write
		q.logger.Error("failed to persist offline queue", "error", err.Error())
	}

	q.logger.Info("queued offline action", "type", string(actionType), "pending", len(q.actions))
	return action, nil
}

// Drain replays all currently queued actions in enqueue order. No-op when
// there is no executor, when a pass is already running, when offline, or
// when the queue is empty — concurrent callers (auto timer, connectivity
// transition, manual trigger) race and only the first proceeds.
func (q *Queue) Drain(ctx context.Context) {
	if q.executor == nil {
		// local-only mode: a queue persisted by a previously configured
		// run stays intact instead of burning its retries
		return
	}
	if !q.drainMu.TryLock() {
		return
	}
	defer q.drainMu.Unlock()

	if q.online != nil && !q.online.IsOnline() {
		return
	}

	q.mu.Lock()
	if len(q.actions) == 0 {
		q.mu.Unlock()
		return
	}
	q.inProgress = true
	snapshot := make([]OfflineAction, len(q.actions))
	copy(snapshot, q.actions)
	q.mu.Unlock()

	q.logger.Info("draining offline queue", "pending", len(snapshot))

	var result DrainResult
	for _, action := range snapshot {
		err := q.executor.Execute(ctx, action)
		if err == nil {
			q.remove(action.ID)
			result.Succeeded++
			continue
		}

		result.Failed++
		if exhausted, ok := q.bumpRetry(action.ID); ok {
			result.Exhausted = append(result.Exhausted, exhausted)
			q.logger.Warn("offline action exhausted retries",
				"id", exhausted.ID, "type", string(exhausted.Type), "error", err.Error())
		} else {
			q.logger.Warn("offline action replay failed, will retry",
				"id", action.ID, "type", string(action.Type), "error", err.Error())
		}
	}

	now := q.clock.Now()
	q.mu.Lock()
	q.lastSync = &now
	q.inProgress = false
	if err := q.kv.Set(queueKey, q.actions); err != nil {
		q.logger.Error("failed to persist offline queue", "error", err.Error())
	}
	if err := q.kv.Set(lastSyncKey, now); err != nil {
		q.logger.Error("failed to persist last sync time", "error", err.Error())
	}
	q.mu.Unlock()

	q.logger.Info("drain finished", "succeeded", result.Succeeded, "failed", result.Failed)
	q.broadcaster.Publish(broadcast.Event{
		Type:   "sync",
		Action: "drain",
		Record: result,
		Source: "offline-queue",
	})
}

func (q *Queue) remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.actions[:0]
	for _, a := range q.actions {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	q.actions = kept
}

// bumpRetry increments the live entry's retry count. When the count reaches
// the ceiling the entry is removed and returned as permanently failed.
func (q *Queue) bumpRetry(id string) (OfflineAction, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.actions {
		if q.actions[i].ID != id {
			continue
		}
		q.actions[i].RetryCount++
		if q.actions[i].RetryCount >= q.maxRetries {
			exhausted := q.actions[i]
			q.actions = append(q.actions[:i], q.actions[i+1:]...)
			return exhausted, true
		}
		return OfflineAction{}, false
	}
	return OfflineAction{}, false
}

// Clear empties the queue and persists immediately. Manual recovery only.
func (q *Queue) Clear() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.actions = nil
	if err := q.kv.Set(queueKey, []OfflineAction{}); err != nil {
		return errs.Wrap(err, "failed to persist cleared queue")
	}
	q.logger.Info("offline queue cleared")
	return nil
}

func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

func (q *Queue) State() SyncState {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := make([]OfflineAction, len(q.actions))
	copy(pending, q.actions)

	online := true
	if q.online != nil {
		online = q.online.IsOnline()
	}

	return SyncState{
		IsOnline:       online,
		LastSyncTime:   q.lastSync,
		PendingActions: pending,
		SyncInProgress: q.inProgress,
	}
}

// RunAutoDrain is the primary sync mechanism: every interval it drains when
// online and non-empty. Connectivity transitions are only a responsiveness
// shortcut on top of this.
func (q *Queue) RunAutoDrain(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if q.online != nil && q.online.IsOnline() && q.PendingCount() > 0 {
				q.Drain(ctx)
			}
		}
	}
}
