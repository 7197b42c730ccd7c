package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// changeChannel is the NOTIFY channel the migration's row triggers publish
// to. Payloads are one JSON document per changed row.
const changeChannel = "voucherpos_changes"

// ChangeEvent is one confirmed mutation observed on the remote backend.
// EventType is insert/update/delete; Record is the row as JSON (absent for
// deletes, which carry only the id).
type ChangeEvent struct {
	Table     string          `json:"table"`
	EventType string          `json:"event_type"`
	ID        string          `json:"id"`
	Record    json.RawMessage `json:"record"`
}

// Changefeed consumes the backend's change stream over LISTEN/NOTIFY and
// hands each event to a single handler (the record stores' reconciler).
type Changefeed struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewChangefeed(pool *pgxpool.Pool, logger *slog.Logger) *Changefeed {
	return &Changefeed{pool: pool, logger: logger}
}

// Run blocks until ctx is done, reconnecting with a flat backoff whenever
// the listening connection drops (the device going offline is normal
// operation, not an error).
func (f *Changefeed) Run(ctx context.Context, handler func(ChangeEvent)) {
	const retryDelay = 5 * time.Second

	for {
		if err := f.listen(ctx, handler); err != nil && ctx.Err() == nil {
			f.logger.Warn("change feed disconnected, retrying", "error", err.Error())
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}

func (f *Changefeed) listen(ctx context.Context, handler func(ChangeEvent)) error {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+changeChannel); err != nil {
		return err
	}

	f.logger.Info("change feed connected", "channel", changeChannel)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var event ChangeEvent
		if err := json.Unmarshal([]byte(n.Payload), &event); err != nil {
			f.logger.Warn("discarding malformed change event", "error", err.Error())
			continue
		}
		handler(event)
	}
}
