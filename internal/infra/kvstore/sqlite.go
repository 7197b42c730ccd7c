package kvstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"voucherpos/internal/infra"
	"voucherpos/internal/pkg/errs"

	_ "github.com/mattn/go-sqlite3" // sqlite driver
)

// Store is the device-local persistent key-value store. Each logical key
// holds one JSON document (the sales list, the history list, the offline
// queue, ...); every write replaces the whole value, mirroring the
// read-modify-write granularity the rest of the system assumes.
type Store struct {
	db *sql.DB
}

func New(path string) (*Store, func(), error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, nil, errs.Wrap(err, "failed to open local store")
	}

	// Single writer: the kv store is shared by all record stores and the
	// offline queue, all on one device.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, nil, errs.Wrap(err, "failed to create local schema")
	}

	cleanup := func() {
		_ = db.Close()
	}

	return &Store{db: db}, cleanup, nil
}

// Get unmarshals the value stored under key into dest. The second return is
// false when the key has never been written.
func (s *Store) Get(key string, dest any) (bool, error) {
	var raw []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, infra.WrapRepoErr(infra.KindDBFailure, "failed to read key "+key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, infra.WrapRepoErr(infra.KindDBFailure, "corrupt value under key "+key, err)
	}
	return true, nil
}

// Set serializes value and durably replaces the document under key before
// returning.
func (s *Store) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to serialize key "+key, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, raw, time.Now().UTC())
	if err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to write key "+key, err)
	}
	return nil
}
