package ident

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"sync"

	"voucherpos/internal/pkg/clock"
)

var (
	localMu   sync.Mutex
	lastLocal int64
)

// NewLocalID mints a device-local record id: the unix-millisecond timestamp
// as a decimal string, bumped past the previously issued value so batch
// mutations inside one millisecond still get distinct ids. Remote rows get
// uuids from the gateway instead.
func NewLocalID(c clock.Clock) string {
	localMu.Lock()
	defer localMu.Unlock()

	ms := c.Now().UnixMilli()
	if ms <= lastLocal {
		ms = lastLocal + 1
	}
	lastLocal = ms
	return strconv.FormatInt(ms, 10)
}

// NewActionID mints an offline queue entry id. The random suffix keeps
// entries distinct even when several mutations land in the same millisecond.
func NewActionID(c clock.Clock) string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return "offline_" + strconv.FormatInt(c.Now().UnixMilli(), 10) + "_" + hex.EncodeToString(b[:])
}
