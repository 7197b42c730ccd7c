//go:build unit

package kvstore_test

import (
	"testing"

	"voucherpos/internal/infra/kvstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *kvstore.Store {
	t.Helper()
	store, cleanup, err := kvstore.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return store
}

func TestStore(t *testing.T) {
	type record struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	t.Run("未書き込みキーはabsent", func(t *testing.T) {
		store := newTestStore(t)

		var out []record
		found, err := store.Get("wifi-voucher-sales", &out)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("ロスレスに往復する", func(t *testing.T) {
		store := newTestStore(t)

		in := []record{{ID: "1718000000000", Name: "Budi"}, {ID: "2", Name: "Siti"}}
		require.NoError(t, store.Set("wifi-voucher-sales", in))

		var out []record
		found, err := store.Get("wifi-voucher-sales", &out)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, in, out)
	})

	t.Run("同一キーへの書き込みは全置換", func(t *testing.T) {
		store := newTestStore(t)

		require.NoError(t, store.Set("offline-action-queue", []record{{ID: "a"}}))
		require.NoError(t, store.Set("offline-action-queue", []record{{ID: "b"}, {ID: "c"}}))

		var out []record
		found, err := store.Get("offline-action-queue", &out)
		require.NoError(t, err)
		require.True(t, found)
		require.Len(t, out, 2)
		assert.Equal(t, "b", out[0].ID)
	})
}
