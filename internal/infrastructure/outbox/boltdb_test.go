package outbox_test

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/foodlink/internal/infrastructure/outbox"
)

func open(t *testing.T) *outbox.Store {
	t.Helper()
	store, err := outbox.Open(filepath.Join(t.TempDir(), "data", "outbox.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestParkBatchRemove(t *testing.T) {
	store := open(t)
	base := time.Now().Add(-time.Hour)
	require.NoError(t, store.Park(outbox.Entry{DonationID: "b", Payload: json.RawMessage(`{}`), ParkedAt: base.Add(time.Minute)}))
	require.NoError(t, store.Park(outbox.Entry{DonationID: "a", Payload: json.RawMessage(`{}`), ParkedAt: base}))

	entries, err := store.Batch(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].DonationID)
	assert.Equal(t, outbox.KindCollection, entries[0].Kind)
	assert.NotEmpty(t, entries[0].ID)

	require.NoError(t, store.Remove(entries[0]))
	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestRetryMovesEntryToBack(t *testing.T) {
	store := open(t)
	base := time.Now().Add(-time.Hour)
	require.NoError(t, store.Park(outbox.Entry{DonationID: "first", ParkedAt: base}))
	require.NoError(t, store.Park(outbox.Entry{DonationID: "second", ParkedAt: base.Add(time.Second)}))

	entries, err := store.Batch(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, store.Retry(entries[0], errors.New("broker down")))

	entries, err = store.Batch(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].DonationID)
	assert.Equal(t, "first", entries[1].DonationID)
	assert.Equal(t, 1, entries[1].Attempts)
	assert.Equal(t, "broker down", entries[1].LastError)
}

func TestPurge(t *testing.T) {
	store := open(t)
	require.NoError(t, store.Park(outbox.Entry{DonationID: "old", ParkedAt: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, store.Park(outbox.Entry{DonationID: "new"}))

	n, err := store.Purge(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := store.Batch(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].DonationID)
}
