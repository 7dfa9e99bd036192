package services_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/internal/infrastructure/outbox"
	"github.com/fastygo/foodlink/internal/services"
)

type flakyNotifier struct {
	mu        sync.Mutex
	failures  int
	delivered []string
}

func (n *flakyNotifier) NotifyCollection(_ context.Context, record domain.CollectionRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failures > 0 {
		n.failures--
		return errors.New("broker unavailable")
	}
	n.delivered = append(n.delivered, record.DonationID)
	return nil
}

type offline struct{}

func (offline) IsOnline() bool { return false }

func newStore(t *testing.T) *outbox.Store {
	t.Helper()
	store, err := outbox.Open(filepath.Join(t.TempDir(), "outbox.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestParkedCollectionIsRedelivered(t *testing.T) {
	store := newStore(t)
	notifier := &flakyNotifier{failures: 1}
	p := services.NewOutboxProcessor(store, nil, notifier, nil, services.ProcessorConfig{Interval: time.Hour})
	bridge := services.NewOutboxBridge(p)

	record := domain.CollectionRecord{DonationID: "don-1", AgentEmail: "vik@example.com"}
	require.NoError(t, bridge.ParkCollection(context.Background(), record, errors.New("first attempt failed")))
	assert.Equal(t, 1, p.Size())

	require.NoError(t, p.Drain(context.Background()))
	assert.Equal(t, 1, p.Size())
	entries, err := store.Batch(1)
	require.NoError(t, err)
	assert.Equal(t, 1, entries[0].Attempts)

	require.NoError(t, p.Drain(context.Background()))
	assert.Equal(t, 0, p.Size())
	assert.Equal(t, []string{"don-1"}, notifier.delivered)
}

func TestEntryDroppedAfterMaxRetries(t *testing.T) {
	store := newStore(t)
	notifier := &flakyNotifier{failures: 100}
	p := services.NewOutboxProcessor(store, nil, notifier, nil, services.ProcessorConfig{Interval: time.Hour, MaxRetries: 2})

	require.NoError(t, p.Park(domain.CollectionRecord{DonationID: "don-2"}, nil))
	require.NoError(t, p.Drain(context.Background()))
	assert.Equal(t, 1, p.Size())
	require.NoError(t, p.Drain(context.Background()))
	assert.Equal(t, 0, p.Size())
	assert.Empty(t, notifier.delivered)
}

func TestDrainSkippedWhileOffline(t *testing.T) {
	store := newStore(t)
	notifier := &flakyNotifier{}
	p := services.NewOutboxProcessor(store, offline{}, notifier, nil, services.ProcessorConfig{Interval: time.Hour})

	require.NoError(t, p.Park(domain.CollectionRecord{DonationID: "don-3"}, nil))
	require.NoError(t, p.Drain(context.Background()))
	assert.Equal(t, 1, p.Size())
	assert.Empty(t, notifier.delivered)
}

func TestBridgeRejectsEmptyRecord(t *testing.T) {
	p := services.NewOutboxProcessor(newStore(t), nil, &flakyNotifier{}, nil, services.ProcessorConfig{})
	err := services.NewOutboxBridge(p).ParkCollection(context.Background(), domain.CollectionRecord{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}
