package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) hook(name string, err error) ShutdownFunc {
	return func(context.Context) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.order = append(r.order, name)
		return err
	}
}

func TestShutdownRunsStagesInOrder(t *testing.T) {
	rec := &recorder{}
	m := New(Config{Timeout: time.Second}, nil)

	m.Register(StageStorage, "postgres", rec.hook("postgres", nil))
	m.Register(StageStorage, "redis", rec.hook("redis", nil))
	m.Register(StageWorkers, "monitor", rec.hook("monitor", nil))
	m.Register(StagePublishers, "notifier", rec.hook("notifier", nil))
	m.Register(StageWorkers, "outbox_processor", rec.hook("outbox_processor", nil))
	m.Register(StageIngress, "http_server", rec.hook("http_server", nil))
	m.Register(StageIngress, "ignored", nil)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"http_server", "outbox_processor", "monitor", "notifier", "redis", "postgres"}, rec.order)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Len(t, rec.order, 6, "hooks run once")
}

func TestShutdownContinuesPastFailures(t *testing.T) {
	rec := &recorder{}
	m := New(Config{Timeout: time.Second, HookTimeout: 20 * time.Millisecond}, nil)

	m.Register(StageStorage, "outbox", rec.hook("outbox", nil))
	m.Register(StagePublishers, "notifier", rec.hook("notifier", errors.New("broker gone")))
	m.Register(StageWorkers, "stuck", func(ctx context.Context) error {
		<-make(chan struct{})
		return nil
	})

	err := m.Shutdown(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorContains(t, err, "stuck")
	assert.ErrorContains(t, err, "notifier: broker gone")
	assert.Equal(t, []string{"notifier", "outbox"}, rec.order)
}

func TestNewDefaults(t *testing.T) {
	m := New(Config{HookTimeout: time.Hour}, nil)
	assert.Equal(t, 15*time.Second, m.cfg.Timeout)
	assert.Equal(t, 15*time.Second, m.cfg.HookTimeout)
	assert.Equal(t, "workers", StageWorkers.String())
}
