package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownFunc releases one component.
type ShutdownFunc func(ctx context.Context) error

// Stage groups components that stop together. Lower stages stop first:
// ingress is drained before background workers, workers before the
// publishers they feed, and publishers before the stores under them.
type Stage int

const (
	StageIngress Stage = iota + 1
	StageWorkers
	StagePublishers
	StageStorage
)

func (s Stage) String() string {
	switch s {
	case StageIngress:
		return "ingress"
	case StageWorkers:
		return "workers"
	case StagePublishers:
		return "publishers"
	case StageStorage:
		return "storage"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

type hook struct {
	name  string
	stage Stage
	seq   int
	fn    ShutdownFunc
}

// Config bounds shutdown. Timeout caps the whole sequence, HookTimeout each
// component.
type Config struct {
	Timeout     time.Duration
	HookTimeout time.Duration
}

// Manager stops the service's components in stage order on SIGINT/SIGTERM.
type Manager struct {
	cfg    Config
	logger *zap.Logger

	mu    sync.Mutex
	hooks []hook
	done  bool
}

func New(cfg Config, logger *zap.Logger) *Manager {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.HookTimeout <= 0 || cfg.HookTimeout > cfg.Timeout {
		cfg.HookTimeout = cfg.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{cfg: cfg, logger: logger}
}

// Register adds a component to a stage. Within a stage, components stop in
// reverse registration order.
func (m *Manager) Register(stage Stage, name string, fn ShutdownFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook{name: name, stage: stage, seq: len(m.hooks), fn: fn})
}

// Shutdown runs every hook once. A failed or slow hook is logged and does
// not keep later stages from running.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return nil
	}
	m.done = true
	hooks := append([]hook(nil), m.hooks...)
	m.mu.Unlock()

	sort.SliceStable(hooks, func(i, j int) bool {
		if hooks[i].stage != hooks[j].stage {
			return hooks[i].stage < hooks[j].stage
		}
		return hooks[i].seq > hooks[j].seq
	})

	var result error
	for _, h := range hooks {
		if err := m.run(ctx, h); err != nil {
			result = errors.Join(result, fmt.Errorf("%s: %w", h.name, err))
		}
	}
	return result
}

func (m *Manager) run(parent context.Context, h hook) error {
	ctx, cancel := context.WithTimeout(parent, m.cfg.HookTimeout)
	defer cancel()

	fields := []zap.Field{zap.String("component", h.name), zap.Stringer("stage", h.stage)}
	started := time.Now()

	errCh := make(chan error, 1)
	go func() { errCh <- h.fn(ctx) }()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		err = ctx.Err()
	}

	fields = append(fields, zap.Duration("elapsed", time.Since(started)))
	if err != nil {
		m.logger.Error("component shutdown failed", append(fields, zap.Error(err))...)
		return err
	}
	m.logger.Info("component stopped", fields...)
	return nil
}

// Listen cancels the application context on the first SIGINT or SIGTERM.
func (m *Manager) Listen(cancel context.CancelFunc) {
	if cancel == nil {
		return
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigCh)
		sig := <-sigCh
		m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()
}
