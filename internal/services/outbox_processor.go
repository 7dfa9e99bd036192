package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/internal/infrastructure/outbox"
	"github.com/fastygo/foodlink/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how often the outbox is drained and how long
// entries are kept.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// OutboxProcessor redelivers parked collection confirmations.
type OutboxProcessor struct {
	store    *outbox.Store
	monitor  ConnectionHealth
	notifier usecase.Notifier
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      ProcessorConfig
}

func NewOutboxProcessor(
	store *outbox.Store,
	monitor ConnectionHealth,
	notifier usecase.Notifier,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *OutboxProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 10
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &OutboxProcessor{
		store:    store,
		monitor:  monitor,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = p.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := p.Drain(ctx); err != nil {
			p.logger.Error("outbox drain failed", zap.Error(err))
		}
	})
	_, _ = p.cron.AddFunc("@hourly", func() {
		n, err := p.store.Purge(time.Now().Add(-cfg.Retention))
		if err != nil {
			p.logger.Error("outbox purge failed", zap.Error(err))
			return
		}
		if n > 0 {
			p.logger.Warn("expired outbox entries purged", zap.Int("count", n))
		}
	})

	return p
}

// Start launches the cron scheduler.
func (p *OutboxProcessor) Start() {
	if p == nil || p.cron == nil {
		return
	}
	p.cron.Start()
	p.logger.Info("outbox processor started")
}

// Stop waits for a running drain to finish or for ctx to expire.
func (p *OutboxProcessor) Stop(ctx context.Context) {
	if p == nil || p.cron == nil {
		return
	}
	stopCtx := p.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	p.logger.Info("outbox processor stopped")
}

// Park stores a collection record for later redelivery.
func (p *OutboxProcessor) Park(record domain.CollectionRecord, cause error) error {
	if p == nil || p.store == nil {
		return fmt.Errorf("outbox processor not configured")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	entry := outbox.Entry{
		Kind:       outbox.KindCollection,
		DonationID: record.DonationID,
		Payload:    payload,
	}
	if cause != nil {
		entry.LastError = cause.Error()
	}
	return p.store.Park(entry)
}

// Drain attempts one delivery per parked entry.
func (p *OutboxProcessor) Drain(ctx context.Context) error {
	if p == nil || p.store == nil || p.notifier == nil {
		return nil
	}
	if p.monitor != nil && !p.monitor.IsOnline() {
		p.logger.Debug("skipping outbox drain (offline)")
		return nil
	}

	entries, err := p.store.Batch(p.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := p.deliver(ctx, entry)
		if err == nil {
			if err := p.store.Remove(entry); err != nil {
				p.logger.Warn("failed to purge delivered outbox entry", zap.Error(err))
			}
			p.logger.Info("parked notification delivered",
				zap.String("donation_id", entry.DonationID),
				zap.Int("attempts", entry.Attempts+1))
			continue
		}

		p.logger.Warn("outbox redelivery failed",
			zap.String("entry_id", entry.ID),
			zap.String("donation_id", entry.DonationID),
			zap.Error(err))

		if entry.Attempts+1 >= p.cfg.MaxRetries {
			p.logger.Error("dropping outbox entry (max retries reached)",
				zap.String("donation_id", entry.DonationID),
				zap.Error(err))
			_ = p.store.Remove(entry)
			continue
		}
		if err := p.store.Retry(entry, err); err != nil {
			p.logger.Error("failed to requeue outbox entry", zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of parked entries.
func (p *OutboxProcessor) Size() int {
	if p == nil || p.store == nil {
		return 0
	}
	size, err := p.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (p *OutboxProcessor) deliver(ctx context.Context, entry outbox.Entry) error {
	switch entry.Kind {
	case outbox.KindCollection:
		var record domain.CollectionRecord
		if err := json.Unmarshal(entry.Payload, &record); err != nil {
			return err
		}
		return p.notifier.NotifyCollection(ctx, record)
	default:
		return fmt.Errorf("unsupported outbox kind %s", entry.Kind)
	}
}
