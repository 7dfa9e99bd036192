package services

import (
	"context"

	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/usecase"
)

// OutboxBridge exposes the processor through the use case port.
type OutboxBridge struct {
	processor *OutboxProcessor
}

func NewOutboxBridge(processor *OutboxProcessor) *OutboxBridge {
	return &OutboxBridge{processor: processor}
}

func (b *OutboxBridge) ParkCollection(_ context.Context, record domain.CollectionRecord, cause error) error {
	if b.processor == nil || record.DonationID == "" {
		return domain.ErrInvalidPayload
	}
	return b.processor.Park(record, cause)
}

var _ usecase.NotificationOutbox = (*OutboxBridge)(nil)
