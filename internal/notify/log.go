package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/foodlink/domain"
)

// Log writes collection records to the application log. Used when no
// broker is configured.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

func (l *Log) NotifyCollection(_ context.Context, record domain.CollectionRecord) error {
	l.logger.Info("collection confirmed",
		zap.String("donation_id", record.DonationID),
		zap.String("donor_email", record.DonorEmail),
		zap.String("agent_email", record.AgentEmail),
		zap.Time("collection_time", record.CollectionTime))
	return nil
}

func (l *Log) Close() error { return nil }
