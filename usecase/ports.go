package usecase

import (
	"context"

	"github.com/fastygo/foodlink/domain"
)

// Geocoder resolves a free-form address into a point. Unresolvable input
// yields a domain GEOCODE_ERROR.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Point, error)
}

// Notifier publishes a collection confirmation for downstream mail delivery.
type Notifier interface {
	NotifyCollection(ctx context.Context, record domain.CollectionRecord) error
}

// NotificationOutbox parks collection records whose delivery failed so a
// background worker can retry them.
type NotificationOutbox interface {
	ParkCollection(ctx context.Context, record domain.CollectionRecord, cause error) error
}
