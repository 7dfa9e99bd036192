package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// KindCollection marks an undelivered collection confirmation.
const KindCollection = "collection"

// Entry is a notification parked until the broker accepts it.
type Entry struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	DonationID string          `json:"donation_id"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	LastError  string          `json:"last_error,omitempty"`
	ParkedAt   time.Time       `json:"parked_at"`

	key []byte
}

func (e *Entry) normalize() {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Kind == "" {
		e.Kind = KindCollection
	}
	if e.ParkedAt.IsZero() {
		e.ParkedAt = time.Now()
	}
}
