// Package notify publishes collection confirmations for downstream mailers.
package notify

import (
	"encoding/json"
	"time"

	"github.com/fastygo/foodlink/domain"
)

// EventCollected is the event name carried by every collection message.
const EventCollected = "donation.collected"

// Message is the wire body shared by all brokers.
type Message struct {
	Event      string                  `json:"event"`
	OccurredAt time.Time               `json:"occurred_at"`
	Collection domain.CollectionRecord `json:"collection"`
}

// Encode wraps the record into a Message and marshals it.
func Encode(record domain.CollectionRecord) ([]byte, error) {
	return json.Marshal(Message{
		Event:      EventCollected,
		OccurredAt: time.Now().UTC(),
		Collection: record,
	})
}
