package monitor

import "time"

type Status struct {
	Store      string    `json:"store"`
	StoreOK    bool      `json:"store_ok"`
	Redis      bool      `json:"redis"`
	Outbox     bool      `json:"outbox"`
	OutboxSize int       `json:"outbox_size"`
	LastCheck  time.Time `json:"last_check"`
}
