package models

import "time"

// WebhookEvent is the idempotency ledger for billing deliveries. The provider
// may deliver the same event more than once; an event ID already present here
// is acknowledged without re-running its transition.
type WebhookEvent struct {
	EventID     string    `gorm:"primaryKey;size:255" json:"eventId"`
	EventType   string    `gorm:"size:100;not null" json:"eventType"`
	ProcessedAt time.Time `json:"processedAt"`
}
