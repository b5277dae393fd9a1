// Package queue defines the message payloads exchanged over RabbitMQ and
// the publisher and consumer that move them.
package queue

import "time"

const (
	// CardEventsQueue receives confirmed dashboard changes.
	CardEventsQueue = "card.events"
	// EngagementQueue carries views, likes and ratings from public card pages.
	EngagementQueue = "card.engagement"
)

// Card change types.
const (
	CardVisibilityChanged = "visibility_changed"
	CardDeleted           = "deleted"
)

// CardChangedEvent is published after the backend confirms a visibility
// change or a delete.  Downstream consumers use it to refresh search indexes
// or notify followers without querying the primary database.
type CardChangedEvent struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	CardID     string    `json:"card_id"`
	OwnerID    string    `json:"owner_id"`
	Public     *bool     `json:"public,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EngagementEvent records one interaction with a public card.  Rating is
// only meaningful for type "rate".
type EngagementEvent struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	CardID     string    `json:"card_id"`
	Rating     int       `json:"rating,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
