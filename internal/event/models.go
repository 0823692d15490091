// Package event records committed lifecycle transitions. Events feed a
// durable archive (statistics, reconciliation) and, when configured, a Kafka
// topic for downstream consumers. The pipeline is fire-and-forget: a full
// queue drops events rather than slowing down a checkout.
package event

import (
	"time"
)

// Type labels a lifecycle transition.
type Type string

const (
	TypeSessionStarted Type = "session_started"
	TypeSessionClosed  Type = "session_closed"
	TypeSessionPaid    Type = "session_paid"
)

// Event is one committed lifecycle transition.
type Event struct {
	ID              string    `json:"id"`
	Type            Type      `json:"type"`
	SessionID       string    `json:"sessionId"`
	IdentityKey     string    `json:"identityKey"`
	ChildName       string    `json:"childName"`
	DurationMinutes *int      `json:"durationMinutes,omitempty"`
	Amount          *int64    `json:"amount,omitempty"`
	OccurredAt      time.Time `json:"occurredAt"`
}
