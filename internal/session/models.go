// Package session owns the visit lifecycle: a session is created at
// check-in, accrues time while active, is closed exactly once at check-out
// with a computed duration and amount, and is finally marked paid. Closed
// records are kept forever for history and statistics.
package session

import "time"

// Session is one continuous stay from check-in to check-out.
//
// EndedAt, DurationMinutes and AmountDue are nil while the session is
// active and are set together, exactly once, when it closes. Active is the
// sole field the directory uses for "currently playing" queries.
type Session struct {
	ID              string     `json:"id"`
	IdentityKey     string     `json:"identityKey"`
	ChildName       string     `json:"childName"`
	GuardianName    string     `json:"guardianName"`
	StartedAt       time.Time  `json:"startedAt"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
	DurationMinutes *int       `json:"durationMinutes,omitempty"`
	AmountDue       *int64     `json:"amountDue,omitempty"`
	Active          bool       `json:"active"`
	Paid            bool       `json:"paid"`
}

// Receipt is what checkout (and its preview) hands to the display surface.
type Receipt struct {
	SessionID       string `json:"sessionId"`
	DurationMinutes int    `json:"durationMinutes"`
	Amount          int64  `json:"amount"`
}
