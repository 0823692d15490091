package event

import (
	"time"

	"github.com/google/uuid"

	"playpass/internal/platform/metrics"
	"playpass/internal/session"
)

// Recorder turns committed session transitions into events and hands them to
// the worker through a bounded queue. Sends never block: when the queue is
// full the event is dropped and counted, because a slow archive must not
// stall a checkout.
type Recorder struct {
	inbox   chan Event
	metrics *metrics.Metrics
	clock   func() time.Time
}

func NewRecorder(buffer int, m *metrics.Metrics) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	return &Recorder{
		inbox:   make(chan Event, buffer),
		metrics: m,
		clock:   time.Now,
	}
}

// Inbox exposes the queue for the worker to consume.
func (r *Recorder) Inbox() <-chan Event { return r.inbox }

func (r *Recorder) SessionStarted(s session.Session) {
	r.emit(Event{
		Type:        TypeSessionStarted,
		SessionID:   s.ID,
		IdentityKey: s.IdentityKey,
		ChildName:   s.ChildName,
	})
}

func (r *Recorder) SessionClosed(s session.Session) {
	r.emit(Event{
		Type:            TypeSessionClosed,
		SessionID:       s.ID,
		IdentityKey:     s.IdentityKey,
		ChildName:       s.ChildName,
		DurationMinutes: s.DurationMinutes,
		Amount:          s.AmountDue,
	})
}

func (r *Recorder) SessionPaid(s session.Session) {
	r.emit(Event{
		Type:            TypeSessionPaid,
		SessionID:       s.ID,
		IdentityKey:     s.IdentityKey,
		ChildName:       s.ChildName,
		DurationMinutes: s.DurationMinutes,
		Amount:          s.AmountDue,
	})
}

func (r *Recorder) emit(e Event) {
	e.ID = uuid.NewString()
	e.OccurredAt = r.clock().UTC()
	select {
	case r.inbox <- e:
	default:
		r.metrics.IncEventsDropped()
	}
}
