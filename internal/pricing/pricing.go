// Package pricing computes the fee for a completed stay. It is a pure
// function of elapsed minutes: no clock, no I/O, no state, so the preview
// shown before checkout and the committed charge can never disagree.
package pricing

import (
	"fmt"
)

// Policy names a fee schedule.
type Policy string

const (
	// PolicyGraceTier charges flat per-tier amounts with a grace window
	// before each boundary. This is the schedule the venue runs today.
	PolicyGraceTier Policy = "grace_tier"

	// PolicyProrated charges linearly within the half hour, stepping to the
	// hourly rate from the first full hour.
	PolicyProrated Policy = "prorated"
)

// Config selects the schedule and its rates. Amounts are whole currency
// units (COP has no usable fractional unit).
type Config struct {
	Policy       Policy `env:"POLICY" envDefault:"grace_tier"`
	HalfHourRate int64  `env:"HALF_HOUR_RATE" envDefault:"30000"`
	HourRate     int64  `env:"HOUR_RATE" envDefault:"50000"`
	GraceMinutes int    `env:"GRACE_MINUTES" envDefault:"10"`
}

// Engine prices a stay under the configured schedule.
type Engine struct {
	policy   Policy
	halfHour int64
	hour     int64
	grace    int
}

// New validates the configuration and builds an Engine.
func New(cfg Config) (*Engine, error) {
	switch cfg.Policy {
	case PolicyGraceTier, PolicyProrated:
	default:
		return nil, fmt.Errorf("unknown pricing policy %q", cfg.Policy)
	}
	if cfg.HalfHourRate <= 0 || cfg.HourRate <= 0 {
		return nil, fmt.Errorf("pricing rates must be positive, got half-hour=%d hour=%d", cfg.HalfHourRate, cfg.HourRate)
	}
	if cfg.HourRate < cfg.HalfHourRate {
		return nil, fmt.Errorf("hour rate %d below half-hour rate %d", cfg.HourRate, cfg.HalfHourRate)
	}
	if cfg.GraceMinutes < 0 {
		return nil, fmt.Errorf("grace minutes must not be negative, got %d", cfg.GraceMinutes)
	}
	return &Engine{
		policy:   cfg.Policy,
		halfHour: cfg.HalfHourRate,
		hour:     cfg.HourRate,
		grace:    cfg.GraceMinutes,
	}, nil
}

// Policy reports the schedule this engine runs.
func (e *Engine) Policy() Policy { return e.policy }

// Price maps elapsed minutes to the amount due. Zero or negative duration is
// a no-op stay and costs nothing.
func (e *Engine) Price(minutes int) int64 {
	if minutes <= 0 {
		return 0
	}
	if e.policy == PolicyProrated {
		return e.prorated(minutes)
	}
	return e.graceTier(minutes)
}

// graceTier: flat tier amounts, each boundary extended by the grace window.
// Past the hour boundary every started half-hour block bills at the
// half-hour rate.
func (e *Engine) graceTier(minutes int) int64 {
	if minutes <= 30+e.grace {
		return e.halfHour
	}
	if minutes <= 60+e.grace {
		return e.hour
	}
	overflow := minutes - (60 + e.grace)
	blocks := ceilDiv(int64(overflow), 30)
	return e.hour + blocks*e.halfHour
}

// prorated: linear within the first half hour, linear between the half-hour
// and hour rates up to the hour, then full hours plus a prorated remainder.
func (e *Engine) prorated(minutes int) int64 {
	d := int64(minutes)
	switch {
	case minutes < 30:
		return ceilDiv(d*e.halfHour, 30)
	case minutes < 60:
		return e.halfHour + ceilDiv((d-30)*(e.hour-e.halfHour), 30)
	default:
		return (d/60)*e.hour + ceilDiv((d%60)*e.hour, 60)
	}
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
