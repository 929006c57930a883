package scheduler

import (
	"log/slog"
	"time"

	"github.com/clearcue/engine/occurrence"
)

// Options tunes how far ahead the coordinator schedules.
type Options struct {
	// Horizon is the forward window the desired set is computed over.
	// Zero selects the default of 30 days.
	Horizon time.Duration
	// Occurrence configures occurrence generation within the window.
	Occurrence occurrence.Options
	// Now supplies the current time; nil means time.Now. Tests inject a
	// fixed clock here.
	Now func() time.Time
}

// DefaultOptions provides sensible defaults for production use.
var DefaultOptions = Options{
	Horizon:    30 * 24 * time.Hour,
	Occurrence: occurrence.DefaultOptions,
}

// Config assembles a Coordinator's collaborators.
type Config struct {
	Store        Store
	Notifier     Notifier
	Entitlements Entitlements // nil means Unlimited
	Logger       *slog.Logger // nil discards logs
	Options      Options
}

func (o Options) normalized() Options {
	if o.Horizon <= 0 {
		o.Horizon = DefaultOptions.Horizon
	}
	if o.Occurrence == (occurrence.Options{}) {
		o.Occurrence = occurrence.DefaultOptions
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
