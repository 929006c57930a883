// Package occurrence expands reminders into concrete due date-times within a
// query window. Generation is a pure function of its inputs; occurrences are
// derived values and never persisted.
package occurrence

import (
	"time"

	"github.com/samber/mo"

	"github.com/clearcue/engine/recurrence"
	"github.com/clearcue/engine/reminder"
)

// Occurrence is a single concrete due date-time of a reminder.
type Occurrence struct {
	ReminderID string
	At         time.Time
}

// Options controls occurrence generation.
type Options struct {
	// MaxOccurrences caps how many occurrences a single reminder may
	// contribute per window. Zero or negative selects the default of 50.
	MaxOccurrences int
	// DefaultDueTime is the wall-clock time applied to date-only
	// reminders. The zero value means midnight; use DefaultOptions for
	// the standard 09:00.
	DefaultDueTime reminder.TimeOfDay
}

// DefaultOptions provides sensible defaults for generation.
var DefaultOptions = Options{
	MaxOccurrences: 50,
	DefaultDueTime: reminder.TimeOfDay{Hour: 9},
}

func (o Options) normalized() Options {
	if o.MaxOccurrences <= 0 {
		o.MaxOccurrences = DefaultOptions.MaxOccurrences
	}
	return o
}

// Generate returns the reminder's occurrences within [windowStart, windowEnd]
// in ascending order. Completed and soft-deleted reminders yield nothing; a
// non-recurring reminder yields at most its own due date-time.
func Generate(rem *reminder.Reminder, windowStart, windowEnd time.Time, opts Options) []Occurrence {
	opts = opts.normalized()
	if rem == nil || !rem.Active() || windowEnd.Before(windowStart) {
		return nil
	}

	if rem.Recurrence == nil {
		due := rem.DueAt(opts.DefaultDueTime)
		if due.Before(windowStart) || due.After(windowEnd) {
			return nil
		}
		return []Occurrence{{ReminderID: rem.ID, At: due}}
	}

	rule := anchoredRule(rem, opts)
	times := rule.Between(windowStart, windowEnd, opts.MaxOccurrences)
	out := make([]Occurrence, 0, len(times))
	for _, t := range times {
		out = append(out, Occurrence{ReminderID: rem.ID, At: t})
	}
	return out
}

// NextAfter returns the reminder's first occurrence strictly after the given
// time, or None when nothing remains.
func NextAfter(rem *reminder.Reminder, after time.Time, opts Options) mo.Option[Occurrence] {
	opts = opts.normalized()
	if rem == nil || !rem.Active() {
		return mo.None[Occurrence]()
	}

	if rem.Recurrence == nil {
		due := rem.DueAt(opts.DefaultDueTime)
		if !due.After(after) {
			return mo.None[Occurrence]()
		}
		return mo.Some(Occurrence{ReminderID: rem.ID, At: due})
	}

	rule := anchoredRule(rem, opts)
	next := rule.Next(after)
	if t, ok := next.Get(); ok {
		return mo.Some(Occurrence{ReminderID: rem.ID, At: t})
	}
	return mo.None[Occurrence]()
}

// anchoredRule copies the reminder's rule with the due wall-clock time
// applied to its anchor, so every stepped occurrence inherits it.
func anchoredRule(rem *reminder.Reminder, opts Options) recurrence.Rule {
	tod := opts.DefaultDueTime
	if rem.DueTime != nil {
		tod = *rem.DueTime
	}
	rule := *rem.Recurrence
	s := rule.Start
	rule.Start = time.Date(s.Year(), s.Month(), s.Day(), tod.Hour, tod.Minute, 0, 0, s.Location())
	return rule
}
