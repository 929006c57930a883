// Package reminder defines the reminder entity consumed by the scheduling
// engine. Validation happens at the store boundary, before anything reaches
// the algorithms.
package reminder

import (
	"errors"
	"fmt"
	"time"

	"github.com/clearcue/engine/recurrence"
)

var (
	// ErrInvalidReminder is returned when a reminder fails validation.
	ErrInvalidReminder = errors.New("reminder: invalid reminder")
	// ErrInvalidTiming is returned when a notification timing is malformed.
	ErrInvalidTiming = errors.New("reminder: invalid notification timing")
)

// TimeOfDay is a local wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses an "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: due time %q is not HH:MM", ErrInvalidReminder, s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// String formats the time as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Reminder is the scheduled unit of work.
type Reminder struct {
	// ID uniquely identifies the reminder.
	ID string

	// Title is shown as the notification title.
	Title string
	// Notes holds free-form detail text.
	Notes string

	// DueDate is the calendar date the reminder is due; its time part is
	// ignored, only the date and location matter.
	DueDate time.Time
	// DueTime is the local wall-clock due time. Nil means the reminder is
	// date-only and the engine's configured default applies.
	DueTime *TimeOfDay

	// Recurrence repeats the reminder. Nil means a one-shot reminder; the
	// rule's Start is the recurring start date.
	Recurrence *recurrence.Rule

	// HasNotification gates notification scheduling for this reminder.
	HasNotification bool
	// Timings lists the relative notification offsets in declared order.
	// The declared order decides which timings survive entitlement
	// truncation.
	Timings []Timing

	// Completed marks the reminder done.
	Completed bool
	// DeletedAt is the soft-deletion timestamp, nil while the reminder is
	// live.
	DeletedAt *time.Time
}

// Active reports whether the reminder participates in scheduling. Completed
// and soft-deleted reminders do not.
func (r *Reminder) Active() bool {
	return !r.Completed && r.DeletedAt == nil
}

// DueAt combines the due date with the due time, falling back to the given
// wall-clock time for date-only reminders.
func (r *Reminder) DueAt(fallback TimeOfDay) time.Time {
	tod := fallback
	if r.DueTime != nil {
		tod = *r.DueTime
	}
	return time.Date(r.DueDate.Year(), r.DueDate.Month(), r.DueDate.Day(),
		tod.Hour, tod.Minute, 0, 0, r.DueDate.Location())
}

// Validate checks the reminder's invariants. It never mutates.
func (r *Reminder) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidReminder)
	}
	if r.DueDate.IsZero() && r.Recurrence == nil {
		return fmt.Errorf("%w %s: missing due date", ErrInvalidReminder, r.ID)
	}
	if r.Recurrence != nil {
		if _, err := recurrence.New(*r.Recurrence); err != nil {
			return fmt.Errorf("reminder %s: %w", r.ID, err)
		}
	}
	for i, timing := range r.Timings {
		if err := timing.Validate(); err != nil {
			return fmt.Errorf("reminder %s timing %d: %w", r.ID, i, err)
		}
	}
	return nil
}
