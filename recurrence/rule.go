// Package recurrence implements repeat rules for reminders: the canonical
// in-memory rule model, calendar-correct occurrence stepping, and an RRULE
// text codec for the storage boundary.
package recurrence

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/samber/mo"
)

// ErrInvalidRule is returned when a rule fails validation.
var ErrInvalidRule = errors.New("recurrence: invalid rule")

// Frequency identifies the base repeat unit of a rule.
type Frequency int

const (
	FreqDaily Frequency = iota
	FreqWeekly
	FreqMonthly
	FreqYearly
	// FreqCustom is a user-assembled pattern. It expands exactly like
	// FreqWeekly: the weekday set selects days within each week block.
	FreqCustom
)

// String provides a human-readable representation of the Frequency.
func (f Frequency) String() string {
	switch f {
	case FreqDaily:
		return "daily"
	case FreqWeekly:
		return "weekly"
	case FreqMonthly:
		return "monthly"
	case FreqYearly:
		return "yearly"
	case FreqCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// EndKind identifies how a rule terminates.
type EndKind int

const (
	// EndNever never stops the rule; callers bound iteration with a
	// range or occurrence cap.
	EndNever EndKind = iota
	// EndOnDate stops once a candidate falls on a later calendar date
	// than Until. The end date itself is inclusive.
	EndOnDate
	// EndAfterCount stops once Count occurrences, counting the anchor,
	// have been emitted.
	EndAfterCount
)

// End is a rule's termination condition.
type End struct {
	Kind  EndKind
	Until time.Time // EndOnDate only; compared by calendar date
	Count int       // EndAfterCount only; total occurrences including the anchor
}

// NoEnd returns an End that never terminates the rule.
func NoEnd() End { return End{Kind: EndNever} }

// UntilDate returns an End that stops after the given calendar date.
func UntilDate(t time.Time) End { return End{Kind: EndOnDate, Until: t} }

// AfterCount returns an End that stops after n total occurrences.
func AfterCount(n int) End { return End{Kind: EndAfterCount, Count: n} }

// Rule describes a repeat pattern anchored at Start. Start carries the
// time-of-day every occurrence inherits.
type Rule struct {
	Freq     Frequency
	Interval int            // every N units; New defaults 0 to 1
	Weekdays []time.Weekday // weekly/custom only; empty falls back to Start's weekday
	Start    time.Time
	End      End
}

// maxExpansionSteps bounds candidate iteration so an unbounded rule queried
// against a distant window cannot spin.
const maxExpansionSteps = 10000

// New validates and normalizes a rule. A zero Interval defaults to 1; the
// weekday set is sorted and deduplicated. Malformed rules, including weekdays
// outside Sunday..Saturday, are rejected with ErrInvalidRule, never silently
// corrected.
func New(r Rule) (*Rule, error) {
	if r.Start.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", ErrInvalidRule)
	}
	if r.Interval == 0 {
		r.Interval = 1
	}
	if r.Interval < 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %d", ErrInvalidRule, r.Interval)
	}
	switch r.End.Kind {
	case EndOnDate:
		if dateOf(r.End.Until).Before(dateOf(r.Start)) {
			return nil, fmt.Errorf("%w: end date %s is before start %s",
				ErrInvalidRule, r.End.Until.Format("2006-01-02"), r.Start.Format("2006-01-02"))
		}
	case EndAfterCount:
		if r.End.Count <= 0 {
			return nil, fmt.Errorf("%w: occurrence count must be positive, got %d", ErrInvalidRule, r.End.Count)
		}
	}
	for _, wd := range r.Weekdays {
		if wd < time.Sunday || wd > time.Saturday {
			return nil, fmt.Errorf("%w: weekday out of range: %d", ErrInvalidRule, wd)
		}
	}
	weekdays := slices.Clone(r.Weekdays)
	slices.Sort(weekdays)
	r.Weekdays = slices.Compact(weekdays)
	return &r, nil
}

// Next returns the first occurrence strictly after the given time, or None
// when the rule has ended (or no occurrence exists within the expansion
// bound).
func (r *Rule) Next(after time.Time) mo.Option[time.Time] {
	result := mo.None[time.Time]()
	r.iterate(func(t time.Time) bool {
		if t.After(after) {
			result = mo.Some(t)
			return false
		}
		return true
	})
	return result
}

// Between returns the occurrences within [rangeStart, rangeEnd], ascending,
// capped at max. Occurrences before rangeStart still count toward an
// EndAfterCount condition; a range query never resets the count.
func (r *Rule) Between(rangeStart, rangeEnd time.Time, max int) []time.Time {
	if max <= 0 || rangeEnd.Before(rangeStart) {
		return nil
	}
	var out []time.Time
	r.iterate(func(t time.Time) bool {
		if t.After(rangeEnd) {
			return false
		}
		if !t.Before(rangeStart) {
			out = append(out, t)
			if len(out) >= max {
				return false
			}
		}
		return true
	})
	return out
}

// iterate walks candidate occurrences in ascending order starting at the
// anchor, calling fn for each until fn returns false, the end condition is
// reached, or the expansion bound trips.
func (r *Rule) iterate(fn func(time.Time) bool) {
	interval := r.Interval
	if interval < 1 {
		interval = 1
	}

	emitted := 0
	// emit applies the end condition to a candidate; it returns false when
	// iteration must stop.
	emit := func(t time.Time) bool {
		if r.End.Kind == EndOnDate && dateOf(t).After(dateOf(r.End.Until)) {
			return false
		}
		if r.End.Kind == EndAfterCount && emitted >= r.End.Count {
			return false
		}
		emitted++
		return fn(t)
	}

	switch r.Freq {
	case FreqWeekly, FreqCustom:
		r.iterateWeekly(interval, emit)
	case FreqMonthly:
		for i := 0; i < maxExpansionSteps; i++ {
			if !emit(addMonthsClamped(r.Start, i*interval)) {
				return
			}
		}
	case FreqYearly:
		for i := 0; i < maxExpansionSteps; i++ {
			if !emit(addMonthsClamped(r.Start, i*interval*12)) {
				return
			}
		}
	default: // FreqDaily
		for i := 0; i < maxExpansionSteps; i++ {
			if !emit(r.Start.AddDate(0, 0, i*interval)) {
				return
			}
		}
	}
}

// iterateWeekly emits one occurrence per selected weekday, ascending, within
// each week block. Week blocks start on Sunday (weekday index 0) and repeat
// every interval weeks from the anchor's week.
func (r *Rule) iterateWeekly(interval int, emit func(time.Time) bool) {
	days := r.effectiveWeekdays()
	hour, min, sec := r.Start.Clock()

	weekStart := r.Start.AddDate(0, 0, -int(r.Start.Weekday()))
	steps := 0
	for block := 0; steps < maxExpansionSteps; block++ {
		base := weekStart.AddDate(0, 0, block*7*interval)
		for _, wd := range days {
			steps++
			day := base.AddDate(0, 0, int(wd))
			t := time.Date(day.Year(), day.Month(), day.Day(), hour, min, sec, 0, r.Start.Location())
			if t.Before(r.Start) {
				// earlier weekday in the anchor's week
				continue
			}
			if !emit(t) {
				return
			}
		}
	}
}

// effectiveWeekdays resolves the weekday set, falling back to the anchor's
// weekday when the set is empty.
func (r *Rule) effectiveWeekdays() []time.Weekday {
	if len(r.Weekdays) == 0 {
		return []time.Weekday{r.Start.Weekday()}
	}
	return r.Weekdays
}

// addMonthsClamped advances t by the given number of months, preserving the
// day-of-month and clamping to the target month's last day when it is
// shorter. Jan 31 + 1 month yields Feb 28 (or 29), never Mar 2.
func addMonthsClamped(t time.Time, months int) time.Time {
	total := int(t.Month()) - 1 + months
	year := t.Year() + total/12
	month := time.Month(total%12 + 1)
	day := t.Day()
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	hour, min, sec := t.Clock()
	return time.Date(year, month, day, hour, min, sec, t.Nanosecond(), t.Location())
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	// day zero of the following month
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// dateOf truncates t to its calendar date.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
