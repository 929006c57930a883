package reminder

import (
	"fmt"
	"time"
)

// TimingKind positions a notification relative to an occurrence.
type TimingKind int

const (
	// TimingBefore fires Minutes before the occurrence.
	TimingBefore TimingKind = iota
	// TimingExact fires at the occurrence time; Minutes must be zero.
	TimingExact
	// TimingAfter fires Minutes after the occurrence.
	TimingAfter
)

// String provides a human-readable representation of the TimingKind.
func (k TimingKind) String() string {
	switch k {
	case TimingBefore:
		return "before"
	case TimingExact:
		return "exact"
	case TimingAfter:
		return "after"
	default:
		return "unknown"
	}
}

// Timing is a single relative notification offset.
type Timing struct {
	Kind    TimingKind
	Minutes int
}

// Validate rejects malformed kind/minutes combinations.
func (t Timing) Validate() error {
	switch t.Kind {
	case TimingExact:
		if t.Minutes != 0 {
			return fmt.Errorf("%w: exact timing must have zero minutes, got %d", ErrInvalidTiming, t.Minutes)
		}
	case TimingBefore, TimingAfter:
		if t.Minutes <= 0 {
			return fmt.Errorf("%w: %s timing requires positive minutes, got %d", ErrInvalidTiming, t.Kind, t.Minutes)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidTiming, t.Kind)
	}
	return nil
}

// Offset returns the signed duration to add to an occurrence time.
func (t Timing) Offset() time.Duration {
	d := time.Duration(t.Minutes) * time.Minute
	if t.Kind == TimingBefore {
		return -d
	}
	if t.Kind == TimingExact {
		return 0
	}
	return d
}
