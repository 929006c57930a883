// Package scheduler reconciles the engine's desired notification set against
// what is currently scheduled on the platform, issuing the minimal cancel and
// schedule calls to converge.
package scheduler

import (
	"context"
	"errors"

	"github.com/clearcue/engine/reminder"
)

var (
	// ErrNotFound is returned by a Store when a reminder doesn't exist.
	ErrNotFound = errors.New("scheduler: reminder not found")
	// ErrLimitExceeded reports that a reminder declared more notification
	// timings than its entitlement allows. It is advisory: reconciliation
	// proceeds with the truncated set.
	ErrLimitExceeded = errors.New("scheduler: notification timing limit exceeded")
)

// Store connects the reminder storage backend with the coordinator. The
// coordinator only reads from it during a reconciliation pass.
type Store interface {
	// GetReminder retrieves a reminder by id, or ErrNotFound.
	GetReminder(ctx context.Context, id string) (*reminder.Reminder, error)
}

// Entitlements supplies the per-reminder cap on concurrent notification
// timings. How the value is computed (subscription, trial, promotion) is the
// provider's business; the coordinator just applies it.
type Entitlements interface {
	// TimingLimit returns the maximum timings allowed per reminder. Zero
	// or negative means unlimited.
	TimingLimit(ctx context.Context, reminderID string) int
}

// Unlimited is an Entitlements provider with no cap, useful for tests and
// premium tiers.
type Unlimited struct{}

// TimingLimit implements Entitlements.
func (Unlimited) TimingLimit(context.Context, string) int { return 0 }

// FixedLimit is an Entitlements provider with a constant cap.
type FixedLimit int

// TimingLimit implements Entitlements.
func (l FixedLimit) TimingLimit(context.Context, string) int { return int(l) }
