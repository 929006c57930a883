package scheduler

import (
	"context"

	"github.com/clearcue/engine/notify"
)

// Pending identifies one notification currently scheduled on the platform.
// Platform layers keep the owning reminder id in the notification payload, so
// pending entries can be grouped per reminder during reconciliation.
type Pending struct {
	ID         string
	ReminderID string
}

// Notifier is the platform local-notification primitive. Delivery is best
// effort at the OS's discretion; the coordinator never assumes more.
type Notifier interface {
	// Schedule registers a notification to fire at n.FireAt.
	Schedule(ctx context.Context, n notify.Notification) error
	// Cancel removes a scheduled notification by id. Cancelling an
	// unknown id is not an error.
	Cancel(ctx context.Context, id string) error
	// CancelAllFor removes every scheduled notification of a reminder.
	CancelAllFor(ctx context.Context, reminderID string) error
	// Pending lists the currently scheduled notifications.
	Pending(ctx context.Context) ([]Pending, error)
}
