// Package notify turns occurrences into concrete notifications: absolute
// fire times, stable identifiers, and user-facing text.
package notify

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clearcue/engine/reminder"
)

// idNamespace is the fixed namespace for name-based notification ids. It must
// never change: identifier stability across runs is what makes
// reconciliation idempotent.
var idNamespace = uuid.MustParse("1b671a64-40d5-491e-99b0-da01ff1f3341")

// Notification is a single notification the engine wants scheduled.
type Notification struct {
	// ID is deterministic: the same reminder, occurrence and timing always
	// produce the same id.
	ID         string
	ReminderID string
	// OccurrenceAt is the due date-time this notification belongs to.
	OccurrenceAt time.Time
	// Timing is the offset specification that produced FireAt.
	Timing reminder.Timing
	Title  string
	Body   string
	// FireAt is the absolute time the notification should fire.
	FireAt time.Time
}

// NotificationID derives the stable identifier for a (reminder, occurrence,
// timing) triple as a name-based UUID.
func NotificationID(reminderID string, occurrenceAt time.Time, t reminder.Timing) string {
	name := fmt.Sprintf("%s|%d|%s|%d", reminderID, occurrenceAt.UTC().Unix(), t.Kind, t.Minutes)
	return uuid.NewSHA1(idNamespace, []byte(name)).String()
}
