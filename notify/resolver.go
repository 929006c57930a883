package notify

import (
	"fmt"
	"time"

	"github.com/clearcue/engine/occurrence"
	"github.com/clearcue/engine/reminder"
)

// Resolve expands one occurrence into the notifications that should fire for
// it, in the reminder's declared timing order. Fire times at or before now
// are stale and dropped; they are never scheduled. The result is empty when
// the reminder has notifications disabled or declares no timings.
//
// Resolve is pure and deterministic: the same inputs always yield the same
// notifications with the same ids.
func Resolve(rem *reminder.Reminder, occ occurrence.Occurrence, now time.Time) []Notification {
	if rem == nil || !rem.HasNotification || len(rem.Timings) == 0 {
		return nil
	}

	out := make([]Notification, 0, len(rem.Timings))
	for _, t := range rem.Timings {
		fireAt := occ.At.Add(t.Offset())
		if !fireAt.After(now) {
			continue
		}
		out = append(out, Notification{
			ID:           NotificationID(rem.ID, occ.At, t),
			ReminderID:   rem.ID,
			OccurrenceAt: occ.At,
			Timing:       t,
			Title:        title(rem),
			Body:         body(t),
			FireAt:       fireAt,
		})
	}
	return out
}

func title(rem *reminder.Reminder) string {
	if rem.Title != "" {
		return rem.Title
	}
	return "Reminder"
}

func body(t reminder.Timing) string {
	switch t.Kind {
	case reminder.TimingBefore:
		return fmt.Sprintf("Due in %s", minutesPhrase(t.Minutes))
	case reminder.TimingAfter:
		return fmt.Sprintf("Was due %s ago", minutesPhrase(t.Minutes))
	default:
		return "Due now"
	}
}

func minutesPhrase(minutes int) string {
	if minutes%60 == 0 {
		hours := minutes / 60
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
