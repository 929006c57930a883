package occurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearcue/engine/recurrence"
	"github.com/clearcue/engine/reminder"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func oneShot(id string, due time.Time, tod *reminder.TimeOfDay) *reminder.Reminder {
	return &reminder.Reminder{ID: id, Title: id, DueDate: due, DueTime: tod}
}

func TestGenerate_OneShot(t *testing.T) {
	tod := reminder.TimeOfDay{Hour: 14, Minute: 30}

	tests := []struct {
		name        string
		rem         *reminder.Reminder
		windowStart time.Time
		windowEnd   time.Time
		want        []Occurrence
	}{
		{
			name:        "due inside the window",
			rem:         oneShot("r1", day(2025, time.June, 10), &tod),
			windowStart: day(2025, time.June, 1),
			windowEnd:   day(2025, time.June, 30),
			want:        []Occurrence{{ReminderID: "r1", At: at(2025, time.June, 10, 14, 30)}},
		},
		{
			name:        "due before the window yields nothing",
			rem:         oneShot("r1", day(2025, time.May, 1), &tod),
			windowStart: day(2025, time.June, 1),
			windowEnd:   day(2025, time.June, 30),
			want:        nil,
		},
		{
			name:        "due after the window yields nothing",
			rem:         oneShot("r1", day(2025, time.July, 15), &tod),
			windowStart: day(2025, time.June, 1),
			windowEnd:   day(2025, time.June, 30),
			want:        nil,
		},
		{
			name:        "date-only reminder gets the default due time",
			rem:         oneShot("r1", day(2025, time.June, 10), nil),
			windowStart: day(2025, time.June, 1),
			windowEnd:   day(2025, time.June, 30),
			want:        []Occurrence{{ReminderID: "r1", At: at(2025, time.June, 10, 9, 0)}},
		},
		{
			name:        "inverted window yields nothing",
			rem:         oneShot("r1", day(2025, time.June, 10), &tod),
			windowStart: day(2025, time.June, 30),
			windowEnd:   day(2025, time.June, 1),
			want:        nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.rem, tt.windowStart, tt.windowEnd, DefaultOptions)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerate_InactiveRemindersYieldNothing(t *testing.T) {
	tod := reminder.TimeOfDay{Hour: 10}
	now := time.Now()

	completed := oneShot("r1", day(2025, time.June, 10), &tod)
	completed.Completed = true
	assert.Empty(t, Generate(completed, day(2025, time.June, 1), day(2025, time.June, 30), DefaultOptions))

	deleted := oneShot("r2", day(2025, time.June, 10), &tod)
	deleted.DeletedAt = &now
	assert.Empty(t, Generate(deleted, day(2025, time.June, 1), day(2025, time.June, 30), DefaultOptions))

	assert.Empty(t, Generate(nil, day(2025, time.June, 1), day(2025, time.June, 30), DefaultOptions))
}

func TestGenerate_Recurring(t *testing.T) {
	tod := reminder.TimeOfDay{Hour: 8}
	rem := &reminder.Reminder{
		ID:      "r1",
		DueDate: day(2025, time.January, 6),
		DueTime: &tod,
		Recurrence: &recurrence.Rule{
			Freq:     recurrence.FreqWeekly,
			Interval: 1,
			Start:    day(2025, time.January, 6), // Monday
			Weekdays: []time.Weekday{time.Monday, time.Friday},
		},
	}

	got := Generate(rem, day(2025, time.January, 6), day(2025, time.January, 19), DefaultOptions)
	require.Len(t, got, 4)
	assert.Equal(t, []Occurrence{
		{ReminderID: "r1", At: at(2025, time.January, 6, 8, 0)},
		{ReminderID: "r1", At: at(2025, time.January, 10, 8, 0)},
		{ReminderID: "r1", At: at(2025, time.January, 13, 8, 0)},
		{ReminderID: "r1", At: at(2025, time.January, 17, 8, 0)},
	}, got)
}

func TestGenerate_RecurringRespectsCap(t *testing.T) {
	rem := &reminder.Reminder{
		ID:      "r1",
		DueDate: day(2025, time.January, 1),
		Recurrence: &recurrence.Rule{
			Freq:  recurrence.FreqDaily,
			Start: day(2025, time.January, 1),
		},
	}

	opts := Options{MaxOccurrences: 3, DefaultDueTime: reminder.TimeOfDay{Hour: 9}}
	got := Generate(rem, day(2025, time.January, 1), day(2025, time.December, 31), opts)
	require.Len(t, got, 3)
	assert.Equal(t, at(2025, time.January, 3, 9, 0), got[2].At)
}

func TestGenerate_IsRestartable(t *testing.T) {
	rem := &reminder.Reminder{
		ID:      "r1",
		DueDate: day(2025, time.January, 1),
		Recurrence: &recurrence.Rule{
			Freq:  recurrence.FreqDaily,
			Start: day(2025, time.January, 1),
			End:   recurrence.AfterCount(5),
		},
	}

	first := Generate(rem, day(2025, time.January, 1), day(2025, time.January, 31), DefaultOptions)
	second := Generate(rem, day(2025, time.January, 1), day(2025, time.January, 31), DefaultOptions)
	assert.Equal(t, first, second)
}

func TestNextAfter(t *testing.T) {
	tod := reminder.TimeOfDay{Hour: 12}

	single := oneShot("r1", day(2025, time.June, 10), &tod)
	next := NextAfter(single, at(2025, time.June, 1, 0, 0), DefaultOptions)
	require.True(t, next.IsPresent())
	assert.Equal(t, at(2025, time.June, 10, 12, 0), next.MustGet().At)

	// A past-due one-shot has no future occurrence.
	assert.True(t, NextAfter(single, at(2025, time.June, 10, 12, 0), DefaultOptions).IsAbsent())

	recurring := &reminder.Reminder{
		ID:      "r2",
		DueDate: day(2025, time.January, 1),
		DueTime: &tod,
		Recurrence: &recurrence.Rule{
			Freq:  recurrence.FreqDaily,
			Start: day(2025, time.January, 1),
		},
	}
	next = NextAfter(recurring, at(2025, time.March, 15, 18, 0), DefaultOptions)
	require.True(t, next.IsPresent())
	assert.Equal(t, at(2025, time.March, 16, 12, 0), next.MustGet().At)

	completed := oneShot("r3", day(2025, time.June, 10), &tod)
	completed.Completed = true
	assert.True(t, NextAfter(completed, at(2025, time.January, 1, 0, 0), DefaultOptions).IsAbsent())
}
