// Command example wires the scheduling engine against the in-memory store
// and notifier, seeds a few reminders, and prints the notifications the
// coordinator would hand to a real platform scheduler.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/clearcue/engine/recurrence"
	"github.com/clearcue/engine/reminder"
	"github.com/clearcue/engine/scheduler"
	"github.com/clearcue/engine/scheduler/memory"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	store := memory.NewStore()
	notifier := memory.NewNotifier()

	ids := seedReminders(store)

	coord, err := scheduler.New(scheduler.Config{
		Store:        store,
		Notifier:     notifier,
		Entitlements: scheduler.FixedLimit(5),
		Logger:       logger,
		Options: scheduler.Options{
			Horizon: 14 * 24 * time.Hour,
		},
	})
	if err != nil {
		logger.Error("coordinator setup failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	result, err := coord.SyncAll(ctx, ids)
	if err != nil {
		logger.Error("sync failed", "error", err)
		os.Exit(1)
	}
	logger.Info("initial sync", "scheduled", result.Scheduled, "cancelled", result.Cancelled)

	printPending(ctx, notifier)

	// Completing a reminder converges its notifications to zero.
	done, err := store.GetReminder(ctx, ids[0])
	if err != nil {
		logger.Error("lookup failed", "error", err)
		os.Exit(1)
	}
	done.Completed = true
	store.Put(done)

	result, err = coord.SyncByID(ctx, ids[0])
	if err != nil {
		logger.Error("sync failed", "error", err)
		os.Exit(1)
	}
	logger.Info("after completion", "scheduled", result.Scheduled, "cancelled", result.Cancelled)

	printPending(ctx, notifier)
}

func seedReminders(store *memory.Store) []string {
	now := time.Now().UTC()

	oneShot := &reminder.Reminder{
		ID:              uuid.NewString(),
		Title:           "Pick up dry cleaning",
		DueDate:         now.AddDate(0, 0, 2).Truncate(24 * time.Hour),
		DueTime:         &reminder.TimeOfDay{Hour: 17, Minute: 30},
		HasNotification: true,
		Timings: []reminder.Timing{
			{Kind: reminder.TimingBefore, Minutes: 60},
			{Kind: reminder.TimingExact},
		},
	}

	weekly, err := recurrence.New(recurrence.Rule{
		Freq:     recurrence.FreqWeekly,
		Weekdays: []time.Weekday{time.Monday, time.Thursday},
		Start:    now,
		End:      recurrence.NoEnd(),
	})
	if err != nil {
		panic(err)
	}
	standup := &reminder.Reminder{
		ID:              uuid.NewString(),
		Title:           "Prepare standup notes",
		DueDate:         now.Truncate(24 * time.Hour),
		DueTime:         &reminder.TimeOfDay{Hour: 8, Minute: 45},
		Recurrence:      weekly,
		HasNotification: true,
		Timings: []reminder.Timing{
			{Kind: reminder.TimingBefore, Minutes: 15},
		},
	}

	store.Put(oneShot)
	store.Put(standup)
	return []string{oneShot.ID, standup.ID}
}

func printPending(ctx context.Context, notifier *memory.Notifier) {
	pending, err := notifier.Pending(ctx)
	if err != nil {
		fmt.Println("pending lookup failed:", err)
		return
	}
	fmt.Printf("pending notifications: %d\n", len(pending))
	for _, p := range pending {
		if n, ok := notifier.Get(p.ID); ok {
			fmt.Printf("  %s  %-28s fires %s\n", n.ID, n.Title, n.FireAt.Format(time.RFC3339))
		}
	}
}
