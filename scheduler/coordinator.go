package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/clearcue/engine/notify"
	"github.com/clearcue/engine/occurrence"
	"github.com/clearcue/engine/reminder"
)

// Plan is the outcome of diffing a reminder's desired notifications against
// what the platform currently has scheduled.
type Plan struct {
	ToSchedule []notify.Notification
	ToCancel   []string
}

// Empty reports whether the plan requires no platform calls.
func (p Plan) Empty() bool {
	return len(p.ToSchedule) == 0 && len(p.ToCancel) == 0
}

// Reconcile diffs the desired notifications of one reminder against the
// pending set. ToSchedule holds desired notifications not yet scheduled;
// ToCancel holds pending ids of the same reminder that are no longer wanted.
// An empty desired set (completed or deleted reminder) cancels everything.
//
// Reconcile is pure; running it twice against a converged pending set yields
// an empty plan.
func Reconcile(reminderID string, desired []notify.Notification, pending []Pending) Plan {
	scheduled := make(map[string]bool, len(pending))
	for _, p := range pending {
		if p.ReminderID == reminderID {
			scheduled[p.ID] = true
		}
	}

	want := make(map[string]bool, len(desired))
	var plan Plan
	for _, n := range desired {
		want[n.ID] = true
		if !scheduled[n.ID] {
			plan.ToSchedule = append(plan.ToSchedule, n)
		}
	}
	for _, p := range pending {
		if p.ReminderID == reminderID && !want[p.ID] {
			plan.ToCancel = append(plan.ToCancel, p.ID)
		}
	}
	return plan
}

// Result summarizes a reconciliation pass.
type Result struct {
	Scheduled int
	Cancelled int
	// Failed counts platform calls that were rejected; they are logged
	// and skipped, never fatal.
	Failed int
	// LimitExceeded is set when the entitlement cap truncated at least
	// one reminder's timings.
	LimitExceeded bool
}

func (r *Result) merge(o Result) {
	r.Scheduled += o.Scheduled
	r.Cancelled += o.Cancelled
	r.Failed += o.Failed
	r.LimitExceeded = r.LimitExceeded || o.LimitExceeded
}

// Coordinator drives reconciliation against the platform notifier.
type Coordinator struct {
	store        Store
	notifier     Notifier
	entitlements Entitlements
	logger       *slog.Logger
	opts         Options
}

// New creates a Coordinator from the given configuration.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("scheduler: store is required")
	}
	if cfg.Notifier == nil {
		return nil, fmt.Errorf("scheduler: notifier is required")
	}
	if cfg.Entitlements == nil {
		cfg.Entitlements = Unlimited{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Coordinator{
		store:        cfg.Store,
		notifier:     cfg.Notifier,
		entitlements: cfg.Entitlements,
		logger:       cfg.Logger,
		opts:         cfg.Options.normalized(),
	}, nil
}

// SyncReminder reconciles a single reminder the caller already holds, e.g.
// right after a create or update.
func (c *Coordinator) SyncReminder(ctx context.Context, rem *reminder.Reminder) (Result, error) {
	if rem == nil || rem.ID == "" {
		return Result{}, fmt.Errorf("%w: reminder with id is required", reminder.ErrInvalidReminder)
	}
	pending, err := c.notifier.Pending(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list pending notifications: %w", err)
	}
	return c.syncOne(ctx, rem.ID, rem, pending, c.opts.Now()), nil
}

// SyncByID loads a reminder from the store and reconciles it. A reminder the
// store no longer knows is treated as deleted: its desired set is empty and
// every pending notification it owns gets cancelled.
func (c *Coordinator) SyncByID(ctx context.Context, id string) (Result, error) {
	pending, err := c.notifier.Pending(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list pending notifications: %w", err)
	}
	return c.syncStored(ctx, id, pending, c.opts.Now())
}

// SyncAll reconciles the given reminder ids in one pass, sharing a single
// pending snapshot. Failures on one reminder don't stop the others.
func (c *Coordinator) SyncAll(ctx context.Context, ids []string) (Result, error) {
	pending, err := c.notifier.Pending(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list pending notifications: %w", err)
	}

	now := c.opts.Now()
	var total Result
	for _, id := range ids {
		res, err := c.syncStored(ctx, id, pending, now)
		if err != nil {
			c.logger.Error("sync reminder", "reminder_id", id, "error", err)
			total.Failed++
			continue
		}
		total.merge(res)
	}
	return total, nil
}

// CleanupStale re-reconciles every reminder that still has a pending
// notification, purging entries that have silently gone stale (clock changes,
// a crash before a previous cancel completed). Safe to run at any time;
// deterministic ids make it idempotent.
func (c *Coordinator) CleanupStale(ctx context.Context, now time.Time) (Result, error) {
	pending, err := c.notifier.Pending(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list pending notifications: %w", err)
	}

	var ids []string
	seen := make(map[string]bool)
	for _, p := range pending {
		if !seen[p.ReminderID] {
			seen[p.ReminderID] = true
			ids = append(ids, p.ReminderID)
		}
	}
	slices.Sort(ids)

	var total Result
	for _, id := range ids {
		res, err := c.syncStored(ctx, id, pending, now)
		if err != nil {
			c.logger.Error("cleanup reminder", "reminder_id", id, "error", err)
			total.Failed++
			continue
		}
		total.merge(res)
	}
	c.logger.Info("cleanup pass finished",
		"reminders", len(ids),
		"scheduled", total.Scheduled,
		"cancelled", total.Cancelled,
		"failed", total.Failed)
	return total, nil
}

// syncStored loads the reminder and reconciles; a missing reminder
// reconciles as nil (deleted).
func (c *Coordinator) syncStored(ctx context.Context, id string, pending []Pending, now time.Time) (Result, error) {
	rem, err := c.store.GetReminder(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Result{}, fmt.Errorf("load reminder %s: %w", id, err)
	}
	return c.syncOne(ctx, id, rem, pending, now), nil
}

// syncOne computes the desired set for one reminder, diffs it against the
// pending snapshot and applies the plan. All cancels are issued before any
// schedule, so a crash mid-way can't leave a duplicate active notification
// for the same timing.
func (c *Coordinator) syncOne(ctx context.Context, id string, rem *reminder.Reminder, pending []Pending, now time.Time) Result {
	desired, limitExceeded := c.desired(ctx, rem, now)
	plan := Reconcile(id, desired, pending)
	res := Result{LimitExceeded: limitExceeded}

	for _, nid := range plan.ToCancel {
		if err := c.notifier.Cancel(ctx, nid); err != nil {
			res.Failed++
			c.logger.Error("cancel notification", "id", nid, "reminder_id", id, "error", err)
			continue
		}
		res.Cancelled++
	}
	for _, n := range plan.ToSchedule {
		if err := c.notifier.Schedule(ctx, n); err != nil {
			res.Failed++
			c.logger.Error("schedule notification", "id", n.ID, "reminder_id", id, "fire_at", n.FireAt, "error", err)
			continue
		}
		res.Scheduled++
	}

	c.logger.Debug("reconciled reminder",
		"reminder_id", id,
		"desired", len(desired),
		"scheduled", res.Scheduled,
		"cancelled", res.Cancelled)
	return res
}

// desired computes the notifications that should exist for the reminder
// right now, applying the entitlement cap to the declared timings first.
func (c *Coordinator) desired(ctx context.Context, rem *reminder.Reminder, now time.Time) ([]notify.Notification, bool) {
	if rem == nil || !rem.Active() || !rem.HasNotification {
		return nil, false
	}

	limitExceeded := false
	timings, err := truncateTimings(rem.Timings, c.entitlements.TimingLimit(ctx, rem.ID))
	if err != nil {
		limitExceeded = true
		c.logger.Warn("notification timings truncated",
			"reminder_id", rem.ID,
			"kept", len(timings),
			"error", err)
	}

	capped := *rem
	capped.Timings = timings

	var desired []notify.Notification
	occs := occurrence.Generate(&capped, now, now.Add(c.opts.Horizon), c.opts.Occurrence)
	for _, occ := range occs {
		desired = append(desired, notify.Resolve(&capped, occ, now)...)
	}
	if dropped := len(occs)*len(timings) - len(desired); dropped > 0 {
		c.logger.Debug("dropped stale fire times", "reminder_id", rem.ID, "count", dropped)
	}
	return desired, limitExceeded
}

// truncateTimings applies the entitlement cap, preferring timings in their
// declared order. The returned error is advisory (ErrLimitExceeded).
func truncateTimings(timings []reminder.Timing, limit int) ([]reminder.Timing, error) {
	if limit <= 0 || len(timings) <= limit {
		return timings, nil
	}
	return timings[:limit], fmt.Errorf("%w: %d declared, limit %d", ErrLimitExceeded, len(timings), limit)
}
