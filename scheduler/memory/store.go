// Package memory provides map-backed implementations of the scheduler's
// collaborator interfaces for tests and examples.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/clearcue/engine/notify"
	"github.com/clearcue/engine/reminder"
	"github.com/clearcue/engine/scheduler"
)

// Store implements scheduler.Store using an in-memory map.
type Store struct {
	mu        sync.RWMutex
	reminders map[string]*reminder.Reminder
}

// NewStore creates an empty in-memory reminder store.
func NewStore() *Store {
	return &Store{reminders: make(map[string]*reminder.Reminder)}
}

// Put inserts or replaces a reminder.
func (s *Store) Put(rem *reminder.Reminder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminders[rem.ID] = rem
}

// Delete removes a reminder. Deleting an unknown id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reminders, id)
}

// GetReminder implements scheduler.Store.
func (s *Store) GetReminder(_ context.Context, id string) (*reminder.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rem, ok := s.reminders[id]
	if !ok {
		return nil, fmt.Errorf("reminder %s: %w", id, scheduler.ErrNotFound)
	}
	return rem, nil
}

// IDs returns all stored reminder ids, sorted.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.reminders))
	for id := range s.reminders {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Notifier implements scheduler.Notifier in memory. It records the order of
// platform calls so tests can assert cancel-before-schedule sequencing, and
// can inject per-id schedule failures.
type Notifier struct {
	mu        sync.RWMutex
	scheduled map[string]notify.Notification
	ops       []string
	failures  map[string]error
}

// NewNotifier creates an empty in-memory notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		scheduled: make(map[string]notify.Notification),
		failures:  make(map[string]error),
	}
}

// FailScheduleOf makes future Schedule calls for the given id return err.
func (n *Notifier) FailScheduleOf(id string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures[id] = err
}

// Schedule implements scheduler.Notifier.
func (n *Notifier) Schedule(_ context.Context, notification notify.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.failures[notification.ID]; err != nil {
		return err
	}
	n.scheduled[notification.ID] = notification
	n.ops = append(n.ops, "schedule "+notification.ID)
	return nil
}

// Cancel implements scheduler.Notifier.
func (n *Notifier) Cancel(_ context.Context, id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.scheduled, id)
	n.ops = append(n.ops, "cancel "+id)
	return nil
}

// CancelAllFor implements scheduler.Notifier.
func (n *Notifier) CancelAllFor(_ context.Context, reminderID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for id, notification := range n.scheduled {
		if notification.ReminderID == reminderID {
			delete(n.scheduled, id)
			n.ops = append(n.ops, "cancel "+id)
		}
	}
	return nil
}

// Pending implements scheduler.Notifier. Entries are sorted by id for
// deterministic iteration.
func (n *Notifier) Pending(_ context.Context) ([]scheduler.Pending, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]scheduler.Pending, 0, len(n.scheduled))
	for id, notification := range n.scheduled {
		out = append(out, scheduler.Pending{ID: id, ReminderID: notification.ReminderID})
	}
	slices.SortFunc(out, func(a, b scheduler.Pending) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return out, nil
}

// Get returns a scheduled notification by id.
func (n *Notifier) Get(id string) (notify.Notification, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	notification, ok := n.scheduled[id]
	return notification, ok
}

// Count returns the number of currently scheduled notifications.
func (n *Notifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.scheduled)
}

// Ops returns a copy of the platform call log.
func (n *Notifier) Ops() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.ops)
}
