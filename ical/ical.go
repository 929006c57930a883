// Package ical converts reminders to and from iCalendar VTODO components.
// This is the engine's interop boundary: recurrence travels as an RRULE
// property and notification timings as VALARM triggers, while the in-memory
// model stays canonical.
package ical

import (
	"fmt"
	"time"

	"github.com/emersion/go-ical"

	"github.com/clearcue/engine/recurrence"
	"github.com/clearcue/engine/reminder"
)

const prodID = "-//ClearCue//Scheduling Engine//EN"

// Components and properties go-ical has no constants for.
const (
	compAlarm   = "VALARM"
	propAction  = "ACTION"
	propTrigger = "TRIGGER"
)

const (
	dateTimeLayout = "20060102T150405Z"
	dateLayout     = "20060102"
)

// Encode serializes a reminder as a VCALENDAR holding a single VTODO. A
// date-only reminder gets a DATE-valued DUE; each notification timing becomes
// a DISPLAY alarm with a relative trigger.
func Encode(rem *reminder.Reminder) (*ical.Calendar, error) {
	if rem == nil || rem.ID == "" {
		return nil, fmt.Errorf("%w: missing id", reminder.ErrInvalidReminder)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropVersion, "2.0")

	todo := ical.NewComponent(ical.CompToDo)
	todo.Props.SetText(ical.PropUID, rem.ID)
	todo.Props.SetText(ical.PropSummary, rem.Title)
	if rem.Notes != "" {
		todo.Props.SetText(ical.PropDescription, rem.Notes)
	}
	if rem.Completed {
		todo.Props.SetText(ical.PropStatus, "COMPLETED")
	}

	if rem.DueTime != nil {
		todo.Props.SetDateTime(ical.PropDue, rem.DueAt(reminder.TimeOfDay{}).UTC())
	} else {
		p := ical.NewProp(ical.PropDue)
		p.Params.Set("VALUE", "DATE")
		p.Value = rem.DueDate.Format(dateLayout)
		todo.Props.Set(p)
	}

	if rem.Recurrence != nil {
		value, err := recurrence.EncodeRRule(rem.Recurrence)
		if err != nil {
			return nil, fmt.Errorf("encode reminder %s: %w", rem.ID, err)
		}
		todo.Props.SetDateTime(ical.PropDateTimeStart, rem.Recurrence.Start.UTC())
		// Set raw: RRULE is a RECUR value, SetText would escape it.
		p := ical.NewProp(ical.PropRecurrenceRule)
		p.Value = value
		todo.Props.Set(p)
	}

	for _, t := range rem.Timings {
		todo.Children = append(todo.Children, encodeAlarm(rem, t))
	}

	cal.Children = append(cal.Children, todo)
	return cal, nil
}

func encodeAlarm(rem *reminder.Reminder, t reminder.Timing) *ical.Component {
	alarm := ical.NewComponent(compAlarm)
	alarm.Props.SetText(propAction, "DISPLAY")
	alarm.Props.SetText(ical.PropDescription, rem.Title)

	trigger := ical.NewProp(propTrigger)
	trigger.SetDuration(t.Offset())
	alarm.Props.Set(trigger)
	return alarm
}

// Decode builds a reminder from the first VTODO in the calendar. Alarms
// without a trigger are skipped; any decoded alarm enables notifications.
func Decode(cal *ical.Calendar) (*reminder.Reminder, error) {
	if cal == nil {
		return nil, fmt.Errorf("%w: nil calendar", reminder.ErrInvalidReminder)
	}

	var todo *ical.Component
	for _, child := range cal.Children {
		if child.Name == ical.CompToDo {
			todo = child
			break
		}
	}
	if todo == nil {
		return nil, fmt.Errorf("%w: calendar has no VTODO", reminder.ErrInvalidReminder)
	}

	uid, err := todo.Props.Text(ical.PropUID)
	if err != nil || uid == "" {
		return nil, fmt.Errorf("%w: VTODO has no UID", reminder.ErrInvalidReminder)
	}

	rem := &reminder.Reminder{ID: uid}
	rem.Title, _ = todo.Props.Text(ical.PropSummary)
	rem.Notes, _ = todo.Props.Text(ical.PropDescription)

	if status := todo.Props.Get(ical.PropStatus); status != nil && status.Value == "COMPLETED" {
		rem.Completed = true
	}

	if err := decodeDue(todo, rem); err != nil {
		return nil, err
	}

	if rruleProp := todo.Props.Get(ical.PropRecurrenceRule); rruleProp != nil && rruleProp.Value != "" {
		anchor := rem.DueAt(reminder.TimeOfDay{})
		if dtstart, err := todo.Props.DateTime(ical.PropDateTimeStart, time.UTC); err == nil && !dtstart.IsZero() {
			anchor = dtstart
		}
		rule, err := recurrence.ParseRRule(anchor, rruleProp.Value)
		if err != nil {
			return nil, fmt.Errorf("decode reminder %s: %w", uid, err)
		}
		rem.Recurrence = rule
	}

	for _, child := range todo.Children {
		if child.Name != compAlarm {
			continue
		}
		trigger := child.Props.Get(propTrigger)
		if trigger == nil {
			continue
		}
		d, err := trigger.Duration()
		if err != nil {
			continue
		}
		rem.Timings = append(rem.Timings, timingFromOffset(d))
	}
	rem.HasNotification = len(rem.Timings) > 0

	return rem, nil
}

func decodeDue(todo *ical.Component, rem *reminder.Reminder) error {
	prop := todo.Props.Get(ical.PropDue)
	if prop == nil || prop.Value == "" {
		return fmt.Errorf("%w: VTODO %s has no DUE", reminder.ErrInvalidReminder, rem.ID)
	}

	if isDateValue(prop) {
		d, err := time.Parse(dateLayout, prop.Value)
		if err != nil {
			return fmt.Errorf("%w: bad DUE date %q", reminder.ErrInvalidReminder, prop.Value)
		}
		rem.DueDate = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	}

	t, err := time.Parse(dateTimeLayout, prop.Value)
	if err != nil {
		// date-only fallback without the VALUE=DATE parameter
		d, derr := time.Parse(dateLayout, prop.Value)
		if derr != nil {
			return fmt.Errorf("%w: bad DUE value %q", reminder.ErrInvalidReminder, prop.Value)
		}
		rem.DueDate = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	}

	rem.DueDate = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	rem.DueTime = &reminder.TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
	return nil
}

func isDateValue(prop *ical.Prop) bool {
	return prop.Params.Get("VALUE") == "DATE"
}

func timingFromOffset(d time.Duration) reminder.Timing {
	minutes := int(d / time.Minute)
	switch {
	case minutes < 0:
		return reminder.Timing{Kind: reminder.TimingBefore, Minutes: -minutes}
	case minutes > 0:
		return reminder.Timing{Kind: reminder.TimingAfter, Minutes: minutes}
	default:
		return reminder.Timing{Kind: reminder.TimingExact}
	}
}
