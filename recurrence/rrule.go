package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// iCalendar date-time layout used for the synthesized DTSTART line.
const icalTimeLayout = "20060102T150405Z"

var toRRuleDay = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

var fromRRuleDay = map[rrule.Weekday]time.Weekday{
	rrule.MO: time.Monday,
	rrule.TU: time.Tuesday,
	rrule.WE: time.Wednesday,
	rrule.TH: time.Thursday,
	rrule.FR: time.Friday,
	rrule.SA: time.Saturday,
	rrule.SU: time.Sunday,
}

// EncodeRRule serializes a rule as an RRULE property value (without the
// "RRULE:" prefix), e.g. "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE,FR".
//
// RRULE has no custom frequency: a custom rule encodes as weekly when it has
// a weekday set and as daily otherwise. The distinction is presentational;
// the expansion semantics are identical.
func EncodeRRule(r *Rule) (string, error) {
	opt := rrule.ROption{Interval: r.Interval}

	switch r.Freq {
	case FreqDaily:
		opt.Freq = rrule.DAILY
	case FreqWeekly:
		opt.Freq = rrule.WEEKLY
	case FreqMonthly:
		opt.Freq = rrule.MONTHLY
	case FreqYearly:
		opt.Freq = rrule.YEARLY
	case FreqCustom:
		if len(r.Weekdays) > 0 {
			opt.Freq = rrule.WEEKLY
		} else {
			opt.Freq = rrule.DAILY
		}
	default:
		return "", fmt.Errorf("%w: unknown frequency %d", ErrInvalidRule, r.Freq)
	}

	if opt.Freq == rrule.WEEKLY {
		for _, wd := range r.Weekdays {
			opt.Byweekday = append(opt.Byweekday, toRRuleDay[wd])
		}
	}

	switch r.End.Kind {
	case EndOnDate:
		// UNTIL is an inclusive instant; encode the end of the last day
		// so the date-inclusive semantics survive the round trip.
		d := dateOf(r.End.Until)
		opt.Until = time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, time.UTC)
	case EndAfterCount:
		opt.Count = r.End.Count
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return "", fmt.Errorf("encode rrule: %w", err)
	}
	return ruleValue(rule.String()), nil
}

// ruleValue extracts the RRULE property value from a serialized rule, which
// may carry a DTSTART line ahead of it.
func ruleValue(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if v, ok := strings.CutPrefix(line, "RRULE:"); ok {
			return v
		}
	}
	return strings.TrimSpace(s)
}

// ParseRRule decodes an RRULE property value into a rule anchored at start.
// Only the subset of RRULE the engine models is accepted; anything else
// (BYSETPOS, ordinal BYDAY and so on) is rejected with ErrInvalidRule.
func ParseRRule(start time.Time, value string) (*Rule, error) {
	src := fmt.Sprintf("DTSTART:%s\nRRULE:%s", start.UTC().Format(icalTimeLayout), value)
	set, err := rrule.StrToRRuleSet(src)
	if err != nil {
		return nil, fmt.Errorf("%w: parse RRULE %q: %v", ErrInvalidRule, value, err)
	}
	rr := set.GetRRule()
	if rr == nil {
		return nil, fmt.Errorf("%w: no RRULE in %q", ErrInvalidRule, value)
	}
	opt := rr.OrigOptions

	// An absent INTERVAL defaults to 1 per RFC 5545; a written INTERVAL of
	// zero is malformed, not a request for the default.
	interval := opt.Interval
	if interval == 0 {
		if strings.Contains(strings.ToUpper(value), "INTERVAL=") {
			return nil, fmt.Errorf("%w: non-positive INTERVAL in %q", ErrInvalidRule, value)
		}
		interval = 1
	}

	out := Rule{Start: start, Interval: interval}
	switch opt.Freq {
	case rrule.DAILY:
		out.Freq = FreqDaily
	case rrule.WEEKLY:
		out.Freq = FreqWeekly
	case rrule.MONTHLY:
		out.Freq = FreqMonthly
	case rrule.YEARLY:
		out.Freq = FreqYearly
	default:
		return nil, fmt.Errorf("%w: unsupported frequency in %q", ErrInvalidRule, value)
	}

	for _, by := range opt.Byweekday {
		wd, ok := fromRRuleDay[by]
		if !ok {
			return nil, fmt.Errorf("%w: unsupported BYDAY value in %q", ErrInvalidRule, value)
		}
		out.Weekdays = append(out.Weekdays, wd)
	}

	switch {
	case opt.Count > 0:
		out.End = AfterCount(opt.Count)
	case !opt.Until.IsZero():
		out.End = UntilDate(opt.Until)
	}

	return New(out)
}
