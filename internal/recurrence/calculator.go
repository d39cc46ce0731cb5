// Package recurrence computes the next due instant of a recurrence rule.
// Everything here is pure: no clock reads, no I/O. The single guarantee is
// that the result is strictly after the reference instant, so a driver that
// sweeps again immediately after an advance can never re-select the same
// occurrence.
package recurrence

import (
	"fmt"
	"time"

	"github.com/mdung/RentMaster-sub002/internal/models"
)

// Next returns the first occurrence of rule strictly after from.
//
// MONTHLY, QUARTERLY and YEARLY clamp DayOfMonth to the target month's
// length (day 31 in February lands on the 28th or 29th). QUARTERLY and
// YEARLY keep the month of the rule's current NextOccurrence as the cadence
// anchor, so a rule that fires in March keeps firing in March, June,
// September, December no matter when it is advanced.
func Next(rule models.RecurrenceRule, from time.Time) (time.Time, error) {
	switch rule.Frequency {
	case models.FrequencyDaily:
		return nextDaily(rule, from), nil
	case models.FrequencyWeekly:
		return nextWeekly(rule, from), nil
	case models.FrequencyMonthly:
		return nextByMonths(rule, from, 1), nil
	case models.FrequencyQuarterly:
		return nextByMonths(rule, from, 3), nil
	case models.FrequencyYearly:
		return nextByMonths(rule, from, 12), nil
	default:
		return time.Time{}, fmt.Errorf("unknown frequency: %s", rule.Frequency)
	}
}

func nextDaily(rule models.RecurrenceRule, from time.Time) time.Time {
	d := from.AddDate(0, 0, 1)
	return atClock(rule, d.Year(), d.Month(), d.Day(), from.Location())
}

func nextWeekly(rule models.RecurrenceRule, from time.Time) time.Time {
	// The same day is a candidate only when its time of day is still ahead;
	// otherwise the scan ends at the matching weekday one week out.
	for i := 0; i <= 7; i++ {
		d := from.AddDate(0, 0, i)
		if int(d.Weekday()) != rule.DayOfWeek {
			continue
		}
		cand := atClock(rule, d.Year(), d.Month(), d.Day(), from.Location())
		if cand.After(from) {
			return cand
		}
	}
	// Unreachable: an 8-day window always contains a strictly later match.
	return from.AddDate(0, 0, 7)
}

func nextByMonths(rule models.RecurrenceRule, from time.Time, step int) time.Time {
	base := rule.NextOccurrence
	if base.IsZero() {
		base = from
	}
	year, month := base.Year(), base.Month()
	cand := clampedDay(rule, year, month, from.Location())
	for !cand.After(from) {
		next := time.Date(year, month+time.Month(step), 1, 0, 0, 0, 0, from.Location())
		year, month = next.Year(), next.Month()
		cand = clampedDay(rule, year, month, from.Location())
	}
	return cand
}

func clampedDay(rule models.RecurrenceRule, year int, month time.Month, loc *time.Location) time.Time {
	day := rule.DayOfMonth
	if last := daysInMonth(year, month, loc); day > last {
		day = last
	}
	return atClock(rule, year, month, day, loc)
}

func daysInMonth(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

func atClock(rule models.RecurrenceRule, year int, month time.Month, day int, loc *time.Location) time.Time {
	hour, minute, ok := rule.ClockTime()
	if !ok {
		hour, minute = 0, 0
	}
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}
