package models

import (
	"fmt"
	"time"
)

type Frequency string

const (
	FrequencyDaily     Frequency = "DAILY"
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyYearly    Frequency = "YEARLY"
)

type ScheduleKind string

const (
	KindInvoice ScheduleKind = "invoice"
	KindReport  ScheduleKind = "report"
)

// ScheduleRef identifies one schedule of either kind.
type ScheduleRef struct {
	Kind ScheduleKind
	ID   uint
}

func (r ScheduleRef) String() string {
	return fmt.Sprintf("%s/%d", r.Kind, r.ID)
}

// RecurrenceRule describes when a schedule fires next. It is embedded in
// both schedule kinds; TimeOfDay is only used by report schedules.
type RecurrenceRule struct {
	Frequency      Frequency  `json:"frequency" gorm:"not null"`
	DayOfWeek      int        `json:"day_of_week"`           // 0 = Sunday, meaningful for WEEKLY
	DayOfMonth     int        `json:"day_of_month"`          // 1-31, meaningful for MONTHLY/QUARTERLY/YEARLY
	TimeOfDay      string     `json:"time_of_day,omitempty"` // "HH:MM", reports only
	NextOccurrence time.Time  `json:"next_occurrence"`
	LastOccurrence *time.Time `json:"last_occurrence,omitempty"`
	Active         bool       `json:"active" gorm:"default:true"`
}

// ClockTime parses TimeOfDay. ok is false when no time is configured.
func (r *RecurrenceRule) ClockTime() (hour, minute int, ok bool) {
	if r.TimeOfDay == "" {
		return 0, 0, false
	}
	t, err := time.Parse("15:04", r.TimeOfDay)
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

// SameRecurrence reports whether the recurrence-defining fields match.
// NextOccurrence, LastOccurrence and Active are runtime state, not part of
// the recurrence definition.
func (r *RecurrenceRule) SameRecurrence(o *RecurrenceRule) bool {
	return r.Frequency == o.Frequency &&
		r.DayOfWeek == o.DayOfWeek &&
		r.DayOfMonth == o.DayOfMonth &&
		r.TimeOfDay == o.TimeOfDay
}

// Validate checks the recurrence-defining fields. DAILY is only valid for
// report schedules.
func (r *RecurrenceRule) Validate(allowDaily bool) error {
	switch r.Frequency {
	case FrequencyDaily:
		if !allowDaily {
			return fmt.Errorf("frequency DAILY is not supported for this schedule kind")
		}
	case FrequencyWeekly:
		if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
			return fmt.Errorf("day_of_week must be between 0 and 6, got %d", r.DayOfWeek)
		}
	case FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
			return fmt.Errorf("day_of_month must be between 1 and 31, got %d", r.DayOfMonth)
		}
	default:
		return fmt.Errorf("unknown frequency: %s", r.Frequency)
	}

	if r.TimeOfDay != "" {
		if _, err := time.Parse("15:04", r.TimeOfDay); err != nil {
			return fmt.Errorf("time_of_day must be in HH:MM format, got %q", r.TimeOfDay)
		}
	}

	return nil
}
