package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdung/RentMaster-sub002/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestNext(t *testing.T) {
	tests := []struct {
		name string
		rule models.RecurrenceRule
		from time.Time
		want time.Time
	}{
		{
			name: "daily advances one day",
			rule: models.RecurrenceRule{Frequency: models.FrequencyDaily, TimeOfDay: "09:00"},
			from: at(2025, time.March, 10, 15, 30),
			want: at(2025, time.March, 11, 9, 0),
		},
		{
			name: "daily without time of day",
			rule: models.RecurrenceRule{Frequency: models.FrequencyDaily},
			from: date(2025, time.March, 10),
			want: date(2025, time.March, 11),
		},
		{
			name: "weekly lands on next matching weekday",
			rule: models.RecurrenceRule{Frequency: models.FrequencyWeekly, DayOfWeek: 3},
			from: date(2025, time.March, 10), // Monday
			want: date(2025, time.March, 12), // Wednesday
		},
		{
			name: "weekly on matching day skips a full week",
			rule: models.RecurrenceRule{Frequency: models.FrequencyWeekly, DayOfWeek: 3},
			from: date(2025, time.March, 12), // Wednesday, midnight
			want: date(2025, time.March, 19),
		},
		{
			name: "weekly same day before time of day",
			rule: models.RecurrenceRule{Frequency: models.FrequencyWeekly, DayOfWeek: 3, TimeOfDay: "09:00"},
			from: at(2025, time.March, 12, 8, 0),
			want: at(2025, time.March, 12, 9, 0),
		},
		{
			name: "weekly same day after time of day",
			rule: models.RecurrenceRule{Frequency: models.FrequencyWeekly, DayOfWeek: 3, TimeOfDay: "09:00"},
			from: at(2025, time.March, 12, 10, 0),
			want: at(2025, time.March, 19, 9, 0),
		},
		{
			name: "monthly advances past due slot",
			rule: models.RecurrenceRule{
				Frequency:      models.FrequencyMonthly,
				DayOfMonth:     15,
				NextOccurrence: date(2025, time.March, 15),
			},
			from: date(2025, time.March, 16),
			want: date(2025, time.April, 15),
		},
		{
			name: "monthly clamps day 31 to end of February",
			rule: models.RecurrenceRule{
				Frequency:      models.FrequencyMonthly,
				DayOfMonth:     31,
				NextOccurrence: date(2025, time.January, 31),
			},
			from: date(2025, time.January, 31),
			want: date(2025, time.February, 28),
		},
		{
			name: "monthly clamps to February 29 in a leap year",
			rule: models.RecurrenceRule{
				Frequency:      models.FrequencyMonthly,
				DayOfMonth:     31,
				NextOccurrence: date(2024, time.January, 31),
			},
			from: date(2024, time.January, 31),
			want: date(2024, time.February, 29),
		},
		{
			name: "monthly recompute from now without anchor",
			rule: models.RecurrenceRule{Frequency: models.FrequencyMonthly, DayOfMonth: 10},
			from: date(2025, time.March, 16),
			want: date(2025, time.April, 10),
		},
		{
			name: "monthly recompute lands later the same month",
			rule: models.RecurrenceRule{Frequency: models.FrequencyMonthly, DayOfMonth: 10},
			from: date(2025, time.March, 5),
			want: date(2025, time.March, 10),
		},
		{
			name: "quarterly keeps the anchor month",
			rule: models.RecurrenceRule{
				Frequency:      models.FrequencyQuarterly,
				DayOfMonth:     15,
				NextOccurrence: date(2025, time.March, 15),
			},
			from: date(2025, time.April, 20),
			want: date(2025, time.June, 15),
		},
		{
			name: "quarterly resumes cadence after a long pause",
			rule: models.RecurrenceRule{
				Frequency:      models.FrequencyQuarterly,
				DayOfMonth:     1,
				NextOccurrence: date(2024, time.January, 1),
			},
			from: date(2025, time.February, 10),
			want: date(2025, time.April, 1),
		},
		{
			name: "yearly clamps leap day in a common year",
			rule: models.RecurrenceRule{
				Frequency:      models.FrequencyYearly,
				DayOfMonth:     29,
				NextOccurrence: date(2024, time.February, 29),
			},
			from: date(2024, time.March, 1),
			want: date(2025, time.February, 28),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.rule, tt.from)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextIsStrictlyAfterReference(t *testing.T) {
	rules := []models.RecurrenceRule{
		{Frequency: models.FrequencyDaily, TimeOfDay: "00:00"},
		{Frequency: models.FrequencyWeekly, DayOfWeek: 0},
		{Frequency: models.FrequencyMonthly, DayOfMonth: 31},
		{Frequency: models.FrequencyQuarterly, DayOfMonth: 1},
		{Frequency: models.FrequencyYearly, DayOfMonth: 29},
	}

	from := at(2025, time.February, 28, 23, 59)
	for _, rule := range rules {
		cur := from
		for i := 0; i < 8; i++ {
			next, err := Next(rule, cur)
			require.NoError(t, err)
			assert.True(t, next.After(cur),
				"%s: %v is not after %v", rule.Frequency, next, cur)
			rule.NextOccurrence = next
			cur = next
		}
	}
}

func TestNextRejectsUnknownFrequency(t *testing.T) {
	_, err := Next(models.RecurrenceRule{Frequency: "FORTNIGHTLY"}, time.Now())
	assert.Error(t, err)
}
