package store

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mdung/RentMaster-sub002/internal/models"
	"github.com/mdung/RentMaster-sub002/internal/scheduler"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Contract{},
		&models.RecurringInvoiceSchedule{},
		&models.ScheduledReportSchedule{},
		&models.Invoice{},
		&models.GenerationRecord{},
	))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return New(db)
}

func TestDueRefsSelectsOnlyActiveDueSchedules(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC)

	due := &models.RecurringInvoiceSchedule{
		ContractID: 1,
		Recurrence: models.RecurrenceRule{
			Frequency:      models.FrequencyMonthly,
			DayOfMonth:     15,
			NextOccurrence: now.Add(-24 * time.Hour),
			Active:         true,
		},
	}
	future := &models.RecurringInvoiceSchedule{
		ContractID: 1,
		Recurrence: models.RecurrenceRule{
			Frequency:      models.FrequencyMonthly,
			DayOfMonth:     15,
			NextOccurrence: now.Add(24 * time.Hour),
			Active:         true,
		},
	}
	inactive := &models.RecurringInvoiceSchedule{
		ContractID: 1,
		Recurrence: models.RecurrenceRule{
			Frequency:      models.FrequencyMonthly,
			DayOfMonth:     15,
			NextOccurrence: now.Add(-24 * time.Hour),
			Active:         false,
		},
	}
	dueReport := &models.ScheduledReportSchedule{
		Name:       "weekly revenue",
		ReportType: models.ReportTypeRevenue,
		Recipients: models.StringList{"ops@example.com"},
		Recurrence: models.RecurrenceRule{
			Frequency:      models.FrequencyWeekly,
			DayOfWeek:      1,
			NextOccurrence: now,
			Active:         true,
		},
	}
	require.NoError(t, s.CreateInvoiceSchedule(due))
	require.NoError(t, s.CreateInvoiceSchedule(future))
	require.NoError(t, s.CreateInvoiceSchedule(inactive))
	require.NoError(t, s.CreateReportSchedule(dueReport))

	refs, err := s.DueRefs(now)
	require.NoError(t, err)

	assert.ElementsMatch(t, []models.ScheduleRef{
		{Kind: models.KindInvoice, ID: due.ID},
		{Kind: models.KindReport, ID: dueReport.ID},
	}, refs)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	s := newTestStore(t)

	sched := &models.RecurringInvoiceSchedule{
		ContractID: 3,
		AutoSend:   true,
		Template: models.InvoiceTemplate{
			IncludeRent:  true,
			DaysUntilDue: 14,
			CustomItems: models.CustomItems{{
				Description: "parking",
				Quantity:    decimal.NewFromInt(2),
				UnitPrice:   decimal.NewFromInt(50),
				Amount:      decimal.NewFromInt(100),
			}},
		},
		Recurrence: models.RecurrenceRule{
			Frequency:      models.FrequencyMonthly,
			DayOfMonth:     1,
			NextOccurrence: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
			Active:         true,
		},
	}
	require.NoError(t, s.CreateInvoiceSchedule(sched))

	loaded, err := s.Load(models.ScheduleRef{Kind: models.KindInvoice, ID: sched.ID})
	require.NoError(t, err)

	inv := loaded.(*models.RecurringInvoiceSchedule)
	assert.Equal(t, uint(3), inv.ContractID)
	require.Len(t, inv.Template.CustomItems, 1)
	assert.True(t, inv.Template.CustomItems[0].Amount.Equal(decimal.NewFromInt(100)))

	now := time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC)
	inv.Rule().LastOccurrence = &now
	inv.Rule().NextOccurrence = time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(loaded))

	reloaded, err := s.GetInvoiceSchedule(sched.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC), reloaded.Recurrence.NextOccurrence.UTC())
	require.NotNil(t, reloaded.Recurrence.LastOccurrence)
}

func TestLoadUnknownScheduleReturnsNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load(models.ScheduleRef{Kind: models.KindReport, ID: 42})
	assert.ErrorIs(t, err, scheduler.ErrNotFound)

	err = s.Delete(models.ScheduleRef{Kind: models.KindInvoice, ID: 42})
	assert.ErrorIs(t, err, scheduler.ErrNotFound)
}

func TestGenerationRecordsPerSchedule(t *testing.T) {
	s := newTestStore(t)
	ref := models.ScheduleRef{Kind: models.KindReport, ID: 9}

	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordGeneration(&models.GenerationRecord{
			RunID:        time.Now().Format(time.RFC3339Nano) + string(rune('a'+i)),
			ScheduleKind: ref.Kind,
			ScheduleID:   ref.ID,
			Trigger:      models.TriggerScheduled,
			Outcome:      models.OutcomeSuccess,
			TriggeredAt:  time.Now().Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.RecordGeneration(&models.GenerationRecord{
		RunID:        "other",
		ScheduleKind: models.KindInvoice,
		ScheduleID:   1,
		Trigger:      models.TriggerManual,
		Outcome:      models.OutcomeFailure,
		TriggeredAt:  time.Now(),
	}))

	recs, err := s.ListGenerations(ref, 10)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
	for _, rec := range recs {
		assert.Equal(t, ref.ID, rec.ScheduleID)
		assert.Equal(t, ref.Kind, rec.ScheduleKind)
	}
}
