package report

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mdung/RentMaster-sub002/internal/models"
)

type fakeSender struct {
	sent []sentMail
	fail bool
}

type sentMail struct {
	to      []string
	subject string
	body    string
	format  string
}

func (f *fakeSender) SendHTML(to []string, subject, body string) error {
	return f.record(to, subject, body, "html")
}

func (f *fakeSender) SendText(to []string, subject, body string) error {
	return f.record(to, subject, body, "text")
}

func (f *fakeSender) record(to []string, subject, body, format string) error {
	if f.fail {
		return fmt.Errorf("smtp unavailable")
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body, format: format})
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Invoice{},
		&models.GenerationRecord{},
	))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedInvoice(t *testing.T, db *gorm.DB, number string, issued time.Time, total string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Invoice{
		Number:     number,
		ContractID: 1,
		IssueDate:  issued,
		DueDate:    issued.AddDate(0, 0, 14),
		Total:      decimal.RequireFromString(total),
	}).Error)
}

func revenueSchedule(last *time.Time) *models.ScheduledReportSchedule {
	s := &models.ScheduledReportSchedule{
		Name:       "monthly revenue",
		ReportType: models.ReportTypeRevenue,
		Recipients: models.StringList{"owner@example.com", "ops@example.com"},
		Format:     models.FormatHTML,
		Recurrence: models.RecurrenceRule{
			Frequency:      models.FrequencyMonthly,
			DayOfMonth:     1,
			LastOccurrence: last,
			Active:         true,
		},
	}
	s.ID = 5
	return s
}

func TestGenerateRevenueReportCoversPeriodSinceLastRun(t *testing.T) {
	db := newTestDB(t)
	sender := &fakeSender{}
	now := time.Date(2025, time.April, 1, 8, 0, 0, 0, time.UTC)
	last := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)

	seedInvoice(t, db, "INV-1", last.Add(-time.Hour), "100.00")    // before period
	seedInvoice(t, db, "INV-2", last.AddDate(0, 0, 10), "250.00") // in period
	seedInvoice(t, db, "INV-3", last.AddDate(0, 0, 20), "300.00") // in period
	seedInvoice(t, db, "INV-4", now.Add(time.Hour), "400.00")     // after period

	g := NewGenerator(db, sender, zerolog.Nop())
	g.Now = func() time.Time { return now }

	detail, err := g.Generate(context.Background(), revenueSchedule(&last))
	require.NoError(t, err)
	assert.Contains(t, detail, "2 recipients")

	require.Len(t, sender.sent, 1)
	mail := sender.sent[0]
	assert.Equal(t, []string{"owner@example.com", "ops@example.com"}, mail.to)
	assert.Contains(t, mail.subject, "revenue")
	assert.Contains(t, mail.body, "2 invoices issued")
	assert.Contains(t, mail.body, "550")
	assert.Contains(t, mail.body, "INV-2")
	assert.NotContains(t, mail.body, "INV-1")
	assert.NotContains(t, mail.body, "INV-4")
}

func TestGenerateActivityReportCountsOutcomes(t *testing.T) {
	db := newTestDB(t)
	sender := &fakeSender{}
	now := time.Date(2025, time.April, 1, 8, 0, 0, 0, time.UTC)

	for i, outcome := range []models.Outcome{models.OutcomeSuccess, models.OutcomeSuccess, models.OutcomeFailure} {
		require.NoError(t, db.Create(&models.GenerationRecord{
			RunID:        fmt.Sprintf("run-%d", i),
			ScheduleKind: models.KindInvoice,
			ScheduleID:   1,
			Trigger:      models.TriggerScheduled,
			Outcome:      outcome,
			TriggeredAt:  now.AddDate(0, 0, -i-1),
		}).Error)
	}

	sched := revenueSchedule(nil)
	sched.ReportType = models.ReportTypeActivity

	g := NewGenerator(db, sender, zerolog.Nop())
	g.Now = func() time.Time { return now }

	_, err := g.Generate(context.Background(), sched)
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].body, "2 successful and 1 failed")
}

func TestGenerateTextFormatSendsPlainText(t *testing.T) {
	db := newTestDB(t)
	sender := &fakeSender{}
	now := time.Date(2025, time.April, 1, 8, 0, 0, 0, time.UTC)

	seedInvoice(t, db, "INV-7", now.AddDate(0, 0, -5), "120.00")

	sched := revenueSchedule(nil)
	sched.Format = models.FormatText

	g := NewGenerator(db, sender, zerolog.Nop())
	g.Now = func() time.Time { return now }

	_, err := g.Generate(context.Background(), sched)
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "text", sender.sent[0].format)
	assert.Contains(t, sender.sent[0].body, "INV-7")
	assert.NotContains(t, sender.sent[0].body, "<table")
}

func TestGenerateDispatchFailureFailsRun(t *testing.T) {
	db := newTestDB(t)
	sender := &fakeSender{fail: true}
	last := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	g := NewGenerator(db, sender, zerolog.Nop())
	_, err := g.Generate(context.Background(), revenueSchedule(&last))
	assert.Error(t, err, "nothing was materialized, the run must fail so the next pass retries")
}

func TestGenerateWithoutMailerFails(t *testing.T) {
	db := newTestDB(t)
	g := NewGenerator(db, nil, zerolog.Nop())
	_, err := g.Generate(context.Background(), revenueSchedule(nil))
	assert.Error(t, err)
}
