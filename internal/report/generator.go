// Package report renders scheduled reports and dispatches them to their
// recipient lists.
package report

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mdung/RentMaster-sub002/internal/models"
	"github.com/mdung/RentMaster-sub002/internal/scheduler"
)

// Sender delivers a rendered report. Satisfied by mail.Mailer.
type Sender interface {
	SendHTML(to []string, subject, body string) error
	SendText(to []string, subject, body string) error
}

type Generator struct {
	db            *gorm.DB
	mailer        Sender
	log           zerolog.Logger
	htmlTemplates map[models.ReportType]*htmltemplate.Template
	textTemplates map[models.ReportType]*texttemplate.Template

	Now func() time.Time
}

func NewGenerator(db *gorm.DB, mailer Sender, log zerolog.Logger) *Generator {
	return &Generator{
		db:     db,
		mailer: mailer,
		log:    log,
		htmlTemplates: map[models.ReportType]*htmltemplate.Template{
			models.ReportTypeRevenue:     htmltemplate.Must(htmltemplate.New("revenue").Parse(revenueTemplate)),
			models.ReportTypeOutstanding: htmltemplate.Must(htmltemplate.New("outstanding").Parse(outstandingTemplate)),
			models.ReportTypeActivity:    htmltemplate.Must(htmltemplate.New("activity").Parse(activityTemplate)),
		},
		textTemplates: map[models.ReportType]*texttemplate.Template{
			models.ReportTypeRevenue:     texttemplate.Must(texttemplate.New("revenue").Parse(revenueTextTemplate)),
			models.ReportTypeOutstanding: texttemplate.Must(texttemplate.New("outstanding").Parse(outstandingTextTemplate)),
			models.ReportTypeActivity:    texttemplate.Must(texttemplate.New("activity").Parse(activityTextTemplate)),
		},
		Now: time.Now,
	}
}

type reportData struct {
	Name      string
	StartTime time.Time
	EndTime   time.Time
	Filters   models.FilterMap

	InvoiceCount int
	InvoiceTotal decimal.Decimal
	Invoices     []models.Invoice

	Records      []models.GenerationRecord
	SuccessCount int
	FailureCount int
}

// Generate implements scheduler.Producer for report schedules. Unlike
// invoice generation, a failed dispatch fails the whole run: nothing was
// materialized, so the next pass can safely retry.
func (g *Generator) Generate(ctx context.Context, s scheduler.Schedule) (string, error) {
	sched, ok := s.(*models.ScheduledReportSchedule)
	if !ok {
		return "", fmt.Errorf("report generator received %T", s)
	}

	if g.mailer == nil {
		return "", fmt.Errorf("no mailer configured")
	}

	now := g.Now()
	start := now.AddDate(0, -1, 0)
	if last := sched.Recurrence.LastOccurrence; last != nil {
		start = *last
	}

	data, err := g.collect(ctx, sched, start, now)
	if err != nil {
		return "", fmt.Errorf("collecting report data: %w", err)
	}

	body, err := g.render(sched, data)
	if err != nil {
		return "", err
	}

	subject := fmt.Sprintf("RentMaster %s report (%s - %s)",
		sched.ReportType,
		start.Format("2006-01-02"),
		now.Format("2006-01-02"))

	send := g.mailer.SendHTML
	if sched.Format == models.FormatText {
		send = g.mailer.SendText
	}
	if err := send(sched.Recipients, subject, body); err != nil {
		return "", fmt.Errorf("dispatching report: %w", err)
	}

	return fmt.Sprintf("report %q sent to %d recipients", sched.Name, len(sched.Recipients)), nil
}

func (g *Generator) render(sched *models.ScheduledReportSchedule, data *reportData) (string, error) {
	var buf bytes.Buffer
	if sched.Format == models.FormatText {
		tmpl, ok := g.textTemplates[sched.ReportType]
		if !ok {
			return "", fmt.Errorf("unknown report type: %s", sched.ReportType)
		}
		if err := tmpl.Execute(&buf, data); err != nil {
			return "", fmt.Errorf("rendering report: %w", err)
		}
		return buf.String(), nil
	}

	tmpl, ok := g.htmlTemplates[sched.ReportType]
	if !ok {
		return "", fmt.Errorf("unknown report type: %s", sched.ReportType)
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return buf.String(), nil
}

func (g *Generator) collect(ctx context.Context, sched *models.ScheduledReportSchedule, start, end time.Time) (*reportData, error) {
	data := &reportData{
		Name:         sched.Name,
		StartTime:    start,
		EndTime:      end,
		Filters:      sched.Filters,
		InvoiceTotal: decimal.Zero,
	}

	switch sched.ReportType {
	case models.ReportTypeRevenue:
		var invoices []models.Invoice
		if err := g.db.WithContext(ctx).
			Where("issue_date > ? AND issue_date <= ?", start, end).
			Order("issue_date").Find(&invoices).Error; err != nil {
			return nil, err
		}
		data.Invoices = invoices

	case models.ReportTypeOutstanding:
		var invoices []models.Invoice
		if err := g.db.WithContext(ctx).
			Where("due_date <= ?", end).
			Order("due_date").Find(&invoices).Error; err != nil {
			return nil, err
		}
		data.Invoices = invoices

	case models.ReportTypeActivity:
		var records []models.GenerationRecord
		if err := g.db.WithContext(ctx).
			Where("triggered_at > ? AND triggered_at <= ?", start, end).
			Order("triggered_at").Find(&records).Error; err != nil {
			return nil, err
		}
		data.Records = records
		for _, rec := range records {
			if rec.Outcome == models.OutcomeSuccess {
				data.SuccessCount++
			} else {
				data.FailureCount++
			}
		}
	}

	data.InvoiceCount = len(data.Invoices)
	for _, inv := range data.Invoices {
		data.InvoiceTotal = data.InvoiceTotal.Add(inv.Total)
	}

	return data, nil
}

const reportHeader = `
<html>
<body>
<h2>{{.Name}}</h2>
<p>Period: {{.StartTime.Format "2006-01-02"}} to {{.EndTime.Format "2006-01-02"}}</p>
{{if .Filters}}<p>Filters:
{{- range $k, $v := .Filters}} {{$k}}={{$v}}{{end}}</p>{{end}}
`

const revenueTemplate = reportHeader + `
<p>{{.InvoiceCount}} invoices issued, total {{.InvoiceTotal}}.</p>
<table border="1" cellpadding="4" cellspacing="0">
  <tr><th>Number</th><th>Issued</th><th>Due</th><th>Total</th></tr>
  {{range .Invoices}}
  <tr>
    <td>{{.Number}}</td>
    <td>{{.IssueDate.Format "2006-01-02"}}</td>
    <td>{{.DueDate.Format "2006-01-02"}}</td>
    <td>{{.Total}}</td>
  </tr>
  {{end}}
</table>
</body>
</html>
`

const outstandingTemplate = reportHeader + `
<p>{{.InvoiceCount}} invoices past due, total {{.InvoiceTotal}}.</p>
<table border="1" cellpadding="4" cellspacing="0">
  <tr><th>Number</th><th>Due</th><th>Total</th><th>Sent</th></tr>
  {{range .Invoices}}
  <tr>
    <td>{{.Number}}</td>
    <td>{{.DueDate.Format "2006-01-02"}}</td>
    <td>{{.Total}}</td>
    <td>{{.Sent}}</td>
  </tr>
  {{end}}
</table>
</body>
</html>
`

const activityTemplate = reportHeader + `
<p>{{.SuccessCount}} successful and {{.FailureCount}} failed generation runs.</p>
<table border="1" cellpadding="4" cellspacing="0">
  <tr><th>Run</th><th>Schedule</th><th>Trigger</th><th>Outcome</th><th>Detail</th></tr>
  {{range .Records}}
  <tr>
    <td>{{.RunID}}</td>
    <td>{{.ScheduleKind}}/{{.ScheduleID}}</td>
    <td>{{.Trigger}}</td>
    <td>{{.Outcome}}</td>
    <td>{{.Detail}}</td>
  </tr>
  {{end}}
</table>
</body>
</html>
`

const textHeader = `{{.Name}}
Period: {{.StartTime.Format "2006-01-02"}} to {{.EndTime.Format "2006-01-02"}}
`

const revenueTextTemplate = textHeader + `
{{.InvoiceCount}} invoices issued, total {{.InvoiceTotal}}.
{{range .Invoices}}{{.Number}}  issued {{.IssueDate.Format "2006-01-02"}}  due {{.DueDate.Format "2006-01-02"}}  {{.Total}}
{{end}}`

const outstandingTextTemplate = textHeader + `
{{.InvoiceCount}} invoices past due, total {{.InvoiceTotal}}.
{{range .Invoices}}{{.Number}}  due {{.DueDate.Format "2006-01-02"}}  {{.Total}}  sent={{.Sent}}
{{end}}`

const activityTextTemplate = textHeader + `
{{.SuccessCount}} successful and {{.FailureCount}} failed generation runs.
{{range .Records}}{{.RunID}}  {{.ScheduleKind}}/{{.ScheduleID}}  {{.Trigger}}  {{.Outcome}}  {{.Detail}}
{{end}}`
