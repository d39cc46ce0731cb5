// Package invoice materializes due occurrences of recurring invoice
// schedules into persisted invoices.
package invoice

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mdung/RentMaster-sub002/internal/models"
	"github.com/mdung/RentMaster-sub002/internal/scheduler"
)

// Sender delivers a rendered invoice email. Satisfied by mail.Mailer.
type Sender interface {
	SendHTML(to []string, subject, body string) error
}

type Generator struct {
	db     *gorm.DB
	mailer Sender // nil disables auto-send
	log    zerolog.Logger
	tmpl   *template.Template

	Now func() time.Time
}

func NewGenerator(db *gorm.DB, mailer Sender, log zerolog.Logger) *Generator {
	return &Generator{
		db:     db,
		mailer: mailer,
		log:    log,
		tmpl:   template.Must(template.New("invoice").Parse(invoiceEmailTemplate)),
		Now:    time.Now,
	}
}

// Generate implements scheduler.Producer for invoice schedules: it builds
// the invoice from the schedule template and the contract's current pricing,
// persists it, and emails it to the tenant when auto-send is on.
//
// A failed email does not fail the run; the invoice already exists and
// failing here would create a duplicate on retry.
func (g *Generator) Generate(ctx context.Context, s scheduler.Schedule) (string, error) {
	sched, ok := s.(*models.RecurringInvoiceSchedule)
	if !ok {
		return "", fmt.Errorf("invoice generator received %T", s)
	}

	var contract models.Contract
	if err := g.db.WithContext(ctx).First(&contract, sched.ContractID).Error; err != nil {
		return "", fmt.Errorf("loading contract %d: %w", sched.ContractID, err)
	}

	lines := buildLines(&sched.Template, &contract)
	if len(lines) == 0 {
		return "", fmt.Errorf("schedule %d produces an empty invoice", sched.ID)
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Amount)
	}

	now := g.Now()
	inv := &models.Invoice{
		Number:     newInvoiceNumber(now),
		ContractID: contract.ID,
		ScheduleID: sched.ID,
		IssueDate:  now,
		DueDate:    now.AddDate(0, 0, sched.Template.DaysUntilDue),
		Lines:      lines,
		Total:      total,
		Notes:      sched.Template.Notes,
	}
	if err := g.db.WithContext(ctx).Create(inv).Error; err != nil {
		return "", fmt.Errorf("persisting invoice: %w", err)
	}

	if sched.AutoSend && g.mailer != nil && contract.TenantEmail != "" {
		if err := g.sendInvoice(inv, &contract); err != nil {
			g.log.Warn().Err(err).Str("invoice", inv.Number).Msg("invoice created but email delivery failed")
		} else {
			inv.Sent = true
			if err := g.db.WithContext(ctx).Save(inv).Error; err != nil {
				g.log.Warn().Err(err).Str("invoice", inv.Number).Msg("failed to mark invoice as sent")
			}
		}
	}

	return fmt.Sprintf("invoice %s, total %s", inv.Number, inv.Total.StringFixed(2)), nil
}

func buildLines(t *models.InvoiceTemplate, contract *models.Contract) models.InvoiceLines {
	var lines models.InvoiceLines

	if t.IncludeRent {
		lines = append(lines, models.InvoiceLine{
			Description: "Rent " + contract.UnitLabel,
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   contract.RentAmount,
			Amount:      contract.RentAmount,
		})
	}

	if t.IncludeServices {
		// An empty selection means every service on the contract.
		selected := make(map[string]bool, len(t.ServiceIDs))
		for _, id := range t.ServiceIDs {
			selected[id] = true
		}
		for _, svc := range contract.Services {
			if len(selected) > 0 && !selected[svc.ID] {
				continue
			}
			lines = append(lines, models.InvoiceLine{
				Description: svc.Name,
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   svc.Amount,
				Amount:      svc.Amount,
			})
		}
	}

	for _, item := range t.CustomItems {
		lines = append(lines, models.InvoiceLine{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			// Derived, never copied from the stored item.
			Amount: item.Quantity.Mul(item.UnitPrice),
		})
	}

	return lines
}

func newInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("INV-%s-%s", now.Format("200601"), suffix)
}

func (g *Generator) sendInvoice(inv *models.Invoice, contract *models.Contract) error {
	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, map[string]interface{}{
		"Invoice":  inv,
		"Contract": contract,
	}); err != nil {
		return fmt.Errorf("rendering invoice email: %w", err)
	}

	subject := fmt.Sprintf("Invoice %s due %s", inv.Number, inv.DueDate.Format("2006-01-02"))
	return g.mailer.SendHTML([]string{contract.TenantEmail}, subject, buf.String())
}

const invoiceEmailTemplate = `
<html>
<body>
<h2>Invoice {{.Invoice.Number}}</h2>
<p>Dear {{.Contract.TenantName}},</p>
<p>Please find your invoice below. Payment is due by {{.Invoice.DueDate.Format "2006-01-02"}}.</p>
<table border="1" cellpadding="4" cellspacing="0">
  <tr><th>Description</th><th>Qty</th><th>Unit Price</th><th>Amount</th></tr>
  {{range .Invoice.Lines}}
  <tr>
    <td>{{.Description}}</td>
    <td>{{.Quantity}}</td>
    <td>{{.UnitPrice}}</td>
    <td>{{.Amount}}</td>
  </tr>
  {{end}}
  <tr><td colspan="3"><b>Total</b></td><td><b>{{.Invoice.Total}}</b></td></tr>
</table>
{{if .Invoice.Notes}}<p>{{.Invoice.Notes}}</p>{{end}}
</body>
</html>
`
