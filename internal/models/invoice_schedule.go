package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CustomItem is a free-form invoice line on a schedule template. Amount is
// derived from Quantity and UnitPrice and is never taken from the caller.
type CustomItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// CustomItems is an ordered list of custom lines stored as a JSON column.
type CustomItems []CustomItem

func (c CustomItems) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	b, err := json.Marshal(c)
	return string(b), err
}

func (c *CustomItems) Scan(value interface{}) error {
	return scanJSON(value, c)
}

// InvoiceTemplate describes what an occurrence of a recurring invoice
// schedule puts on the generated invoice.
type InvoiceTemplate struct {
	IncludeRent     bool        `json:"include_rent"`
	IncludeServices bool        `json:"include_services"`
	ServiceIDs      StringList  `json:"service_ids" gorm:"type:json"`
	CustomItems     CustomItems `json:"custom_items" gorm:"type:json"`
	DaysUntilDue    int         `json:"days_until_due"`
	Notes           string      `json:"notes"`
}

// NormalizeAmounts recomputes every custom item amount from its factors.
// Called on every write path so a stored amount can never drift from
// quantity x unit price.
func (t *InvoiceTemplate) NormalizeAmounts() {
	for i := range t.CustomItems {
		item := &t.CustomItems[i]
		item.Amount = item.Quantity.Mul(item.UnitPrice)
	}
}

type RecurringInvoiceSchedule struct {
	gorm.Model
	ContractID uint            `json:"contract_id" gorm:"index;not null"`
	AutoSend   bool            `json:"auto_send"`
	Template   InvoiceTemplate `json:"template" gorm:"embedded"`
	Recurrence RecurrenceRule  `json:"recurrence" gorm:"embedded"`
}

func (s *RecurringInvoiceSchedule) Ref() ScheduleRef {
	return ScheduleRef{Kind: KindInvoice, ID: s.ID}
}

func (s *RecurringInvoiceSchedule) Rule() *RecurrenceRule {
	return &s.Recurrence
}

func (s *RecurringInvoiceSchedule) Validate() error {
	if s.ContractID == 0 {
		return fmt.Errorf("contract_id is required")
	}
	if s.Template.DaysUntilDue < 0 {
		return fmt.Errorf("days_until_due must not be negative")
	}
	for i, item := range s.Template.CustomItems {
		if item.Description == "" {
			return fmt.Errorf("custom item %d: description is required", i)
		}
		if item.Quantity.IsNegative() || item.UnitPrice.IsNegative() {
			return fmt.Errorf("custom item %d: quantity and unit price must not be negative", i)
		}
	}
	return s.Recurrence.Validate(false)
}
