package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceLine struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

type InvoiceLines []InvoiceLine

func (l InvoiceLines) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *InvoiceLines) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// Invoice is one materialized occurrence of a recurring invoice schedule.
type Invoice struct {
	gorm.Model
	Number     string          `json:"number" gorm:"uniqueIndex;not null"`
	ContractID uint            `json:"contract_id" gorm:"index;not null"`
	ScheduleID uint            `json:"schedule_id" gorm:"index"`
	IssueDate  time.Time       `json:"issue_date"`
	DueDate    time.Time       `json:"due_date"`
	Lines      InvoiceLines    `json:"lines" gorm:"type:json"`
	Total      decimal.Decimal `json:"total" gorm:"type:decimal(20,4)"`
	Notes      string          `json:"notes"`
	Sent       bool            `json:"sent"`
}
