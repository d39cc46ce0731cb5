package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContractService is a billable service attached to a contract (water,
// parking, cleaning, ...). ServiceIDs on an invoice template select from
// these by ID.
type ContractService struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type ContractServices []ContractService

func (c ContractServices) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	b, err := json.Marshal(c)
	return string(b), err
}

func (c *ContractServices) Scan(value interface{}) error {
	return scanJSON(value, c)
}

// Contract holds the tenant and pricing data invoice generation reads.
// The scheduler itself only ever references contracts by ID.
type Contract struct {
	gorm.Model
	TenantName  string           `json:"tenant_name" gorm:"not null"`
	TenantEmail string           `json:"tenant_email"`
	UnitLabel   string           `json:"unit_label"`
	RentAmount  decimal.Decimal  `json:"rent_amount" gorm:"type:decimal(20,4)"`
	Services    ContractServices `json:"services" gorm:"type:json"`
}
