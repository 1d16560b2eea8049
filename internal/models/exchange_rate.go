package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate stores "1 Base = Rate Quote" for one calendar day.
// Date is normalized to local midnight before storage and lookup.
// Rows for Base == Quote are never stored; that pair is short-circuited
// to 1 before any lookup.
type ExchangeRate struct {
	Date  time.Time       `gorm:"primaryKey" json:"date"`
	Base  string          `gorm:"primaryKey;size:8" json:"base"`
	Quote string          `gorm:"primaryKey;size:8" json:"quote"`
	Rate  decimal.Decimal `gorm:"type:decimal(24,10);not null" json:"rate"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
