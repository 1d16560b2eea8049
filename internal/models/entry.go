package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EntryTypeExpense = "expense"
	EntryTypeIncome  = "income"
)

// Entry is a single expense or income record attributed to one account.
//
// The Original* fields are the conversion snapshot: the record's amount
// frozen in the default currency of the moment it was reconciled. They stay
// NULL until the reconciliation job resolves a rate for the entry's day.
type Entry struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	Account  string          `gorm:"size:64;index;not null" json:"account"`
	Amount   decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Currency string          `gorm:"size:8;not null" json:"currency"`
	Category string          `gorm:"size:32;index" json:"category"`
	Date     time.Time       `gorm:"index;not null" json:"date"`
	Type     string          `gorm:"size:16;index;not null" json:"type"` // expense / income
	Comment  string          `gorm:"size:255" json:"comment"`

	OriginalCurrency *string          `gorm:"size:8" json:"original_currency"`
	OriginalRate     *decimal.Decimal `gorm:"type:decimal(24,10)" json:"original_rate"`
	OriginalAmount   *decimal.Decimal `gorm:"type:decimal(20,2)" json:"original_amount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reconciled reports whether the conversion snapshot is already filled.
func (e *Entry) Reconciled() bool { return e.OriginalRate != nil }
