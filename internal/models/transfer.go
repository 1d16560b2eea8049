package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer moves money between two accounts. For cross-currency transfers
// the destination leg carries its own amount and currency; when ToAmount is
// NULL the destination is credited with Amount.
//
// A transfer whose source and destination name the same account
// (case-insensitively) is recorded but never moves any balance.
type Transfer struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	FromAccount string          `gorm:"size:64;index;not null" json:"from_account"`
	ToAccount   string          `gorm:"size:64;index;not null" json:"to_account"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Currency    string          `gorm:"size:8;not null" json:"currency"`
	Date        time.Time       `gorm:"index;not null" json:"date"`
	Comment     string          `gorm:"size:255" json:"comment"`

	ToAmount   *decimal.Decimal `gorm:"type:decimal(20,8)" json:"to_amount"`
	ToCurrency *string          `gorm:"size:8" json:"to_currency"`

	OriginalCurrency *string          `gorm:"size:8" json:"original_currency"`
	OriginalRate     *decimal.Decimal `gorm:"type:decimal(24,10)" json:"original_rate"`
	OriginalAmount   *decimal.Decimal `gorm:"type:decimal(20,2)" json:"original_amount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reconciled reports whether the conversion snapshot is already filled.
func (t *Transfer) Reconciled() bool { return t.OriginalRate != nil }
