package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a money holder (wallet, card, bank account). Entries and
// transfers reference accounts by name, matched case-insensitively.
// Balance carries exactly two fractional digits and is maintained
// exclusively by the ledger engine.
type Account struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(64) COLLATE NOCASE;uniqueIndex;not null" json:"name"`
	Currency  string          `gorm:"size:8;not null" json:"currency"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
