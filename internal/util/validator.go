package util

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// maxAmount caps a single record at ten million units.
var maxAmount = decimal.NewFromInt(10000000)

// ValidateAmount checks that an amount is positive and below the cap.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive, got %s", amount)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("amount too large, got %s", amount)
	}
	return nil
}

// ValidateDate checks a YYYY-MM-DD date string.
func ValidateDate(dateStr string) error {
	if dateStr == "" {
		return fmt.Errorf("date is empty")
	}
	_, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}
	return nil
}

// ValidateCurrencyCode checks a three-letter uppercase currency code.
func ValidateCurrencyCode(code string) error {
	if len(code) != 3 {
		return fmt.Errorf("currency code must be 3 letters, got %q", code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("currency code must be uppercase letters, got %q", code)
		}
	}
	return nil
}

// ValidateAccountName checks an account name (not empty, reasonable length).
func ValidateAccountName(name string) error {
	if name == "" {
		return fmt.Errorf("account name is empty")
	}
	if len(name) > 64 {
		return fmt.Errorf("account name too long, max 64 characters")
	}
	return nil
}
