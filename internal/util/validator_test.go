package util

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateAmount_Positive(t *testing.T) {
	testCases := []string{"0.01", "1.0", "100.5", "9999999.99"}

	for _, amount := range testCases {
		err := ValidateAmount(decimal.RequireFromString(amount))
		if err != nil {
			t.Errorf("ValidateAmount(%s) error = %v, want nil", amount, err)
		}
	}
}

func TestValidateAmount_Zero(t *testing.T) {
	err := ValidateAmount(decimal.Zero)

	if err == nil {
		t.Error("ValidateAmount(0) error = nil, want error")
	}
}

func TestValidateAmount_Negative(t *testing.T) {
	testCases := []string{"-0.01", "-100", "-9999.99"}

	for _, amount := range testCases {
		err := ValidateAmount(decimal.RequireFromString(amount))
		if err == nil {
			t.Errorf("ValidateAmount(%s) error = nil, want error", amount)
		}
	}
}

func TestValidateAmount_TooLarge(t *testing.T) {
	err := ValidateAmount(decimal.NewFromInt(100000000))

	if err == nil {
		t.Error("ValidateAmount(100000000) error = nil, want error")
	}
}

func TestValidateDate_Valid(t *testing.T) {
	testCases := []string{
		"2024-01-01",
		"2024-12-31",
		"2025-06-15",
	}

	for _, date := range testCases {
		err := ValidateDate(date)
		if err != nil {
			t.Errorf("ValidateDate(%s) error = %v, want nil", date, err)
		}
	}
}

func TestValidateDate_Invalid(t *testing.T) {
	testCases := []string{
		"",
		"2024-13-01",
		"01/02/2024",
		"yesterday",
	}

	for _, date := range testCases {
		err := ValidateDate(date)
		if err == nil {
			t.Errorf("ValidateDate(%q) error = nil, want error", date)
		}
	}
}

func TestValidateCurrencyCode_Valid(t *testing.T) {
	testCases := []string{"EUR", "USD", "AMD"}

	for _, code := range testCases {
		err := ValidateCurrencyCode(code)
		if err != nil {
			t.Errorf("ValidateCurrencyCode(%s) error = %v, want nil", code, err)
		}
	}
}

func TestValidateCurrencyCode_Invalid(t *testing.T) {
	testCases := []string{"", "eu", "eur", "EURO", "E1R"}

	for _, code := range testCases {
		err := ValidateCurrencyCode(code)
		if err == nil {
			t.Errorf("ValidateCurrencyCode(%q) error = nil, want error", code)
		}
	}
}

func TestValidateAccountName(t *testing.T) {
	if err := ValidateAccountName("Wallet"); err != nil {
		t.Errorf("ValidateAccountName(Wallet) error = %v, want nil", err)
	}
	if err := ValidateAccountName(""); err == nil {
		t.Error("ValidateAccountName(\"\") error = nil, want error")
	}
}
