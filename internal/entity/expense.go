package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnknownVendor is the sentinel used when no vendor line can be determined.
const UnknownVendor = "Unknown"

// DateLayout is the canonical rendering of ExpenseRecord.Date.
const DateLayout = "2006-01-02"

// ExpenseRecord is the structured result of extracting one receipt.
type ExpenseRecord struct {
	Vendor  string              `json:"vendor"`
	Date    *time.Time          `json:"date,omitempty"` // midnight UTC
	Amount  decimal.NullDecimal `json:"amount"`
	Notes   string              `json:"notes"`
	RawText string              `json:"raw_text,omitempty"`
}

// DateString renders the date as YYYY-MM-DD, or "" when absent.
func (r ExpenseRecord) DateString() string {
	if r.Date == nil {
		return ""
	}
	return r.Date.Format(DateLayout)
}

// AmountString renders the amount with two fractional digits, or "" when absent.
func (r ExpenseRecord) AmountString() string {
	if !r.Amount.Valid {
		return ""
	}
	return r.Amount.Decimal.StringFixed(2)
}

// MissingFields lists the optional fields that extraction could not determine.
func (r ExpenseRecord) MissingFields() []string {
	var missing []string
	if r.Vendor == "" || r.Vendor == UnknownVendor {
		missing = append(missing, "vendor")
	}
	if r.Date == nil {
		missing = append(missing, "date")
	}
	if !r.Amount.Valid {
		missing = append(missing, "amount")
	}
	return missing
}
