// Package extract turns raw OCR text into an ExpenseRecord using independent,
// best-effort heuristics per field. Nothing in this package performs I/O and no
// extractor returns an error: a field that cannot be determined degrades to its
// sentinel or absent value.
package extract

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

// VendorPolicy names a vendor heuristic.
type VendorPolicy string

const (
	VendorFirstLine       VendorPolicy = "first_line"
	VendorFirstNonNumeric VendorPolicy = "first_non_numeric"
)

// AmountPolicy names an amount heuristic.
type AmountPolicy string

const (
	AmountLabeledMax    AmountPolicy = "labeled_max"
	AmountFirstCurrency AmountPolicy = "first_currency"
)

// DefaultNotes is the provenance annotation written on every record.
const DefaultNotes = "scanned automatically"

// VendorFunc, DateFunc and AmountFunc are the per-field strategies.
type (
	VendorFunc func(text string) string
	DateFunc   func(text string) *time.Time
	AmountFunc func(text string) decimal.NullDecimal
)

// Config selects the strategies. Zero values select the defaults.
type Config struct {
	VendorPolicy VendorPolicy
	AmountPolicy AmountPolicy
	DateLayouts  []string
	Notes        string
}

// Extractor derives ExpenseRecords from OCR text.
type Extractor struct {
	vendor VendorFunc
	date   DateFunc
	amount AmountFunc
	notes  string
}

// New builds an Extractor. It fails only for unknown policy names.
func New(cfg Config) (*Extractor, error) {
	e := &Extractor{notes: cfg.Notes}
	if e.notes == "" {
		e.notes = DefaultNotes
	}

	switch cfg.VendorPolicy {
	case "", VendorFirstLine:
		e.vendor = FirstLineVendor
	case VendorFirstNonNumeric:
		e.vendor = FirstNonNumericVendor
	default:
		return nil, fmt.Errorf("unknown vendor policy %q", cfg.VendorPolicy)
	}

	switch cfg.AmountPolicy {
	case "", AmountLabeledMax:
		e.amount = LabeledMaxAmount
	case AmountFirstCurrency:
		e.amount = FirstCurrencyAmount
	default:
		return nil, fmt.Errorf("unknown amount policy %q", cfg.AmountPolicy)
	}

	layouts := cfg.DateLayouts
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	layouts = append([]string(nil), layouts...)
	e.date = func(text string) *time.Time { return ExtractDate(text, layouts) }

	return e, nil
}

// Extract never fails; empty or garbled text yields a record with the sentinel vendor
// and absent date and amount.
func (e *Extractor) Extract(text string) entity.ExpenseRecord {
	return entity.ExpenseRecord{
		Vendor:  e.vendor(text),
		Date:    e.date(text),
		Amount:  e.amount(text),
		Notes:   e.notes,
		RawText: text,
	}
}
