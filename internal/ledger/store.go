// Package ledger persists ExpenseRecords into durable tabular files.
//
// Every store follows the same protocol: create the file with a header when it is
// absent or empty, append a row in the file's own layout when it is readable, and
// replace it with the header plus the new row only when it cannot be parsed at all.
// A parseable file with an unrecognized header is left alone and the append fails with
// common.ErrUnknownLayout. Full rewrites go through a temporary file and an atomic rename.
package ledger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

// Column names, in ledger order.
const (
	ColDate    = "Date"
	ColVendor  = "Vendor"
	ColAmount  = "Amount"
	ColNotes   = "Notes"
	ColRawText = "Raw Text"
)

// Store appends records to one ledger file.
type Store interface {
	Append(ctx context.Context, rec entity.ExpenseRecord) error
	Target() string
}

// Options shared by every store.
type Options struct {
	IncludeRawText bool   // layout of new ledgers; existing files keep their own
	RawTextLimit   int    // runes kept in the Raw Text column; 0 keeps everything
	SheetName      string // XLSX only, applied when a workbook is created
	Logger         *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Layout is the column set of a ledger file. Both layouts share the first four columns.
type Layout struct {
	RawText bool
}

// Header returns the column order of l.
func (l Layout) Header() []string {
	h := []string{ColDate, ColVendor, ColAmount, ColNotes}
	if l.RawText {
		h = append(h, ColRawText)
	}
	return h
}

// Layout is the layout new ledgers are created with.
func (o Options) Layout() Layout { return Layout{RawText: o.IncludeRawText} }

// Header returns the configured column order.
func (o Options) Header() []string { return o.Layout().Header() }

// render lays rec out in the columns of l.
func (o Options) render(rec entity.ExpenseRecord, l Layout) []string {
	row := []string{rec.DateString(), rec.Vendor, rec.AmountString(), rec.Notes}
	if l.RawText {
		row = append(row, Excerpt(rec.RawText, o.RawTextLimit))
	}
	return row
}

const bom = "\ufeff"

// NormalizeHeader strips a byte-order mark and surrounding spaces from header cells and
// maps the spelling "RawText" onto ColRawText. Trailing empty cells are dropped.
func NormalizeHeader(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if i == 0 {
			c = strings.TrimPrefix(c, bom)
		}
		c = strings.TrimSpace(c)
		if strings.EqualFold(c, "RawText") {
			c = ColRawText
		}
		out[i] = c
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

// ParseHeader recognizes a ledger header row.
func ParseHeader(cells []string) (Layout, bool) {
	got := NormalizeHeader(cells)
	for _, l := range []Layout{{RawText: false}, {RawText: true}} {
		if slices.Equal(got, l.Header()) {
			return l, true
		}
	}
	return Layout{}, false
}

func unknownLayout(path string, header []string) error {
	return common.NewAppError(common.CodeLedger,
		fmt.Sprintf("%s: unrecognized header %q", path, NormalizeHeader(header)),
		common.ErrUnknownLayout)
}

// Excerpt truncates s to limit runes, marking the cut with "...".
func Excerpt(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

// writeFileAtomic writes through a temp file in the target directory and renames it
// over path, so readers never observe a half-written ledger.
func writeFileAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp ledger: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp ledger: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}
