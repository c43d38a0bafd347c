package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/joseph-ayodele/receipt-ledger/constants"
	"github.com/joseph-ayodele/receipt-ledger/internal/journal"
)

func statusCell(s constants.OutcomeStatus) string {
	switch s {
	case constants.StatusOK:
		return text.FgGreen.Sprint(string(s))
	case constants.StatusPartial:
		return text.FgYellow.Sprint(string(s))
	case constants.StatusFailed:
		return text.FgRed.Sprint(string(s))
	default:
		return text.FgHiBlack.Sprint(string(s))
	}
}

// WriteSummary renders one row per receipt plus a totals footer.
func WriteSummary(w io.Writer, r *Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := table.Row{"File", "Status", "Vendor", "Date", "Amount", "Conf", "Detail"}
	t.AppendHeader(header)

	for _, o := range r.Outcomes {
		detail := ""
		switch {
		case o.Err != nil:
			detail = o.Err.Error()
		case len(o.Missing) > 0:
			detail = "missing " + strings.Join(o.Missing, ", ")
		}
		conf := ""
		if o.Status == constants.StatusOK || o.Status == constants.StatusPartial {
			conf = fmt.Sprintf("%.2f", o.Confidence)
		}
		t.AppendRow(table.Row{
			filepath.Base(o.Path),
			statusCell(o.Status),
			o.Record.Vendor,
			o.Record.DateString(),
			o.Record.AmountString(),
			conf,
			truncate(detail, 60),
		})
	}

	t.AppendSeparator()
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d receipts", len(r.Outcomes)),
		fmt.Sprintf("%d ok", r.Count(constants.StatusOK)),
		fmt.Sprintf("%d partial", r.Count(constants.StatusPartial)),
		fmt.Sprintf("%d failed", r.Count(constants.StatusFailed)),
		fmt.Sprintf("%d skipped", r.Count(constants.StatusSkipped)),
		"",
		r.Finished.Sub(r.Started).Round(time.Millisecond).String(),
	})

	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	t.Render()
}

// WriteJournal renders journal entries, newest first.
func WriteJournal(w io.Writer, entries []journal.Entry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Processed", "File", "Status", "Vendor", "Date", "Amount", "Conf", "Run", "Error"})
	for _, e := range entries {
		run := e.RunID
		if len(run) > 8 {
			run = run[:8]
		}
		t.AppendRow(table.Row{
			e.ProcessedAt.Local().Format("2006-01-02 15:04:05"),
			filepath.Base(e.Path),
			statusCell(e.Status),
			e.Vendor,
			e.Date,
			e.Amount,
			fmt.Sprintf("%.2f", e.Confidence),
			run,
			truncate(e.Error, 40),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	t.Render()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
