// Package cli holds the flag wiring shared by the commands.
//
// Flags default to their zero value and only override the loaded configuration when
// given, so precedence stays defaults < environment < config file < flags.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v4"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
)

// Base flags every command accepts.
type Base struct {
	ConfigPath *string
	LogFormat  *string
	LogLevel   *string
}

func RegisterBase(fs *ff.FlagSet) *Base {
	return &Base{
		ConfigPath: fs.StringLong("config", "", "YAML config file (or set RECEIPT_LEDGER_CONFIG)"),
		LogFormat:  fs.StringLong("log-format", "text", "log output: text | json"),
		LogLevel:   fs.StringLong("log-level", "info", "debug | info | warn | error"),
	}
}

// Logger builds the process logger.
func (b *Base) Logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(*b.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", *b.LogLevel)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(*b.LogFormat) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q", *b.LogFormat)
	}
}

// Config loads defaults and environment, then the --config file when given.
func (b *Base) Config() (*common.Config, error) {
	cfg, err := common.LoadConfig()
	if err != nil {
		return nil, err
	}
	if *b.ConfigPath != "" {
		if err := cfg.MergeFile(*b.ConfigPath); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Extraction, OCR and ledger overrides.
type Pipeline struct {
	VendorPolicy *string
	AmountPolicy *string
	Notes        *string

	Engine      *string
	Tesseract   *string
	Lang        *string
	TessdataDir *string
	PSM         *int
	OEM         *int
	Threshold   *int
	OCRTimeout  *time.Duration
	OCRCache    *string
	GeminiModel *string

	CSV          *string
	XLSX         *string
	Sheet        *string
	RawText      *bool
	RawTextLimit *int
}

func RegisterPipeline(fs *ff.FlagSet) *Pipeline {
	return &Pipeline{
		VendorPolicy: fs.StringLong("vendor-policy", "", "first_line | first_non_numeric"),
		AmountPolicy: fs.StringLong("amount-policy", "", "labeled_max | first_currency"),
		Notes:        fs.StringLong("notes", "", "text written to the Notes column"),

		Engine:      fs.StringLong("engine", "", "OCR engine: tesseract | gemini"),
		Tesseract:   fs.StringLong("tesseract", "", "tesseract binary"),
		Lang:        fs.StringLong("lang", "", "tesseract language"),
		TessdataDir: fs.StringLong("tessdata-dir", "", "tesseract data directory"),
		PSM:         fs.IntLong("psm", 0, "tesseract page segmentation mode"),
		OEM:         fs.IntLong("oem", 0, "tesseract engine mode"),
		Threshold:   fs.IntLong("threshold", 0, "binarize images at this gray level (1-255)"),
		OCRTimeout:  fs.DurationLong("ocr-timeout", 0, "per-receipt OCR timeout"),
		OCRCache:    fs.StringLong("ocr-cache", "", "bbolt file caching OCR text by content hash"),
		GeminiModel: fs.StringLong("gemini-model", "", "Gemini model name (key from GEMINI_API_KEY)"),

		CSV:          fs.StringLong("csv", "", "CSV ledger path"),
		XLSX:         fs.StringLong("xlsx", "", "XLSX ledger path"),
		Sheet:        fs.StringLong("sheet", "", "sheet name for new workbooks"),
		RawText:      fs.BoolLong("raw-text", "add a Raw Text column"),
		RawTextLimit: fs.IntLong("raw-text-limit", -1, "characters kept in Raw Text (0 = all)"),
	}
}

// Apply overlays the flags that were given.
func (p *Pipeline) Apply(cfg *common.Config) {
	setString(&cfg.Extract.VendorPolicy, *p.VendorPolicy)
	setString(&cfg.Extract.AmountPolicy, *p.AmountPolicy)
	setString(&cfg.Extract.Notes, *p.Notes)

	setString(&cfg.OCR.Engine, *p.Engine)
	setString(&cfg.OCR.Tesseract, *p.Tesseract)
	setString(&cfg.OCR.TesseractLang, *p.Lang)
	setString(&cfg.OCR.TessdataDir, *p.TessdataDir)
	setString(&cfg.OCR.CachePath, *p.OCRCache)
	setString(&cfg.OCR.GeminiModel, *p.GeminiModel)
	if *p.PSM > 0 {
		cfg.OCR.PSM = *p.PSM
	}
	if *p.OEM > 0 {
		cfg.OCR.OEM = *p.OEM
	}
	if *p.Threshold != 0 {
		cfg.OCR.Threshold = *p.Threshold
	}
	if *p.OCRTimeout != 0 {
		cfg.OCR.Timeout = *p.OCRTimeout
	}

	setString(&cfg.Ledger.CSVPath, *p.CSV)
	setString(&cfg.Ledger.XLSXPath, *p.XLSX)
	setString(&cfg.Ledger.SheetName, *p.Sheet)
	if *p.RawText {
		cfg.Ledger.IncludeRawText = true
	}
	if *p.RawTextLimit >= 0 {
		cfg.Ledger.RawTextLimit = *p.RawTextLimit
	}
}

// Batch discovery and journal overrides.
type Batch struct {
	Dir           *string
	Ext           *string
	Recursive     *bool
	IncludeHidden *bool
	Journal       *string
	SkipProcessed *bool
	Watch         *bool
	Debounce      *time.Duration
}

func RegisterBatch(fs *ff.FlagSet) *Batch {
	return &Batch{
		Dir:           fs.StringLong("dir", "", "receipt directory"),
		Ext:           fs.StringLong("ext", "", "comma-separated extensions to include"),
		Recursive:     fs.BoolLong("recursive", "descend into subdirectories"),
		IncludeHidden: fs.BoolLong("include-hidden", "include dot files and directories"),
		Journal:       fs.StringLong("journal", "", "journal DSN: SQLite file or postgres:// URL"),
		SkipProcessed: fs.BoolLong("skip-processed", "skip receipts the journal marks OK"),
		Watch:         fs.BoolLong("watch", "keep running and process new receipts as they appear"),
		Debounce:      fs.DurationLong("debounce", 2*time.Second, "wait this long after the last write before processing (watch mode)"),
	}
}

func (b *Batch) Apply(cfg *common.Config) {
	setString(&cfg.Batch.Dir, *b.Dir)
	if exts := SplitList(*b.Ext); len(exts) > 0 {
		cfg.Batch.Extensions = exts
	}
	if *b.Recursive {
		cfg.Batch.Recursive = true
	}
	if *b.IncludeHidden {
		cfg.Batch.SkipHidden = false
	}
	setString(&cfg.Journal.DSN, *b.Journal)
	if *b.SkipProcessed {
		cfg.Journal.SkipProcessed = true
	}
}

// SplitList splits a comma-separated flag value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
