package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/receipt-ledger/constants"
)

// Config holds all application configuration
type Config struct {
	Extract ExtractConfig `yaml:"extract"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	OCR     OCRConfig     `yaml:"ocr"`
	Journal JournalConfig `yaml:"journal"`
	Batch   BatchConfig   `yaml:"batch"`
}

// ExtractConfig selects the field heuristics
type ExtractConfig struct {
	VendorPolicy string   `yaml:"vendor_policy"` // first_line | first_non_numeric
	AmountPolicy string   `yaml:"amount_policy"` // labeled_max | first_currency
	DateLayouts  []string `yaml:"date_layouts"`  // Go time layouts, tried in order; empty = built-in order
	Notes        string   `yaml:"notes"`
}

// LedgerConfig holds ledger targets. At least one path must be set.
type LedgerConfig struct {
	CSVPath        string `yaml:"csv_path"`
	XLSXPath       string `yaml:"xlsx_path"`
	SheetName      string `yaml:"sheet_name"` // used only when a new workbook is created
	IncludeRawText bool   `yaml:"include_raw_text"`
	RawTextLimit   int    `yaml:"raw_text_limit"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine        string        `yaml:"engine"` // tesseract | gemini
	Tesseract     string        `yaml:"tesseract"`
	TesseractLang string        `yaml:"tesseract_lang"`
	TessdataDir   string        `yaml:"tessdata_dir"`
	PSM           int           `yaml:"psm"`
	OEM           int           `yaml:"oem"`
	Threshold     int           `yaml:"threshold"` // 0 disables binarization
	Timeout       time.Duration `yaml:"timeout"`   // 0 = no timeout
	CachePath     string        `yaml:"cache_path"`
	GeminiAPIKey  string        `yaml:"gemini_api_key"`
	GeminiModel   string        `yaml:"gemini_model"`
}

// JournalConfig holds the processing journal configuration. An empty DSN disables it.
type JournalConfig struct {
	DSN             string        `yaml:"dsn"` // file path (sqlite) or postgres:// URL
	SkipProcessed   bool          `yaml:"skip_processed"`
	MaxConns        int32         `yaml:"max_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
}

// BatchConfig controls receipt discovery
type BatchConfig struct {
	Dir        string   `yaml:"dir"`
	Extensions []string `yaml:"extensions"`
	Recursive  bool     `yaml:"recursive"`
	SkipHidden bool     `yaml:"skip_hidden"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Extract: ExtractConfig{
			VendorPolicy: "first_line",
			AmountPolicy: "labeled_max",
			Notes:        "scanned automatically",
		},
		Ledger: LedgerConfig{
			CSVPath:      "./expense_report.csv",
			SheetName:    "Expenses",
			RawTextLimit: 100,
		},
		OCR: OCRConfig{
			Engine:        "tesseract",
			Tesseract:     "tesseract",
			TesseractLang: "eng",
			GeminiModel:   "gemini-2.5-flash",
		},
		Journal: JournalConfig{
			MaxConns:        4,
			MaxConnLifetime: 30 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Batch: BatchConfig{
			Dir:        "./receipts",
			Extensions: append([]string(nil), constants.DefaultReceiptExtensions...),
			SkipHidden: true,
		},
	}
}

// LoadConfig loads defaults, then environment variables, then the YAML file named by
// RECEIPT_LEDGER_CONFIG when set.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	cfg.Extract.VendorPolicy = getEnv("VENDOR_POLICY", cfg.Extract.VendorPolicy)
	cfg.Extract.AmountPolicy = getEnv("AMOUNT_POLICY", cfg.Extract.AmountPolicy)
	cfg.Ledger.CSVPath = getEnv("RECEIPT_LEDGER_CSV", cfg.Ledger.CSVPath)
	cfg.Ledger.XLSXPath = getEnv("RECEIPT_LEDGER_XLSX", cfg.Ledger.XLSXPath)
	cfg.Ledger.IncludeRawText = getEnvAsBool("RECEIPT_LEDGER_RAW_TEXT", cfg.Ledger.IncludeRawText)
	cfg.Ledger.RawTextLimit = getEnvAsInt("RECEIPT_LEDGER_RAW_TEXT_LIMIT", cfg.Ledger.RawTextLimit)
	cfg.OCR.Engine = getEnv("OCR_ENGINE", cfg.OCR.Engine)
	cfg.OCR.Tesseract = getEnv("TESSERACT_BIN", cfg.OCR.Tesseract)
	cfg.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", cfg.OCR.TessdataDir)
	cfg.OCR.Timeout = getEnvAsDuration("OCR_TIMEOUT", cfg.OCR.Timeout)
	cfg.OCR.CachePath = getEnv("OCR_CACHE_PATH", cfg.OCR.CachePath)
	cfg.OCR.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.OCR.GeminiAPIKey)
	cfg.OCR.GeminiModel = getEnv("GEMINI_MODEL", cfg.OCR.GeminiModel)
	cfg.Journal.DSN = getEnv("JOURNAL_DSN", cfg.Journal.DSN)
	cfg.Batch.Dir = getEnv("RECEIPT_DIR", cfg.Batch.Dir)

	if path := getEnv("RECEIPT_LEDGER_CONFIG", ""); path != "" {
		if err := cfg.MergeFile(path); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// MergeFile overlays the keys present in a YAML file onto c.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewAppError(CodeConfig, "reading config file", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return NewAppError(CodeConfig, fmt.Sprintf("parsing config file %s", path), err)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Ledger.CSVPath) == "" && strings.TrimSpace(c.Ledger.XLSXPath) == "" {
		return NewAppError(CodeConfig, "at least one of ledger.csv_path or ledger.xlsx_path is required", ErrInvalidInput)
	}
	if c.Ledger.RawTextLimit < 0 {
		return NewAppError(CodeConfig, "ledger.raw_text_limit must be >= 0", ErrInvalidInput)
	}
	switch c.Extract.VendorPolicy {
	case "first_line", "first_non_numeric":
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unknown vendor policy %q", c.Extract.VendorPolicy), ErrInvalidInput)
	}
	switch c.Extract.AmountPolicy {
	case "labeled_max", "first_currency":
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unknown amount policy %q", c.Extract.AmountPolicy), ErrInvalidInput)
	}
	switch c.OCR.Engine {
	case "tesseract":
	case "gemini":
		if c.OCR.GeminiAPIKey == "" {
			return NewAppError(CodeConfig, "GEMINI_API_KEY is required for the gemini engine", ErrInvalidInput)
		}
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unknown ocr engine %q", c.OCR.Engine), ErrInvalidInput)
	}
	if c.OCR.Threshold < 0 || c.OCR.Threshold > 255 {
		return NewAppError(CodeConfig, "ocr.threshold must be within 0..255", ErrInvalidInput)
	}
	if c.OCR.Timeout < 0 {
		return NewAppError(CodeConfig, "ocr.timeout must not be negative", ErrInvalidInput)
	}
	if c.Journal.SkipProcessed && c.Journal.DSN == "" {
		return NewAppError(CodeConfig, "journal.skip_processed requires journal.dsn", ErrInvalidInput)
	}
	return nil
}
