package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/extract"
	"github.com/joseph-ayodele/receipt-ledger/internal/journal"
	"github.com/joseph-ayodele/receipt-ledger/internal/ledger"
	"github.com/joseph-ayodele/receipt-ledger/internal/ocr"
)

// Built holds the wired processor and the resources it owns.
type Built struct {
	Processor *Processor
	Ledger    *ledger.Multi
	Journal   *journal.Journal // nil when no DSN is configured
	closers   []func() error
}

// Close releases resources in reverse order of acquisition.
func (b *Built) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// NewExtractor maps config onto an extractor.
func NewExtractor(cfg common.ExtractConfig) (*extract.Extractor, error) {
	e, err := extract.New(extract.Config{
		VendorPolicy: extract.VendorPolicy(cfg.VendorPolicy),
		AmountPolicy: extract.AmountPolicy(cfg.AmountPolicy),
		DateLayouts:  cfg.DateLayouts,
		Notes:        cfg.Notes,
	})
	if err != nil {
		return nil, common.NewAppError(common.CodeConfig, "building extractor", fmt.Errorf("%w: %w", common.ErrInvalidInput, err))
	}
	return e, nil
}

// NewLedger builds one store per configured path.
func NewLedger(cfg common.LedgerConfig, logger *slog.Logger) *ledger.Multi {
	opts := ledger.Options{
		IncludeRawText: cfg.IncludeRawText,
		RawTextLimit:   cfg.RawTextLimit,
		SheetName:      cfg.SheetName,
		Logger:         logger,
	}
	var stores []ledger.Store
	if cfg.CSVPath != "" {
		stores = append(stores, ledger.NewCSVStore(cfg.CSVPath, opts))
	}
	if cfg.XLSXPath != "" {
		stores = append(stores, ledger.NewXLSXStore(cfg.XLSXPath, opts))
	}
	return ledger.NewMulti(logger, stores...)
}

// NewOCRStageFromConfig wires preprocessing, the configured engine and the optional cache.
// The returned closers must run when the stage is no longer used.
func NewOCRStageFromConfig(ctx context.Context, cfg common.OCRConfig, logger *slog.Logger) (*OCRStage, []func() error, error) {
	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	var rec ocr.Recognizer
	switch cfg.Engine {
	case "", "tesseract":
		rec = ocr.NewTesseractRecognizer(ocr.TesseractConfig{
			Binary:      cfg.Tesseract,
			Lang:        cfg.TesseractLang,
			TessdataDir: cfg.TessdataDir,
			PSM:         cfg.PSM,
			OEM:         cfg.OEM,
		}, ocr.ExecRunner{Logger: logger}, logger)
	case "gemini":
		g, err := ocr.NewGeminiRecognizer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, g.Close)
		rec = g
	default:
		return nil, nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown ocr engine %q", cfg.Engine), common.ErrInvalidInput)
	}

	if cfg.CachePath != "" {
		cache, err := ocr.OpenBoltCache(cfg.CachePath)
		if err != nil {
			closeAll()
			return nil, nil, common.NewAppError(common.CodeOCR, "opening ocr cache", err)
		}
		closers = append(closers, cache.Close)
		engine := cfg.Engine
		if engine == "" {
			engine = "tesseract"
		}
		rec = ocr.NewCachingRecognizer(rec, cache, engine, logger)
	}

	pre := ocr.NewImagePreprocessor(ocr.PreprocessConfig{Threshold: uint8(cfg.Threshold)}, logger)
	return NewOCRStage(pre, rec, cfg.Timeout, logger), closers, nil
}

// Build validates cfg and wires every component of a batch run.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*Built, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	extractor, err := NewExtractor(cfg.Extract)
	if err != nil {
		return nil, err
	}

	b := &Built{Ledger: NewLedger(cfg.Ledger, logger)}

	stage, closers, err := NewOCRStageFromConfig(ctx, cfg.OCR, logger)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, closers...)

	opts := Options{SkipProcessed: cfg.Journal.SkipProcessed}
	if cfg.Journal.DSN != "" {
		j, err := journal.Open(ctx, journal.Config{
			DSN:             cfg.Journal.DSN,
			MaxConns:        cfg.Journal.MaxConns,
			MaxConnLifetime: cfg.Journal.MaxConnLifetime,
			DialTimeout:     cfg.Journal.DialTimeout,
		}, logger)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Journal = j
		b.closers = append(b.closers, func() error { j.Close(); return nil })
		opts.Journal = j
	}

	b.Processor = NewProcessor(logger, stage, extractor, b.Ledger, opts)
	logger.Info("pipeline ready",
		"engine", cfg.OCR.Engine,
		"ledgers", b.Ledger.Targets(),
		"journal", b.Journal != nil,
		"ocr_cache", cfg.OCR.CachePath != "",
	)
	return b, nil
}
