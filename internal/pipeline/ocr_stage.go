package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/receipt-ledger/constants"
	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/ocr"
)

// OCRResult is the text produced for one receipt.
type OCRResult struct {
	Text       string // normalized
	Confidence float64
	Duration   time.Duration
}

// OCRStage preprocesses a receipt and runs it through the recognizer.
type OCRStage struct {
	Preprocessor ocr.Preprocessor
	Recognizer   ocr.Recognizer
	Timeout      time.Duration // per recognition; 0 = none
	Logger       *slog.Logger
}

func NewOCRStage(pre ocr.Preprocessor, rec ocr.Recognizer, timeout time.Duration, logger *slog.Logger) *OCRStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRStage{Preprocessor: pre, Recognizer: rec, Timeout: timeout, Logger: logger}
}

// Run returns normalized text. Temporary images are removed before it returns.
func (s *OCRStage) Run(ctx context.Context, path, sha256 string) (OCRResult, error) {
	start := time.Now()
	img, err := s.Preprocessor.Preprocess(ctx, path)
	if err != nil {
		return OCRResult{}, err
	}
	defer img.Cleanup()
	img.SourceHash = sha256

	ocrCtx, cancel := common.WithOptionalTimeout(ctx, s.Timeout)
	raw, err := s.Recognizer.Recognize(ocrCtx, img)
	cancel()
	if err != nil {
		return OCRResult{}, err
	}

	res := OCRResult{Text: ocr.Normalize(raw), Duration: time.Since(start)}
	res.Confidence = ocr.Confidence(res.Text)
	if res.Confidence < constants.ImageConfidenceThreshold {
		s.Logger.Warn("ocr confidence low; check the ledger row",
			"path", path,
			"run_id", common.RunIDFromContext(ctx),
			"confidence", res.Confidence,
		)
	}
	s.Logger.Debug("ocr stage ok",
		"path", path,
		"bytes", len(res.Text),
		"confidence", res.Confidence,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
