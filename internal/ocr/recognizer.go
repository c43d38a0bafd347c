// Package ocr turns receipt files into raw text: decode and clean up the image, then run
// it through an OCR engine.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
)

// Image is a preprocessed receipt ready for recognition.
type Image struct {
	Path       string // PNG on disk
	Source     string // original receipt path
	SourceHash string // hex SHA-256 of the original file, when known
	cleanup    func()
}

// Cleanup removes temporary files behind the image. Safe to call more than once.
func (img *Image) Cleanup() {
	if img.cleanup != nil {
		img.cleanup()
		img.cleanup = nil
	}
}

// Preprocessor prepares a receipt file for OCR.
type Preprocessor interface {
	Preprocess(ctx context.Context, path string) (Image, error)
}

// Recognizer returns the raw text found in an image.
type Recognizer interface {
	Recognize(ctx context.Context, img Image) (string, error)
}

// TesseractConfig configures the tesseract command line.
type TesseractConfig struct {
	Binary      string // binary name or absolute path; if empty -> "tesseract"
	Lang        string // default "eng"
	TessdataDir string
	PSM         int // e.g., 6 is good for uniform block of text; 0 = tesseract default
	OEM         int // 1 = LSTM; leave 0 to use default
}

// TesseractRecognizer runs `tesseract <img> stdout`.
type TesseractRecognizer struct {
	cfg    TesseractConfig
	runner Runner
	logger *slog.Logger
}

func NewTesseractRecognizer(cfg TesseractConfig, runner Runner, logger *slog.Logger) *TesseractRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	return &TesseractRecognizer{cfg: cfg, runner: runner, logger: logger}
}

func (t *TesseractRecognizer) args(path string) []string {
	args := []string{path, "stdout", "-l", t.cfg.Lang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	return args
}

func (t *TesseractRecognizer) Recognize(ctx context.Context, img Image) (string, error) {
	out, err := t.runner.Run(ctx, t.cfg.Binary, t.args(img.Path)...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: tesseract: %w", common.ErrOCR, ctxErr)
		}
		t.logger.Warn("tesseract failed", "path", img.Source, "error", err)
		return "", fmt.Errorf("%w: %w", common.ErrOCR, err)
	}
	t.logger.Debug("tesseract finished", "path", img.Source, "bytes", len(out))
	return string(out), nil
}
