package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"

	"github.com/joseph-ayodele/receipt-ledger/constants"
	"github.com/joseph-ayodele/receipt-ledger/internal/common"
)

// PreprocessConfig controls image cleanup before OCR.
type PreprocessConfig struct {
	Threshold uint8  // binarization cut-off; 0 keeps the stretched grayscale
	TempDir   string // where intermediate PNGs go; "" = os.TempDir()
}

// ImagePreprocessor decodes a receipt (image, HEIC, or first PDF page), converts it to
// grayscale, stretches its contrast and optionally binarizes it.
type ImagePreprocessor struct {
	cfg    PreprocessConfig
	logger *slog.Logger
}

func NewImagePreprocessor(cfg PreprocessConfig, logger *slog.Logger) *ImagePreprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImagePreprocessor{cfg: cfg, logger: logger}
}

func (p *ImagePreprocessor) Preprocess(ctx context.Context, path string) (Image, error) {
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("%w: reading receipt: %w", common.ErrOCR, err)
	}

	src, err := decode(data, constants.NormalizeExt(filepath.Ext(path)))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %s: %w", common.ErrOCR, filepath.Base(path), err)
	}

	gray := toGray(src)
	stretchContrast(gray)
	if p.cfg.Threshold > 0 {
		binarize(gray, p.cfg.Threshold)
	}

	tmp, err := os.CreateTemp(p.cfg.TempDir, "receipt-*.png")
	if err != nil {
		return Image{}, fmt.Errorf("create temp image: %w", err)
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }
	if err := png.Encode(tmp, gray); err != nil {
		_ = tmp.Close()
		cleanup()
		return Image{}, fmt.Errorf("encoding PNG: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return Image{}, fmt.Errorf("close temp image: %w", err)
	}

	b := gray.Bounds()
	p.logger.Debug("receipt preprocessed",
		"path", path,
		"width", b.Dx(),
		"height", b.Dy(),
		"threshold", p.cfg.Threshold,
	)
	return Image{Path: tmp.Name(), Source: path, cleanup: cleanup}, nil
}

func decode(data []byte, ext string) (image.Image, error) {
	switch {
	case constants.MapExtToFormat(ext) == constants.PDF:
		return pdfFirstPage(data)
	case constants.IsHEICExt(ext) || isHEICFormat(data):
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	default:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding image: %w", err)
		}
		return img, nil
	}
}

// pdfFirstPage renders the first page (most receipts are single page).
func pdfFirstPage(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}
	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

// isHEICFormat sniffs the ftyp box so misnamed iPhone photos still decode.
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func toGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		out := image.NewGray(g.Bounds())
		copy(out.Pix, g.Pix)
		return out
	}
	b := src.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, src, b.Min, draw.Src)
	return gray
}

// stretchContrast maps the darkest pixel to 0 and the brightest to 255.
func stretchContrast(img *image.Gray) {
	if len(img.Pix) == 0 {
		return
	}
	lo, hi := uint8(255), uint8(0)
	for _, v := range img.Pix {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi <= lo || (lo == 0 && hi == 255) {
		return
	}
	span := int(hi) - int(lo)
	for i, v := range img.Pix {
		img.Pix[i] = uint8((int(v) - int(lo)) * 255 / span)
	}
}

func binarize(img *image.Gray, threshold uint8) {
	for i, v := range img.Pix {
		if v >= threshold {
			img.Pix[i] = 255
		} else {
			img.Pix[i] = 0
		}
	}
}
