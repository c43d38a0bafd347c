package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
)

const transcribePrompt = `Transcribe every line of text on this receipt exactly as printed, top to bottom.
Keep the original line breaks, numbers, dates and currency symbols.
Do not summarize, translate, correct, or add anything. Output plain text only, no markdown.`

// GeminiRecognizer transcribes images with Google Gemini.
type GeminiRecognizer struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *slog.Logger
}

func NewGeminiRecognizer(ctx context.Context, apiKey, modelName string, logger *slog.Logger) (*GeminiRecognizer, error) {
	if apiKey == "" {
		return nil, common.NewAppError(common.CodeConfig, "gemini api key is required", common.ErrInvalidInput)
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	model := client.GenerativeModel(modelName)
	var temp float32 = 0
	model.Temperature = &temp

	return &GeminiRecognizer{client: client, model: model, logger: logger}, nil
}

func (g *GeminiRecognizer) Recognize(ctx context.Context, img Image) (string, error) {
	data, err := os.ReadFile(img.Path)
	if err != nil {
		return "", fmt.Errorf("%w: reading image: %w", common.ErrOCR, err)
	}

	// genai.ImageData expects just the format suffix, and preprocessed images are PNG
	resp, err := g.model.GenerateContent(ctx,
		genai.ImageData("png", data),
		genai.Text(transcribePrompt),
	)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %w", common.ErrOCR, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no response from gemini", common.ErrOCR)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	text := strings.TrimSpace(b.String())
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	g.logger.Debug("gemini transcription finished", "path", img.Source, "bytes", len(text))
	return text, nil
}

func (g *GeminiRecognizer) Close() error {
	return g.client.Close()
}
