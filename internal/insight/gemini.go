package insight

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 4 * time.Second
)

// contentGenerator is the part of genai.Models the generator uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig configures the Gemini generator.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// GeminiGenerator asks a Gemini model for a tip.
type GeminiGenerator struct {
	models  contentGenerator
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// New returns a Gemini generator, or a Static fallback when no API key is set.
func New(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (Generator, error) {
	if cfg.APIKey == "" {
		logger.Warn("gemini api key not set, insights use a static tip")
		return Static(FallbackNoKey), nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGeminiGenerator(client.Models, cfg, logger), nil
}

func newGeminiGenerator(models contentGenerator, cfg GeminiConfig, logger *slog.Logger) *GeminiGenerator {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &GeminiGenerator{models: models, model: cfg.Model, timeout: cfg.Timeout, logger: logger}
}

// Generate returns the model's tip or a fallback.
func (g *GeminiGenerator) Generate(ctx context.Context, s Summary) string {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(Prompt(s)), &genai.GenerateContentConfig{
		ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
	})
	if err != nil {
		g.logger.Warn("insight generation failed", slog.String("model", g.model), slog.Any("error", err))
		return FallbackError
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		g.logger.Warn("insight generation returned no text", slog.String("model", g.model))
		return FallbackEmpty
	}
	return text
}
