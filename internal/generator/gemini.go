package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiModel generates text with a Gemini model.
type GeminiModel struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
	logger *slog.Logger
}

// NewGeminiModel opens a client for the named model. Close releases it.
func NewGeminiModel(ctx context.Context, apiKey, name string, temperature float64, maxTokens int, logger *slog.Logger, opts ...option.ClientOption) (*GeminiModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is empty")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	m := client.GenerativeModel(name)
	if temperature > 0 {
		m.SetTemperature(float32(temperature))
	}
	if maxTokens > 0 {
		m.SetMaxOutputTokens(int32(maxTokens))
	}
	return &GeminiModel{client: client, model: m, name: name, logger: orDiscard(logger)}, nil
}

func (g *GeminiModel) Generate(ctx context.Context, prompt string) (string, error) {
	g.logger.Debug("gemini request", "model", g.name, "prompt_len", len(prompt))
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		break
	}
	if b.Len() == 0 {
		return "", errors.New("gemini: no content")
	}
	return b.String(), nil
}

func (g *GeminiModel) Close() error {
	return g.client.Close()
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
