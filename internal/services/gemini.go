package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/promptlist/internal/shared"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// FormatInstruction is appended to every idea so the reply can be parsed line by line.
const FormatInstruction = "Create a playlist for the idea above. " +
	"Reply only with a numbered list, one song per line, formatted exactly like `1. Song Name -- Artist Name`. " +
	"Do not add a title, commentary or any other text."

// GeminiConfig configures a [GeminiGenerator].
type GeminiConfig struct {
	APIKey     string
	Model      string        // defaults to gemini-2.0-flash
	BaseURL    string        // optional endpoint override
	Timeout    time.Duration // per call; defaults to 30 seconds
	HTTPClient *http.Client
}

// GeminiGenerator implements [Generator] with the Gemini API.
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *log.Logger
}

// NewGeminiGenerator creates a Gemini API client.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig, logger *log.Logger) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing gemini api_key", shared.ErrMissingCredentials)
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiGenerator{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  shared.WithLogger(logger, "service", "gemini", "model", cfg.Model),
	}, nil
}

func (g *GeminiGenerator) Name() string {
	return "Gemini"
}

// Generate asks the model for a numbered track list matching prompt and returns the raw reply.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt", shared.ErrMissingArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(WrapPrompt(prompt)), nil)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %w", shared.ErrGeneration, shared.ErrTimeout)
		}
		return "", fmt.Errorf("%w: %w", shared.ErrGeneration, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty response", shared.ErrGeneration)
	}

	g.logger.Debug("generated playlist text", "duration", time.Since(start), "bytes", len(text))
	return text, nil
}

// WrapPrompt joins the user's idea with [FormatInstruction].
func WrapPrompt(idea string) string {
	return strings.TrimSpace(idea) + "\n\n" + FormatInstruction
}
