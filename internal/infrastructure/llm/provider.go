package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/riyazashik07/ai-document-analyser/internal/config"
	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
	"github.com/riyazashik07/ai-document-analyser/internal/core/ports"
	"github.com/riyazashik07/ai-document-analyser/internal/infrastructure/llm/gemini"
	"github.com/riyazashik07/ai-document-analyser/internal/infrastructure/llm/openai"
	"github.com/riyazashik07/ai-document-analyser/internal/infrastructure/resilience"
)

// NewFromConfig builds the configured provider. Without an API key the
// returned model fails every call with a configuration error instead of
// refusing to start.
func NewFromConfig(ctx context.Context, cfg config.Config, executor *resilience.Executor, logger *slog.Logger) (ports.LanguageModel, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if strings.TrimSpace(cfg.LLMAPIKey) == "" {
		logger.Warn("llm_api_key_missing", "provider", provider)
		return MissingCredentials{Provider: provider}, nil
	}

	switch provider {
	case "", "openai":
		return openai.New(ctx, openai.Config{
			BaseURL:     cfg.LLMBaseURL,
			APIKey:      cfg.LLMAPIKey,
			ChatModel:   cfg.ChatModel,
			VisionModel: cfg.VisionModel,
			Temperature: cfg.LLMTemperature,
			Timeout:     time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
		}, executor, logger)
	case "gemini":
		return gemini.New(ctx, gemini.Config{
			APIKey:      cfg.LLMAPIKey,
			ChatModel:   cfg.ChatModel,
			VisionModel: cfg.VisionModel,
			Temperature: cfg.LLMTemperature,
		}, executor, logger)
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

// MissingCredentials stands in for a provider whose API key is not set.
type MissingCredentials struct {
	Provider string
}

func (m MissingCredentials) GenerateText(context.Context, string) (string, error) {
	return "", m.err()
}

func (m MissingCredentials) GenerateTextFromMedia(context.Context, string, []byte, string) (string, error) {
	return "", m.err()
}

func (m MissingCredentials) err() error {
	return domain.WrapError(domain.ErrConfiguration, "llm "+m.Provider, fmt.Errorf("API key is not set"))
}

// Instrumented records call counts and latency for a wrapped model.
type Instrumented struct {
	next    ports.LanguageModel
	metrics ports.PipelineMetrics
}

func NewInstrumented(next ports.LanguageModel, metrics ports.PipelineMetrics) *Instrumented {
	return &Instrumented{next: next, metrics: metrics}
}

func (m *Instrumented) GenerateText(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := m.next.GenerateText(ctx, prompt)
	m.observe("generate_text", start, err)
	return text, err
}

func (m *Instrumented) GenerateTextFromMedia(ctx context.Context, prompt string, content []byte, mediaType string) (string, error) {
	start := time.Now()
	text, err := m.next.GenerateTextFromMedia(ctx, prompt, content, mediaType)
	m.observe("generate_text_from_media", start, err)
	return text, err
}

func (m *Instrumented) observe(operation string, start time.Time, err error) {
	if m.metrics == nil {
		return
	}
	status := "ok"
	switch {
	case err == nil:
	case domain.IsKind(err, domain.ErrConfiguration):
		status = "config_error"
	case domain.IsKind(err, domain.ErrTemporary):
		status = "unavailable"
	default:
		status = "error"
	}
	m.metrics.RecordModelCall(operation, status, time.Since(start))
}
