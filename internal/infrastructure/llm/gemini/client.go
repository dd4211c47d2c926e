package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
	"github.com/riyazashik07/ai-document-analyser/internal/infrastructure/resilience"
)

type Config struct {
	APIKey      string
	ChatModel   string
	VisionModel string
	Temperature float64
}

// contentGenerator is the part of the genai SDK the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	models      contentGenerator
	chatModel   string
	visionModel string
	temperature float32
	executor    *resilience.Executor
	log         *slog.Logger
}

func New(ctx context.Context, cfg Config, executor *resilience.Executor, logger *slog.Logger) (*Client, error) {
	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "init gemini client", err)
	}
	return newWithGenerator(sdk.Models, cfg, executor, logger), nil
}

func newWithGenerator(models contentGenerator, cfg Config, executor *resilience.Executor, logger *slog.Logger) *Client {
	visionModel := cfg.VisionModel
	if strings.TrimSpace(visionModel) == "" {
		visionModel = cfg.ChatModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		models:      models,
		chatModel:   cfg.ChatModel,
		visionModel: visionModel,
		temperature: float32(cfg.Temperature),
		executor:    executor,
		log:         logger,
	}
}

func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	return c.generate(ctx, "generate_text", c.chatModel, parts)
}

func (c *Client) GenerateTextFromMedia(ctx context.Context, prompt string, content []byte, mediaType string) (string, error) {
	if len(content) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "gemini media request", fmt.Errorf("empty content"))
	}
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(content, strings.TrimSpace(mediaType)),
	}
	return c.generate(ctx, "generate_text_from_media", c.visionModel, parts)
}

func (c *Client) generate(ctx context.Context, operation, model string, parts []*genai.Part) (string, error) {
	start := time.Now()
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	config := &genai.GenerateContentConfig{Temperature: genai.Ptr(c.temperature)}

	resp, err := resilience.Call(ctx, c.executor, "gemini."+operation, func(callCtx context.Context) (*genai.GenerateContentResponse, error) {
		return c.models.GenerateContent(callCtx, model, contents, config)
	}, classifyGeminiError)
	if err != nil {
		c.log.Error("llm_request_failed",
			"provider", "gemini",
			"operation", operation,
			"model", model,
			"elapsed_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return "", wrapGeminiError("gemini "+operation, err)
	}

	text := ""
	if resp != nil {
		text = strings.TrimSpace(resp.Text())
	}
	c.log.Debug("llm_request_completed",
		"provider", "gemini",
		"operation", operation,
		"model", model,
		"elapsed_ms", time.Since(start).Milliseconds(),
		"reply_len", len(text),
	)
	return text, nil
}

