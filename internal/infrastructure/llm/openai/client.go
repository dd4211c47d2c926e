package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
	"github.com/riyazashik07/ai-document-analyser/internal/infrastructure/resilience"
)

const DefaultBaseURL = "https://api.openai.com/v1"

type Config struct {
	BaseURL     string
	APIKey      string
	ChatModel   string
	VisionModel string
	Temperature float64
	Timeout     time.Duration
}

// chatGenerator is the part of the eino chat model the client uses.
type chatGenerator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Client talks to any OpenAI-compatible /chat/completions endpoint. Text and
// image requests go through the eino chat model; PDFs are posted directly as
// file parts.
type Client struct {
	chat        chatGenerator
	baseURL     string
	apiKey      string
	chatModel   string
	visionModel string
	temperature float32
	httpClient  *http.Client
	executor    *resilience.Executor
	log         *slog.Logger
}

func New(ctx context.Context, cfg Config, executor *resilience.Executor, logger *slog.Logger) (*Client, error) {
	c := newClient(cfg, executor, logger)
	chat, err := einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{
		BaseURL:     c.baseURL,
		APIKey:      c.apiKey,
		Model:       c.chatModel,
		Temperature: &c.temperature,
		HTTPClient:  c.httpClient,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "init openai chat model", err)
	}
	c.chat = chat
	return c, nil
}

func newClient(cfg Config, executor *resilience.Executor, logger *slog.Logger) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	visionModel := cfg.VisionModel
	if strings.TrimSpace(visionModel) == "" {
		visionModel = cfg.ChatModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		chatModel:   cfg.ChatModel,
		visionModel: visionModel,
		temperature: float32(cfg.Temperature),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: statusCapturingTransport{next: http.DefaultTransport},
		},
		executor: executor,
		log:      logger,
	}
}

func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	messages := []*schema.Message{schema.UserMessage(prompt)}
	return c.generate(ctx, "generate_text", c.chatModel, messages)
}

// GenerateTextFromMedia sends the bytes inline next to the prompt. Images go
// as data URLs, PDFs as a base64 file part.
func (c *Client) GenerateTextFromMedia(ctx context.Context, prompt string, content []byte, mediaType string) (string, error) {
	if len(content) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "openai media request", fmt.Errorf("empty content"))
	}
	mt := strings.TrimSpace(mediaType)
	if mt == "" {
		mt = "application/octet-stream"
	}
	dataURL := "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(content)

	if domain.ClassifyMediaType(mt) != domain.MediaImage {
		return c.completeWithFile(ctx, prompt, dataURL)
	}
	messages := []*schema.Message{{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeText, Text: prompt},
			{Type: schema.ChatMessagePartTypeImageURL, ImageURL: &schema.ChatMessageImageURL{URL: dataURL}},
		},
	}}
	return c.generate(ctx, "generate_text_from_media", c.visionModel, messages)
}

func (c *Client) generate(ctx context.Context, operation, modelName string, messages []*schema.Message) (string, error) {
	start := time.Now()
	reply, err := resilience.Call(ctx, c.executor, "openai."+operation, func(callCtx context.Context) (*schema.Message, error) {
		capture := &statusCapture{}
		msg, err := c.chat.Generate(withStatusCapture(callCtx, capture), messages, model.WithModel(modelName))
		if err != nil {
			return nil, capture.wrap(operation, err)
		}
		return msg, nil
	}, classifyOpenAIError)
	if err != nil {
		return "", c.failed(operation, modelName, start, err)
	}

	text := ""
	if reply != nil {
		text = strings.TrimSpace(reply.Content)
	}
	c.completed(operation, modelName, start, text)
	return text, nil
}

// completeWithFile posts a PDF as a "file" content part. The eino message
// schema has no part type that serializes to it.
func (c *Client) completeWithFile(ctx context.Context, prompt, dataURL string) (string, error) {
	const operation = "generate_text_from_media"
	start := time.Now()
	request := fileChatRequest{
		Model: c.visionModel,
		Messages: []fileChatMessage{{
			Role: "user",
			Content: []fileContentPart{
				{Type: "text", Text: prompt},
				{Type: "file", File: &filePart{Filename: "document.pdf", FileData: dataURL}},
			},
		}},
		Temperature: c.temperature,
	}

	response, err := resilience.Call(ctx, c.executor, "openai."+operation, func(callCtx context.Context) (fileChatResponse, error) {
		var out fileChatResponse
		err := c.postJSON(callCtx, "/chat/completions", request, &out, operation)
		return out, err
	}, classifyOpenAIError)
	if err != nil {
		return "", c.failed(operation, c.visionModel, start, err)
	}

	text := ""
	if len(response.Choices) > 0 {
		text = strings.TrimSpace(response.Choices[0].Message.Content)
	}
	c.completed(operation, c.visionModel, start, text)
	return text, nil
}

func (c *Client) failed(operation, modelName string, start time.Time, err error) error {
	c.log.Error("llm_request_failed",
		"provider", "openai",
		"operation", operation,
		"model", modelName,
		"elapsed_ms", time.Since(start).Milliseconds(),
		"error", err,
	)
	return wrapTemporaryIfNeeded("openai "+operation, err)
}

func (c *Client) completed(operation, modelName string, start time.Time, text string) {
	c.log.Debug("llm_request_completed",
		"provider", "openai",
		"operation", operation,
		"model", modelName,
		"elapsed_ms", time.Since(start).Milliseconds(),
		"reply_len", len(text),
	)
}

type fileChatRequest struct {
	Model       string            `json:"model"`
	Messages    []fileChatMessage `json:"messages"`
	Temperature float32           `json:"temperature"`
}

type fileChatMessage struct {
	Role    string            `json:"role"`
	Content []fileContentPart `json:"content"`
}

type fileContentPart struct {
	Type string    `json:"type"`
	Text string    `json:"text,omitempty"`
	File *filePart `json:"file,omitempty"`
}

type filePart struct {
	Filename string `json:"filename"`
	FileData string `json:"file_data"`
}

type fileChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
