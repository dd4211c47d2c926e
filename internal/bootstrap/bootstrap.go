package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/riyazashik07/ai-document-analyser/internal/config"
	"github.com/riyazashik07/ai-document-analyser/internal/core/ports"
	"github.com/riyazashik07/ai-document-analyser/internal/core/usecase"
	"github.com/riyazashik07/ai-document-analyser/internal/infrastructure/export/xlsx"
	"github.com/riyazashik07/ai-document-analyser/internal/infrastructure/extractor/pdftext"
	"github.com/riyazashik07/ai-document-analyser/internal/infrastructure/extractor/plaintext"
	"github.com/riyazashik07/ai-document-analyser/internal/infrastructure/extractor/vision"
	"github.com/riyazashik07/ai-document-analyser/internal/infrastructure/llm"
	"github.com/riyazashik07/ai-document-analyser/internal/infrastructure/queue/nats"
	"github.com/riyazashik07/ai-document-analyser/internal/infrastructure/repository/memory"
	"github.com/riyazashik07/ai-document-analyser/internal/infrastructure/repository/postgres"
	"github.com/riyazashik07/ai-document-analyser/internal/infrastructure/repository/redis"
	"github.com/riyazashik07/ai-document-analyser/internal/infrastructure/resilience"
	"github.com/riyazashik07/ai-document-analyser/internal/infrastructure/storage/localfs"
	"github.com/riyazashik07/ai-document-analyser/internal/infrastructure/validation"
	"github.com/riyazashik07/ai-document-analyser/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Analyzer *usecase.DocumentAnalyzer
	Exporter ports.FieldsExporter
	Metrics  *metrics.HTTPServerMetrics
	// Sweeper is nil when the session store expires entries on its own.
	Sweeper ports.SessionSweeper

	closers []func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{
		Config:  cfg,
		Metrics: metrics.NewHTTPServerMetrics("docqa-api"),
	}
	pipelineMetrics := app.Metrics.Pipeline()

	resilienceCfg := resilience.DefaultConfig()
	resilienceCfg.RetryMaxAttempts = cfg.LLMRetryMaxAttempts
	resilienceCfg.BreakerEnabled = cfg.LLMBreakerEnabled
	executor := resilience.NewExecutor(resilienceCfg)

	provider, err := llm.NewFromConfig(ctx, cfg, executor, logger)
	if err != nil {
		return nil, fmt.Errorf("init language model: %w", err)
	}
	model := llm.NewInstrumented(provider, pipelineMetrics)

	schemaMode, err := usecase.ParseSchemaMode(cfg.FieldsSchemaMode)
	if err != nil {
		return nil, err
	}
	var validator ports.FieldsValidator
	if schemaMode == usecase.SchemaStrict {
		fieldsValidator, err := validation.NewFieldsValidator()
		if err != nil {
			return nil, fmt.Errorf("compile fields schema: %w", err)
		}
		validator = fieldsValidator
	}

	store, err := app.openSessionStore(ctx, cfg, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	var storage ports.ObjectStorage
	if dir := strings.TrimSpace(cfg.UploadDir); dir != "" {
		fs, err := localfs.New(dir)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init upload storage: %w", err)
		}
		storage = fs
	}

	var publisher ports.EventPublisher
	if url := strings.TrimSpace(cfg.NATSURL); url != "" {
		pub, err := nats.NewPublisher(url, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
			Logger:             logger,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		app.closers = append(app.closers, pub.Close)
		publisher = pub
	}

	text := usecase.NewTextExtractor(
		pdftext.NewExtractor(),
		vision.NewExtractor(model),
		plaintext.NewExtractor(),
		cfg.PDFMinTextChars,
		pipelineMetrics,
		logger,
	)
	fields := usecase.NewFieldExtractor(model, schemaMode, validator, pipelineMetrics, logger)
	qa := usecase.NewQuestionAnswerer(model, cfg.HistoryWindow)

	app.Analyzer = usecase.NewDocumentAnalyzer(text, fields, qa, store, storage, publisher, logger)
	app.Exporter = xlsx.NewExporter(logger)

	logger.Info("bootstrap_complete",
		"llm_provider", cfg.LLMProvider,
		"chat_model", cfg.ChatModel,
		"vision_model", cfg.VisionModel,
		"session_store", cfg.SessionStore,
		"fields_schema_mode", string(schemaMode),
		"upload_archive", storage != nil,
		"event_publisher", publisher != nil,
	)
	return app, nil
}

func (a *App) openSessionStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.SessionStore, error) {
	ttl := time.Duration(cfg.SessionTTLMinutes) * time.Minute

	switch strings.ToLower(strings.TrimSpace(cfg.SessionStore)) {
	case "", "memory":
		store := memory.NewSessionStore(ttl)
		a.Sweeper = store
		return store, nil
	case "redis":
		client, err := redis.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("open redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return redis.NewSessionStore(client, ttl), nil
	case "postgres":
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		store := postgres.NewSessionStore(db, ttl)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		a.Sweeper = store
		return store, nil
	default:
		logger.Error("unknown_session_store", "session_store", cfg.SessionStore)
		return nil, fmt.Errorf("unsupported SESSION_STORE %q", cfg.SessionStore)
	}
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
