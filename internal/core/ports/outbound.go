package ports

import (
	"context"
	"io"
	"time"

	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
)

// LanguageModel is the narrow capability the pipeline needs from a provider.
type LanguageModel interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateTextFromMedia(ctx context.Context, prompt string, content []byte, mediaType string) (string, error)
}

// TextExtractionStrategy is one step of the text extraction chain.
type TextExtractionStrategy interface {
	Name() string
	Extract(ctx context.Context, content []byte, mediaType string) (string, error)
}

// SessionStore keeps each session's current document and conversation history.
type SessionStore interface {
	// RecordUpload replaces the session document and clears its history atomically.
	RecordUpload(ctx context.Context, sessionID string, doc domain.DocumentRecord) error
	AppendTurn(ctx context.Context, sessionID string, turn domain.ConversationTurn) error
	ClearHistory(ctx context.Context, sessionID string) error
	GetDocument(ctx context.Context, sessionID string) (*domain.DocumentRecord, error)
	GetHistory(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error)
}

// ObjectStorage archives uploaded originals. Delete removes an archive whose
// upload was not recorded.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher announces completed extractions to other systems.
type EventPublisher interface {
	PublishDocumentExtracted(ctx context.Context, event domain.DocumentExtractedEvent) error
}

// FieldsValidator checks a parsed object against the expected field schema.
type FieldsValidator interface {
	Validate(obj map[string]any) error
}

// PipelineMetrics receives pipeline observations. Implementations must be safe
// for concurrent use.
type PipelineMetrics interface {
	RecordExtractionAttempt(strategy, outcome string)
	RecordFieldsParse(kind string)
	RecordModelCall(operation, status string, duration time.Duration)
}

// SessionSweeper is implemented by stores that drop idle sessions on demand.
type SessionSweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}
