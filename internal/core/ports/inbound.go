package ports

import (
	"context"

	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
)

// DocumentAnalyzer is the inbound contract used by the HTTP boundary.
type DocumentAnalyzer interface {
	Upload(ctx context.Context, sessionID string, req domain.UploadRequest) (*domain.DocumentRecord, error)
	Ask(ctx context.Context, sessionID, question string) (domain.ConversationTurn, error)
	History(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error)
	ClearHistory(ctx context.Context, sessionID string) error
	// Extracted returns nil when the session has no document yet.
	Extracted(ctx context.Context, sessionID string) (*domain.FieldsResult, error)
	// Document returns domain.ErrNoDocument when the session has none.
	Document(ctx context.Context, sessionID string) (*domain.DocumentRecord, error)
}

// FieldsExporter renders extracted fields into a downloadable file.
type FieldsExporter interface {
	ExportFields(doc *domain.DocumentRecord) ([]byte, error)
	ContentType() string
	FileExtension() string
}
