package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
	"github.com/riyazashik07/ai-document-analyser/internal/core/ports"
)

type DocumentAnalyzer struct {
	text      *TextExtractor
	fields    *FieldExtractor
	qa        *QuestionAnswerer
	store     ports.SessionStore
	storage   ports.ObjectStorage
	publisher ports.EventPublisher
	log       *slog.Logger
	now       func() time.Time
}

// NewDocumentAnalyzer builds the analyzer. storage and publisher are optional.
func NewDocumentAnalyzer(
	text *TextExtractor,
	fields *FieldExtractor,
	qa *QuestionAnswerer,
	store ports.SessionStore,
	storage ports.ObjectStorage,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) *DocumentAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentAnalyzer{
		text:      text,
		fields:    fields,
		qa:        qa,
		store:     store,
		storage:   storage,
		publisher: publisher,
		log:       logger,
		now:       time.Now,
	}
}

func (a *DocumentAnalyzer) Upload(ctx context.Context, sessionID string, req domain.UploadRequest) (*domain.DocumentRecord, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("session id is required"))
	}
	if len(req.Content) == 0 {
		return nil, domain.WrapError(domain.ErrUnreadableDocument, "upload", fmt.Errorf("file %q is empty", req.Filename))
	}
	if !domain.UploadAllowed(req.MediaType) {
		return nil, domain.WrapError(domain.ErrUnsupportedMedia, "upload", fmt.Errorf("media type %q", req.MediaType))
	}

	text, err := a.text.Extract(ctx, req.Content, req.MediaType)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrUnreadableDocument, "extract text", fmt.Errorf("no text found in %q", req.Filename))
	}

	fields, err := a.fields.Extract(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extract fields: %w", err)
	}

	id := uuid.NewString()
	archiveKey := ""
	if a.storage != nil {
		archiveKey = fmt.Sprintf("%s_%s", id, sanitizeFilename(req.Filename))
		if err := a.storage.Save(ctx, archiveKey, bytes.NewReader(req.Content)); err != nil {
			return nil, fmt.Errorf("archive upload: %w", err)
		}
	}

	doc := domain.DocumentRecord{
		ID:         id,
		Filename:   req.Filename,
		MediaType:  req.MediaType,
		Text:       text,
		Fields:     fields,
		UploadedAt: a.now().UTC(),
	}
	if err := a.store.RecordUpload(ctx, sessionID, doc); err != nil {
		if archiveKey != "" {
			if delErr := a.storage.Delete(context.WithoutCancel(ctx), archiveKey); delErr != nil {
				a.log.Warn("archive_rollback_failed", "document_id", id, "error", delErr)
			}
		}
		return nil, fmt.Errorf("record upload: %w", err)
	}

	a.log.Info("document_uploaded",
		"session_id", sessionID,
		"document_id", doc.ID,
		"filename", doc.Filename,
		"media_type", doc.MediaType,
		"text_len", len(doc.Text),
		"fields_kind", string(doc.Fields.Kind),
	)

	if a.publisher != nil {
		if err := a.publisher.PublishDocumentExtracted(ctx, domain.NewDocumentExtractedEvent(sessionID, doc)); err != nil {
			a.log.Warn("publish_document_extracted_failed", "document_id", doc.ID, "error", err)
		}
	}
	return &doc, nil
}

func (a *DocumentAnalyzer) Ask(ctx context.Context, sessionID, question string) (domain.ConversationTurn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.ConversationTurn{}, domain.WrapError(domain.ErrInvalidInput, "ask", fmt.Errorf("question is required"))
	}

	doc, err := a.store.GetDocument(ctx, sessionID)
	if err != nil {
		return domain.ConversationTurn{}, err
	}
	history, err := a.store.GetHistory(ctx, sessionID)
	if err != nil {
		return domain.ConversationTurn{}, fmt.Errorf("load history: %w", err)
	}

	answer, err := a.qa.Answer(ctx, doc.Text, question, history)
	if err != nil {
		return domain.ConversationTurn{}, fmt.Errorf("answer question: %w", err)
	}

	turn := domain.NewConversationTurn(question, answer, a.now())
	if err := a.store.AppendTurn(ctx, sessionID, turn); err != nil {
		return domain.ConversationTurn{}, fmt.Errorf("append turn: %w", err)
	}
	a.log.Info("question_answered",
		"session_id", sessionID,
		"document_id", doc.ID,
		"history_len", len(history)+1,
		"answer_len", len(answer),
	)
	return turn, nil
}

func (a *DocumentAnalyzer) History(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	history, err := a.store.GetHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []domain.ConversationTurn{}
	}
	return history, nil
}

func (a *DocumentAnalyzer) ClearHistory(ctx context.Context, sessionID string) error {
	return a.store.ClearHistory(ctx, sessionID)
}

func (a *DocumentAnalyzer) Extracted(ctx context.Context, sessionID string) (*domain.FieldsResult, error) {
	doc, err := a.store.GetDocument(ctx, sessionID)
	if errors.Is(err, domain.ErrNoDocument) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	fields := doc.Fields
	return &fields, nil
}

// Document returns the session's current document, or ErrNoDocument.
func (a *DocumentAnalyzer) Document(ctx context.Context, sessionID string) (*domain.DocumentRecord, error) {
	return a.store.GetDocument(ctx, sessionID)
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == ".." {
		return "document.bin"
	}
	return base
}
