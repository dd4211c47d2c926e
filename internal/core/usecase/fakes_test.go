package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type modelFake struct {
	mu          sync.Mutex
	textReplies []string
	mediaReply  string
	err         error
	prompts     []string
	mediaCalls  int
}

func (f *modelFake) GenerateText(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.textReplies) == 0 {
		return "", nil
	}
	reply := f.textReplies[0]
	if len(f.textReplies) > 1 {
		f.textReplies = f.textReplies[1:]
	}
	return reply, nil
}

func (f *modelFake) GenerateTextFromMedia(context.Context, string, []byte, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mediaCalls++
	if f.err != nil {
		return "", f.err
	}
	return f.mediaReply, nil
}

func (f *modelFake) textCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type strategyFake struct {
	name  string
	text  string
	err   error
	calls int
}

func (s *strategyFake) Name() string { return s.name }

func (s *strategyFake) Extract(context.Context, []byte, string) (string, error) {
	s.calls++
	return s.text, s.err
}

type extractionAttempt struct {
	strategy string
	outcome  string
}

type metricsFake struct {
	attempts []extractionAttempt
	parses   []string
}

func (m *metricsFake) RecordExtractionAttempt(strategy, outcome string) {
	m.attempts = append(m.attempts, extractionAttempt{strategy: strategy, outcome: outcome})
}
func (m *metricsFake) RecordFieldsParse(kind string)                    { m.parses = append(m.parses, kind) }
func (m *metricsFake) RecordModelCall(string, string, time.Duration) {}

type sessionStoreFake struct {
	mu        sync.Mutex
	docs      map[string]domain.DocumentRecord
	history   map[string][]domain.ConversationTurn
	recordErr error
}

func newSessionStoreFake() *sessionStoreFake {
	return &sessionStoreFake{
		docs:    map[string]domain.DocumentRecord{},
		history: map[string][]domain.ConversationTurn{},
	}
}

func (s *sessionStoreFake) RecordUpload(_ context.Context, sessionID string, doc domain.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return s.recordErr
	}
	s.docs[sessionID] = doc
	s.history[sessionID] = nil
	return nil
}

func (s *sessionStoreFake) AppendTurn(_ context.Context, sessionID string, turn domain.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[sessionID] = append(s.history[sessionID], turn)
	return nil
}

func (s *sessionStoreFake) ClearHistory(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[sessionID] = nil
	return nil
}

func (s *sessionStoreFake) GetDocument(_ context.Context, sessionID string) (*domain.DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[sessionID]
	if !ok {
		return nil, domain.ErrNoDocument
	}
	return &doc, nil
}

func (s *sessionStoreFake) GetHistory(_ context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ConversationTurn(nil), s.history[sessionID]...), nil
}

type publisherFake struct {
	events []domain.DocumentExtractedEvent
	err    error
}

func (p *publisherFake) PublishDocumentExtracted(_ context.Context, event domain.DocumentExtractedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type storageFake struct {
	keys    []string
	deleted []string
	err     error
}

func (s *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if s.err != nil {
		return s.err
	}
	if _, err := io.Copy(io.Discard, data); err != nil {
		return err
	}
	s.keys = append(s.keys, key)
	return nil
}

func (s *storageFake) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			return nil
		}
	}
	return nil
}

type validatorFake struct {
	err error
}

func (v validatorFake) Validate(map[string]any) error { return v.err }
