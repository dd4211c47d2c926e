package memory

import (
	"context"
	"sync"
	"time"

	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
)

type session struct {
	doc      *domain.DocumentRecord
	history  []domain.ConversationTurn
	lastSeen time.Time
}

// SessionStore keeps session state in process memory.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a store whose sessions expire after ttl of
// inactivity. A zero ttl keeps sessions forever.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *SessionStore) RecordUpload(_ context.Context, sessionID string, doc domain.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = &session{
		doc:      &doc,
		history:  nil,
		lastSeen: s.now(),
	}
	return nil
}

func (s *SessionStore) AppendTurn(_ context.Context, sessionID string, turn domain.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.touch(sessionID)
	sess.history = append(sess.history, turn)
	return nil
}

func (s *SessionStore) ClearHistory(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		sess.history = nil
		sess.lastSeen = s.now()
	}
	return nil
}

func (s *SessionStore) GetDocument(_ context.Context, sessionID string) (*domain.DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.doc == nil {
		return nil, domain.ErrNoDocument
	}
	sess.lastSeen = s.now()
	doc := *sess.doc
	return &doc, nil
}

func (s *SessionStore) GetHistory(_ context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return []domain.ConversationTurn{}, nil
	}
	out := make([]domain.ConversationTurn, len(sess.history))
	copy(out, sess.history)
	return out, nil
}

// Sweep drops sessions idle for longer than the ttl and reports how many
// were removed.
func (s *SessionStore) Sweep(_ context.Context, now time.Time) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *SessionStore) touch(sessionID string) *session {
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	sess.lastSeen = s.now()
	return sess
}
