package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
)

const keyPrefix = "docqa:session:"

// Open connects to redis and verifies the connection.
func Open(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// SessionStore keeps each session as two keys: the document JSON and a list
// of JSON-encoded turns. Both expire after ttl without writes.
type SessionStore struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

func NewSessionStore(client goredis.UniversalClient, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func documentKey(sessionID string) string { return keyPrefix + sessionID + ":doc" }
func historyKey(sessionID string) string  { return keyPrefix + sessionID + ":history" }

func (s *SessionStore) RecordUpload(ctx context.Context, sessionID string, doc domain.DocumentRecord) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, documentKey(sessionID), payload, s.ttl)
		pipe.Del(ctx, historyKey(sessionID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("record upload: %w", err)
	}
	return nil
}

func (s *SessionStore) AppendTurn(ctx context.Context, sessionID string, turn domain.ConversationTurn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.RPush(ctx, historyKey(sessionID), payload)
		s.refresh(ctx, pipe, sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

func (s *SessionStore) ClearHistory(ctx context.Context, sessionID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, historyKey(sessionID))
		s.refresh(ctx, pipe, sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (s *SessionStore) GetDocument(ctx context.Context, sessionID string) (*domain.DocumentRecord, error) {
	raw, err := s.client.Get(ctx, documentKey(sessionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.WrapError(domain.ErrNoDocument, "get document", err)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	var doc domain.DocumentRecord
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

func (s *SessionStore) GetHistory(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	items, err := s.client.LRange(ctx, historyKey(sessionID), 0, -1).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	out := make([]domain.ConversationTurn, 0, len(items))
	for _, item := range items {
		var turn domain.ConversationTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("decode turn: %w", err)
		}
		out = append(out, turn)
	}
	return out, nil
}

// refresh extends both keys. EXPIRE with zero would delete them, so a
// store without ttl skips it.
func (s *SessionStore) refresh(ctx context.Context, pipe goredis.Pipeliner, sessionID string) {
	if s.ttl <= 0 {
		return
	}
	pipe.Expire(ctx, documentKey(sessionID), s.ttl)
	pipe.Expire(ctx, historyKey(sessionID), s.ttl)
}
