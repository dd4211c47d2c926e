package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
)

const schemaLockID int64 = 2026101901

type SessionStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewSessionStore(db *sql.DB, ttl time.Duration) *SessionStore {
	return &SessionStore{db: db, ttl: ttl, now: time.Now}
}

func (s *SessionStore) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across replicas starting together.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS session_documents (
	session_id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	filename TEXT NOT NULL,
	media_type TEXT NOT NULL,
	text TEXT NOT NULL,
	fields JSONB NOT NULL DEFAULT '{}'::jsonb,
	uploaded_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS conversation_turns (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES session_documents(session_id) ON DELETE CASCADE,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversation_turns_session ON conversation_turns(session_id, id);
CREATE INDEX IF NOT EXISTS idx_session_documents_updated_at ON session_documents(updated_at);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// RecordUpload replaces the session document and drops its turns in one
// transaction.
func (s *SessionStore) RecordUpload(ctx context.Context, sessionID string, doc domain.DocumentRecord) error {
	fieldsJSON, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upload tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM conversation_turns WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("reset history: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO session_documents (session_id, document_id, filename, media_type, text, fields, uploaded_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (session_id) DO UPDATE SET
	document_id = EXCLUDED.document_id,
	filename = EXCLUDED.filename,
	media_type = EXCLUDED.media_type,
	text = EXCLUDED.text,
	fields = EXCLUDED.fields,
	uploaded_at = EXCLUDED.uploaded_at,
	updated_at = EXCLUDED.updated_at
`, sessionID, doc.ID, doc.Filename, doc.MediaType, doc.Text, fieldsJSON, doc.UploadedAt, s.now().UTC())
	if err != nil {
		return fmt.Errorf("upsert session document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upload tx: %w", err)
	}
	return nil
}

func (s *SessionStore) AppendTurn(ctx context.Context, sessionID string, turn domain.ConversationTurn) error {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = s.now().UTC()
	}
	result, err := s.db.ExecContext(ctx, `
WITH touched AS (
	UPDATE session_documents SET updated_at = $5 WHERE session_id = $1 RETURNING session_id
)
INSERT INTO conversation_turns (session_id, question, answer, created_at)
SELECT session_id, $2, $3, $4 FROM touched
`, sessionID, turn.Question, turn.Answer, turn.Timestamp, s.now().UTC())
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("append turn rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNoDocument, "append turn", fmt.Errorf("session %s has no document", sessionID))
	}
	return nil
}

func (s *SessionStore) ClearHistory(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversation_turns WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (s *SessionStore) GetDocument(ctx context.Context, sessionID string) (*domain.DocumentRecord, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT document_id, filename, media_type, text, fields, uploaded_at
FROM session_documents
WHERE session_id = $1
`, sessionID)

	var doc domain.DocumentRecord
	var fieldsRaw []byte
	err := row.Scan(&doc.ID, &doc.Filename, &doc.MediaType, &doc.Text, &fieldsRaw, &doc.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNoDocument, "get document", err)
		}
		return nil, fmt.Errorf("scan session document: %w", err)
	}
	if err := json.Unmarshal(fieldsRaw, &doc.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return &doc, nil
}

func (s *SessionStore) GetHistory(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT question, answer, created_at
FROM conversation_turns
WHERE session_id = $1
ORDER BY id ASC
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ConversationTurn, 0)
	for rows.Next() {
		var turn domain.ConversationTurn
		if err := rows.Scan(&turn.Question, &turn.Answer, &turn.Timestamp); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turn.Timestamp = turn.Timestamp.UTC()
		out = append(out, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	return out, nil
}

// Sweep deletes sessions whose document has not been touched within the ttl.
// Turns go with them through the cascade.
func (s *SessionStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM session_documents WHERE updated_at < $1`, now.Add(-s.ttl).UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep rows affected: %w", err)
	}
	return int(affected), nil
}
