package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
)

func newStoreWithMock(t *testing.T) (*SessionStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	store := NewSessionStore(db, time.Hour)
	store.now = func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }
	return store, mock, func() { _ = db.Close() }
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(schemaLockID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS session_documents").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordUploadResetsHistoryInOneTransaction(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	doc := domain.DocumentRecord{
		ID:         "d1",
		Filename:   "loan.txt",
		MediaType:  "text/plain",
		Text:       "Name: Jane Doe",
		Fields:     domain.ObjectFields(map[string]any{"Customer Name": "Jane Doe"}),
		UploadedAt: time.Date(2026, 6, 1, 11, 0, 0, 0, time.UTC),
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM conversation_turns").WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO session_documents").
		WithArgs("s1", "d1", "loan.txt", "text/plain", "Name: Jane Doe", []byte(`{"Customer Name":"Jane Doe"}`), doc.UploadedAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.RecordUpload(context.Background(), "s1", doc); err != nil {
		t.Fatalf("RecordUpload() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordUploadRollsBackOnFailure(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM conversation_turns").WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO session_documents").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.RecordUpload(context.Background(), "s1", domain.DocumentRecord{ID: "d1", Fields: domain.RawFields("x")})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetDocumentReturnsNoDocument(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT document_id, filename, media_type, text, fields, uploaded_at").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetDocument(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetDocumentRestoresRawFields(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	uploaded := time.Date(2026, 6, 1, 11, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"document_id", "filename", "media_type", "text", "fields", "uploaded_at"}).
		AddRow("d1", "scan.png", "image/png", "text", []byte(`{"raw":"not json"}`), uploaded)
	mock.ExpectQuery("SELECT document_id").WithArgs("s1").WillReturnRows(rows)

	doc, err := store.GetDocument(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if doc.Fields.Kind != domain.FieldsRaw || doc.Fields.Raw != "not json" {
		t.Fatalf("expected raw fields, got %+v", doc.Fields)
	}
}

func TestAppendTurnWithoutDocument(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	ts := time.Date(2026, 6, 1, 11, 30, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO conversation_turns").
		WithArgs("s1", "who?", "Jane", ts, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.AppendTurn(context.Background(), "s1", domain.NewConversationTurn("who?", "Jane", ts))
	if !domain.IsKind(err, domain.ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetHistoryKeepsInsertionOrder(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	first := time.Date(2026, 6, 1, 11, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"question", "answer", "created_at"}).
		AddRow("q1", "a1", first).
		AddRow("q2", "a2", first.Add(time.Minute))
	mock.ExpectQuery("SELECT question, answer, created_at").WithArgs("s1").WillReturnRows(rows)

	history, err := store.GetHistory(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(history) != 2 || history[0].Question != "q1" || history[1].Answer != "a2" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestSweepDeletesIdleSessions(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("DELETE FROM session_documents").
		WithArgs(now.Add(-time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	removed, err := store.Sweep(context.Background(), now)
	if err != nil || removed != 4 {
		t.Fatalf("expected 4 removed, got %d err=%v", removed, err)
	}
}
