package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
)

func testDocument(id string) domain.DocumentRecord {
	return domain.DocumentRecord{
		ID:        id,
		Filename:  "loan.txt",
		MediaType: "text/plain",
		Text:      "Name: Jane Doe",
		Fields:    domain.ObjectFields(map[string]any{"Customer Name": "Jane Doe"}),
	}
}

func TestRecordUploadResetsHistory(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(0)

	if _, err := store.GetDocument(ctx, "s1"); !errors.Is(err, domain.ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}

	if err := store.RecordUpload(ctx, "s1", testDocument("d1")); err != nil {
		t.Fatalf("RecordUpload() error = %v", err)
	}
	if err := store.AppendTurn(ctx, "s1", domain.NewConversationTurn("q", "a", time.Now())); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}
	history, _ := store.GetHistory(ctx, "s1")
	if len(history) != 1 {
		t.Fatalf("expected one turn, got %d", len(history))
	}

	if err := store.RecordUpload(ctx, "s1", testDocument("d2")); err != nil {
		t.Fatalf("RecordUpload() error = %v", err)
	}
	history, _ = store.GetHistory(ctx, "s1")
	if len(history) != 0 {
		t.Fatalf("expected history reset, got %+v", history)
	}
	doc, err := store.GetDocument(ctx, "s1")
	if err != nil || doc.ID != "d2" {
		t.Fatalf("expected replaced document, got %+v err=%v", doc, err)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(0)
	_ = store.RecordUpload(ctx, "a", testDocument("d1"))
	_ = store.AppendTurn(ctx, "a", domain.NewConversationTurn("q", "a", time.Now()))

	if _, err := store.GetDocument(ctx, "b"); !errors.Is(err, domain.ErrNoDocument) {
		t.Fatalf("session b must not see session a's document, got %v", err)
	}
	history, err := store.GetHistory(ctx, "b")
	if err != nil || history == nil || len(history) != 0 {
		t.Fatalf("expected empty non-nil history, got %#v err=%v", history, err)
	}
}

func TestReturnedHistoryIsACopy(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(0)
	_ = store.RecordUpload(ctx, "s1", testDocument("d1"))
	_ = store.AppendTurn(ctx, "s1", domain.NewConversationTurn("q", "a", time.Now()))

	history, _ := store.GetHistory(ctx, "s1")
	history[0].Answer = "mutated"

	again, _ := store.GetHistory(ctx, "s1")
	if again[0].Answer != "a" {
		t.Fatalf("store state leaked through returned slice")
	}
}

func TestClearHistoryKeepsDocument(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(0)
	_ = store.RecordUpload(ctx, "s1", testDocument("d1"))
	_ = store.AppendTurn(ctx, "s1", domain.NewConversationTurn("q", "a", time.Now()))

	if err := store.ClearHistory(ctx, "s1"); err != nil {
		t.Fatalf("ClearHistory() error = %v", err)
	}
	history, _ := store.GetHistory(ctx, "s1")
	if len(history) != 0 {
		t.Fatalf("expected empty history")
	}
	if _, err := store.GetDocument(ctx, "s1"); err != nil {
		t.Fatalf("document should survive: %v", err)
	}
}

func TestSweepRemovesIdleSessions(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(time.Hour)
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	_ = store.RecordUpload(ctx, "old", testDocument("d1"))
	clock = clock.Add(50 * time.Minute)
	_ = store.RecordUpload(ctx, "fresh", testDocument("d2"))

	removed, err := store.Sweep(ctx, clock.Add(20*time.Minute))
	if err != nil || removed != 1 {
		t.Fatalf("expected one removed session, got %d err=%v", removed, err)
	}
	if _, err := store.GetDocument(ctx, "old"); !errors.Is(err, domain.ErrNoDocument) {
		t.Fatalf("old session should be gone, got %v", err)
	}
	if _, err := store.GetDocument(ctx, "fresh"); err != nil {
		t.Fatalf("fresh session should remain: %v", err)
	}
}

func TestConcurrentAppendsKeepEveryTurn(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(0)
	_ = store.RecordUpload(ctx, "s1", testDocument("d1"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.AppendTurn(ctx, "s1", domain.NewConversationTurn(fmt.Sprintf("q%d", i), "a", time.Now()))
		}(i)
	}
	wg.Wait()

	history, _ := store.GetHistory(ctx, "s1")
	if len(history) != 50 {
		t.Fatalf("expected 50 turns, got %d", len(history))
	}
}
