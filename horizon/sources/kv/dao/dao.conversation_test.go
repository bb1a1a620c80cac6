package dao

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"horizon/horizon/sources/kv"
	"horizon/horizon/sources/kv/models"
)

func newTestDB(t *testing.T) *kv.Database {
	t.Helper()
	db, err := kv.NewInMemoryDatabase(zap.NewNop())
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func userMsg(content string) models.Message {
	return models.Message{Role: models.RoleUser, Content: content, Timestamp: time.Now()}
}

func TestAppendPreservesOrder(t *testing.T) {
	d := NewConversationDAO(newTestDB(t), zap.NewNop())
	ctx := context.Background()

	id := d.NewConversationID()
	if err := d.Append(ctx, id, "m1", userMsg("first")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := d.Append(ctx, id, "m1", userMsg("second")); err != nil {
		t.Fatalf("append: %v", err)
	}

	conv, err := d.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(conv.Messages))
	}
	if conv.Messages[0].Content != "first" || conv.Messages[1].Content != "second" {
		t.Errorf("messages out of order: %+v", conv.Messages)
	}
	if conv.Model != "m1" {
		t.Errorf("expected model m1, got %q", conv.Model)
	}
}

func TestConcurrentAppendsSameConversation(t *testing.T) {
	d := NewConversationDAO(newTestDB(t), zap.NewNop())
	ctx := context.Background()
	id := d.NewConversationID()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := d.Append(ctx, id, "m1", userMsg(fmt.Sprintf("msg-%d", i))); err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	conv, err := d.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(conv.Messages) != n {
		t.Errorf("lost updates: expected %d messages, got %d", n, len(conv.Messages))
	}
}

func TestGetNotFound(t *testing.T) {
	d := NewConversationDAO(newTestDB(t), zap.NewNop())
	if _, err := d.Get(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	d := NewConversationDAO(newTestDB(t), zap.NewNop())
	ctx := context.Background()

	if err := d.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("delete of unknown id should succeed, got %v", err)
	}

	id := d.NewConversationID()
	if err := d.Append(ctx, id, "m1", userMsg("hello")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := d.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := d.Delete(ctx, id); err != nil {
		t.Errorf("second delete should succeed, got %v", err)
	}
	if _, err := d.Get(ctx, id); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListTitlePreview(t *testing.T) {
	d := NewConversationDAO(newTestDB(t), zap.NewNop())
	ctx := context.Background()

	long := strings.Repeat("a", 50)
	short := "short question"

	longID := d.NewConversationID()
	if err := d.Append(ctx, longID, "m1", userMsg(long)); err != nil {
		t.Fatalf("append: %v", err)
	}
	shortID := d.NewConversationID()
	if err := d.Append(ctx, shortID, "m2", userMsg(short)); err != nil {
		t.Fatalf("append: %v", err)
	}

	summaries, err := d.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}

	byID := map[string]models.ConversationSummary{}
	for _, s := range summaries {
		byID[s.ID] = s
	}
	wantLong := strings.Repeat("a", 40) + "..."
	if got := byID[longID].Title; got != wantLong {
		t.Errorf("long title = %q, want %q", got, wantLong)
	}
	if got := byID[shortID].Title; got != short {
		t.Errorf("short title = %q, want %q", got, short)
	}
	if byID[shortID].Model != "m2" {
		t.Errorf("model = %q, want m2", byID[shortID].Model)
	}
}

func TestListNewestFirst(t *testing.T) {
	d := NewConversationDAO(newTestDB(t), zap.NewNop())
	ctx := context.Background()

	older := d.NewConversationID()
	if err := d.Append(ctx, older, "m1", userMsg("old")); err != nil {
		t.Fatalf("append: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	newer := d.NewConversationID()
	if err := d.Append(ctx, newer, "m1", userMsg("new")); err != nil {
		t.Fatalf("append: %v", err)
	}

	summaries, err := d.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if summaries[0].ID != newer || summaries[1].ID != older {
		t.Errorf("expected newest first, got %v then %v", summaries[0].ID, summaries[1].ID)
	}
}

func TestCorruptRecordTreatedAsAbsent(t *testing.T) {
	db := newTestDB(t)
	d := NewConversationDAO(db, zap.NewNop())
	ctx := context.Background()

	goodID := d.NewConversationID()
	if err := d.Append(ctx, goodID, "m1", userMsg("fine")); err != nil {
		t.Fatalf("append: %v", err)
	}
	err := db.DB.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("conv:broken"), []byte("{not json"))
	})
	if err != nil {
		t.Fatalf("plant corrupt record: %v", err)
	}

	if _, err := d.Get(ctx, "broken"); err != ErrNotFound {
		t.Errorf("corrupt get: expected ErrNotFound, got %v", err)
	}

	summaries, err := d.List(ctx)
	if err != nil {
		t.Fatalf("list must not fail on corruption: %v", err)
	}
	if len(summaries) != 1 || summaries[0].ID != goodID {
		t.Errorf("expected only the readable record, got %+v", summaries)
	}
}
