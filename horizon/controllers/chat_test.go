package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"horizon/horizon/services/chat"
	"horizon/horizon/services/ollama"
	"horizon/horizon/services/prompt"
	"horizon/horizon/sources/kv"
	"horizon/horizon/sources/kv/dao"
	"horizon/horizon/utils/types"
)

type stubSearcher struct{}

func (stubSearcher) Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error) {
	return nil, nil
}

func newChatController(t *testing.T, upstreamURL string) (*ChatController, *dao.ConversationDAO) {
	t.Helper()
	db, err := kv.NewInMemoryDatabase(zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(db.Close)

	nop := zap.NewNop()
	conversations := dao.NewConversationDAO(db, nop)
	settings := dao.NewSettingsDAO(db, nop)
	augmenter := prompt.NewAugmenter(stubSearcher{}, nop)
	engine := ollama.NewClient(upstreamURL, nop)
	orch := chat.NewOrchestrator(conversations, settings, augmenter, engine, nil, nop)
	return NewChatController(orch, nop), conversations
}

func TestChatStreamsSSEFrames(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for _, line := range []string{`{"response":"Hi"}`, `{"response":" there"}`, `{"done":true}`} {
			fmt.Fprintln(w, line)
			flusher.Flush()
		}
	}))
	t.Cleanup(upstream.Close)

	ctrl, conversations := newChatController(t, upstream.URL)

	body := strings.NewReader(`{"model":"m1","prompt":"Hello"}`)
	req := httptest.NewRequest("POST", "/", body)
	rr := httptest.NewRecorder()
	ctrl.Chat(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	chatID := rr.Header().Get("X-Chat-ID")
	if chatID == "" {
		t.Fatal("missing X-Chat-ID header")
	}

	got := rr.Body.String()
	want := "data: {\"response\":\"Hi\"}\n\ndata: {\"response\":\" there\"}\n\ndata: {\"done\":true}\n\n"
	if got != want {
		t.Errorf("body = %q, want %q", got, want)
	}

	conv, err := conversations.Get(context.Background(), chatID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(conv.Messages) != 2 || conv.Messages[1].Content != "Hi there" {
		t.Errorf("unexpected persisted messages: %+v", conv.Messages)
	}
}

func TestChatRejectsMissingFields(t *testing.T) {
	ctrl, _ := newChatController(t, "http://localhost:0")

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"model":"m1"}`))
	rr := httptest.NewRecorder()
	ctrl.Chat(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing prompt, got %d", rr.Code)
	}
}

func TestChatUpstreamErrorIsInBand(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(upstream.Close)

	ctrl, conversations := newChatController(t, upstream.URL)

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"model":"m1","prompt":"Hello"}`))
	rr := httptest.NewRecorder()
	ctrl.Chat(rr, req)

	// The stream itself still answers 200; the failure is an error frame.
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"error"`) {
		t.Errorf("expected an in-band error frame, got %q", rr.Body.String())
	}

	conv, err := conversations.Get(context.Background(), rr.Header().Get("X-Chat-ID"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(conv.Messages) != 1 {
		t.Errorf("expected only the user turn, got %+v", conv.Messages)
	}
}
