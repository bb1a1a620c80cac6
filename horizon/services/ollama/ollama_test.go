package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func collect(ch <-chan Line) (data []string, errs []error) {
	for line := range ch {
		if line.Err != nil {
			errs = append(errs, line.Err)
			continue
		}
		data = append(data, line.Data)
	}
	return data, errs
}

func TestStreamForwardsEachLine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !req.Stream {
			t.Error("stream flag should be forced on")
		}
		flusher := w.(http.Flusher)
		for _, line := range []string{`{"response":"Hi"}`, `{"response":" there"}`, `{"done":true}`} {
			fmt.Fprintln(w, line)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	data, errs := collect(c.Stream(context.Background(), GenerateRequest{Model: "m1", Prompt: "Hello"}))

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(data) != 3 {
		t.Fatalf("expected 3 lines, got %d: %v", len(data), data)
	}
	if data[0] != `{"response":"Hi"}` {
		t.Errorf("line altered in transit: %q", data[0])
	}
}

func TestStreamUnreachableYieldsSingleSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := NewClient(srv.URL, zap.NewNop())
	data, errs := collect(c.Stream(context.Background(), GenerateRequest{Model: "m1", Prompt: "Hello"}))

	if len(data) != 0 {
		t.Errorf("expected no data lines, got %v", data)
	}
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error sentinel, got %d", len(errs))
	}
}

func TestStreamBadStatusYieldsSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	_, errs := collect(c.Stream(context.Background(), GenerateRequest{Model: "m1", Prompt: "Hello"}))
	if len(errs) != 1 {
		t.Fatalf("expected one error sentinel, got %d", len(errs))
	}
}

func TestListModelsDetailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"models":[{"name":"qwen2.5:7b","size":4683087332}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	models, err := c.ListModelsDetailed(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(models) != 1 {
		t.Fatalf("expected 1 model, got %d", len(models))
	}
	if models[0].SizeGB != 4.36 {
		t.Errorf("size_gb = %v, want 4.36", models[0].SizeGB)
	}
}

func TestListModelsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	models, err := c.ListModels(context.Background())
	if err == nil {
		t.Error("expected an error from an unreachable engine")
	}
	if models == nil || len(models) != 0 {
		t.Errorf("expected empty slice, got %v", models)
	}
}

func TestDeleteModel(t *testing.T) {
	var gotName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/delete" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		gotName = body["name"]
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	if err := c.DeleteModel(context.Background(), "qwen2.5:7b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gotName != "qwen2.5:7b" {
		t.Errorf("name = %q", gotName)
	}
}

func TestCheckConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"models":[]}`)
	}))
	c := NewClient(srv.URL, zap.NewNop())
	if !c.CheckConnection(context.Background()) {
		t.Error("expected online")
	}
	srv.Close()
	if c.CheckConnection(context.Background()) {
		t.Error("expected offline after shutdown")
	}
}
