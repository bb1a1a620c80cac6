// horizon/controllers/chat.go
package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"horizon/horizon/services/chat"
	"horizon/horizon/utils/types"
)

type ChatController struct {
	orch   *chat.Orchestrator
	logger *zap.Logger
}

func NewChatController(orch *chat.Orchestrator, logger *zap.Logger) *ChatController {
	return &ChatController{orch: orch, logger: logger}
}

func (c *ChatController) Orchestrator() *chat.Orchestrator {
	return c.orch
}

// Chat streams the model's answer as Server-Sent Events, one `data:` frame
// per upstream NDJSON line, flushed as it arrives. The resolved conversation
// id is exposed in the X-Chat-ID header before the first frame.
func (c *ChatController) Chat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Model == "" || req.Prompt == "" {
		http.Error(w, "model and prompt are required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	stream, err := c.orch.Start(r.Context(), req)
	if err != nil {
		c.logger.Error("chat start failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("X-Chat-ID", stream.ChatID)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sink := chat.SinkFunc(func(data string) error {
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	stream.Run(r.Context(), sink)
}
