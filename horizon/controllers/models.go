// horizon/controllers/models.go
package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"horizon/horizon/services/ollama"
	"horizon/horizon/utils/types"
)

type ModelsController struct {
	engine *ollama.Client
	logger *zap.Logger
}

func NewModelsController(engine *ollama.Client, logger *zap.Logger) *ModelsController {
	return &ModelsController{engine: engine, logger: logger}
}

// List mirrors Ollama's tags payload; an unreachable engine degrades to an
// empty list instead of an error page.
func (c *ModelsController) List(w http.ResponseWriter, r *http.Request) {
	models, err := c.engine.ListModels(r.Context())
	resp := map[string]interface{}{"models": models}
	if err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (c *ModelsController) ListDetailed(w http.ResponseWriter, r *http.Request) {
	models, _ := c.engine.ListModelsDetailed(r.Context())
	writeJSON(w, http.StatusOK, models)
}

// Pull streams Ollama's download progress lines as SSE frames.
func (c *ModelsController) Pull(w http.ResponseWriter, r *http.Request) {
	var req types.PullRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "model name required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	for line := range c.engine.PullStream(r.Context(), req.Name) {
		data := line.Data
		if line.Err != nil {
			frame, _ := json.Marshal(map[string]string{"error": line.Err.Error()})
			data = string(frame)
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}
}

func (c *ModelsController) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := c.engine.DeleteModel(r.Context(), name); err != nil {
		c.logger.Error("delete model failed", zap.String("model", name), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, types.StatusResponse{Status: "deleted"})
}

func (c *ModelsController) Status(w http.ResponseWriter, r *http.Request) {
	status := "offline"
	if c.engine.CheckConnection(r.Context()) {
		status = "online"
	}
	writeJSON(w, http.StatusOK, types.StatusResponse{Status: status})
}
