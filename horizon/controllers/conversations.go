// horizon/controllers/conversations.go
package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"horizon/horizon/sources/kv/dao"
)

type ConversationsController struct {
	conversations *dao.ConversationDAO
	logger        *zap.Logger
}

func NewConversationsController(conversations *dao.ConversationDAO, logger *zap.Logger) *ConversationsController {
	return &ConversationsController{conversations: conversations, logger: logger}
}

// List returns the sidebar summaries, most recent conversation first.
func (c *ConversationsController) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := c.conversations.List(r.Context())
	if err != nil {
		c.logger.Error("list conversations failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (c *ConversationsController) Get(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chat_id")
	conv, err := c.conversations.Get(r.Context(), chatID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			http.Error(w, "conversation not found", http.StatusNotFound)
			return
		}
		c.logger.Error("get conversation failed", zap.String("chat_id", chatID), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (c *ConversationsController) Messages(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chat_id")
	conv, err := c.conversations.Get(r.Context(), chatID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			http.Error(w, "conversation not found", http.StatusNotFound)
			return
		}
		c.logger.Error("get messages failed", zap.String("chat_id", chatID), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, conv.Messages)
}

// Delete is idempotent: deleting an unknown id still answers 204.
func (c *ConversationsController) Delete(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chat_id")
	if err := c.conversations.Delete(r.Context(), chatID); err != nil {
		c.logger.Error("delete conversation failed", zap.String("chat_id", chatID), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
