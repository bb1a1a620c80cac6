// horizon/services/chat/orchestrator.go
package chat

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"horizon/horizon/services/ollama"
	"horizon/horizon/services/prompt"
	"horizon/horizon/sources/kv/dao"
	"horizon/horizon/sources/kv/models"
	"horizon/horizon/sources/storage"
	"horizon/horizon/utils/types"
)

// saveTimeout bounds the assistant-turn write after the upstream closes. A
// fresh context is used so a client that disconnects right after the last
// token cannot cancel the write.
const saveTimeout = 5 * time.Second

// Sink receives stream frames. Implementations exist for SSE responses,
// websockets and the CLI.
type Sink interface {
	Send(data string) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(data string) error

func (f SinkFunc) Send(data string) error { return f(data) }

// Orchestrator composes the store, the augmenter and the inference client
// into one request/response cycle: persist the user turn, stream tokens to
// the sink while reconstructing the full response, persist the assistant
// turn exactly once on clean completion.
type Orchestrator struct {
	conversations *dao.ConversationDAO
	settings      *dao.SettingsDAO
	augmenter     *prompt.Augmenter
	engine        *ollama.Client
	archive       *storage.MinIOClient // nil when no archive is configured
	logger        *zap.Logger
}

func NewOrchestrator(
	conversations *dao.ConversationDAO,
	settings *dao.SettingsDAO,
	augmenter *prompt.Augmenter,
	engine *ollama.Client,
	archive *storage.MinIOClient,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		conversations: conversations,
		settings:      settings,
		augmenter:     augmenter,
		engine:        engine,
		archive:       archive,
		logger:        logger,
	}
}

// Stream is one prepared chat exchange. The conversation id is resolved and
// the user turn already persisted by the time Start returns, so the caller
// can expose the id before any token flows.
type Stream struct {
	ChatID string

	orch        *Orchestrator
	req         types.ChatRequest
	finalPrompt string
}

// Start runs the Created state: resolve the conversation id (minting one for
// a first message), persist the user turn before the upstream opens, and
// build the final prompt from a fresh settings snapshot. An append failure
// fails the whole request; nothing has been streamed yet.
func (o *Orchestrator) Start(ctx context.Context, req types.ChatRequest) (*Stream, error) {
	settings, err := o.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	chatID := req.ChatID
	if chatID == "" {
		chatID = o.conversations.NewConversationID()
	}

	userMsg := models.Message{
		Role:      models.RoleUser,
		Content:   req.Prompt,
		Timestamp: time.Now(),
	}
	if err := o.conversations.Append(ctx, chatID, req.Model, userMsg); err != nil {
		return nil, err
	}

	o.archiveAttachments(ctx, chatID, req.Images)

	return &Stream{
		ChatID:      chatID,
		orch:        o,
		req:         req,
		finalPrompt: o.augmenter.Augment(ctx, req.Prompt, settings),
	}, nil
}

// Run consumes the upstream token stream in a single pass, teeing every line
// to the sink and to the response accumulator. Only a clean completion
// persists the assistant turn; an upstream error sentinel or a dead client
// aborts and discards the accumulated text.
func (s *Stream) Run(ctx context.Context, sink Sink) {
	o := s.orch
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := o.engine.Stream(ctx, ollama.GenerateRequest{
		Model:  s.req.Model,
		Prompt: s.finalPrompt,
		Images: s.req.Images,
	})

	var full strings.Builder
	aborted := false

	for line := range lines {
		if line.Err != nil {
			// In-band error frame: the stream may already be partially
			// delivered, so an HTTP-level failure is no longer possible.
			frame, _ := json.Marshal(map[string]string{"error": line.Err.Error()})
			_ = sink.Send(string(frame))
			aborted = true
			break
		}

		if err := sink.Send(line.Data); err != nil {
			o.logger.Info("client gone, aborting stream",
				zap.String("chat_id", s.ChatID), zap.Error(err))
			aborted = true
			cancel()
			break
		}

		var chunk struct {
			Response string `json:"response"`
		}
		if err := json.Unmarshal([]byte(line.Data), &chunk); err != nil {
			// Malformed chunk: already forwarded verbatim, just skip
			// accumulation and keep the stream alive.
			continue
		}
		full.WriteString(chunk.Response)
	}

	if ctx.Err() != nil {
		aborted = true
	}

	if aborted {
		o.logger.Info("stream aborted, assistant turn discarded",
			zap.String("chat_id", s.ChatID), zap.Int("accumulated_bytes", full.Len()))
		return
	}

	if full.Len() == 0 {
		o.logger.Info("stream completed empty", zap.String("chat_id", s.ChatID))
		return
	}

	saveCtx, saveCancel := context.WithTimeout(context.Background(), saveTimeout)
	defer saveCancel()
	assistantMsg := models.Message{
		Role:      models.RoleAssistant,
		Content:   full.String(),
		Timestamp: time.Now(),
	}
	if err := o.conversations.Append(saveCtx, s.ChatID, s.req.Model, assistantMsg); err != nil {
		o.logger.Error("assistant turn write failed",
			zap.String("chat_id", s.ChatID), zap.Error(err))
		return
	}
	o.logger.Info("stream completed",
		zap.String("chat_id", s.ChatID), zap.Int("response_bytes", full.Len()))
}

// archiveAttachments is best-effort: a missing or failing archive never
// blocks the chat.
func (o *Orchestrator) archiveAttachments(ctx context.Context, chatID string, images []string) {
	if o.archive == nil || len(images) == 0 {
		return
	}
	for i, img := range images {
		if _, err := o.archive.UploadAttachment(ctx, chatID, i, img); err != nil {
			o.logger.Warn("attachment archive failed",
				zap.String("chat_id", chatID), zap.Int("index", i), zap.Error(err))
		}
	}
}
