// horizon/services/prompt/augment.go
package prompt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"horizon/horizon/sources/kv/models"
	"horizon/horizon/utils/types"
)

const maxSearchResults = 5

const searchTimeout = 10 * time.Second

const (
	instructionEN = "You are a helpful assistant. Answer clearly and concisely."
	instructionFR = "Tu es un assistant serviable. Réponds de manière claire et concise."
)

// Searcher is the external search collaborator. Kept as an interface so
// tests can count calls and fake failures.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error)
}

// Augmenter builds the final prompt sent to the inference engine: a
// language-specific system instruction, optionally a web-context block, and
// the user's question.
type Augmenter struct {
	searcher Searcher
	logger   *zap.Logger
}

func NewAugmenter(searcher Searcher, logger *zap.Logger) *Augmenter {
	return &Augmenter{searcher: searcher, logger: logger}
}

func instructionFor(language string) string {
	if language == "fr" {
		return instructionFR
	}
	return instructionEN
}

// Augment returns the final prompt. With internet access off this is a pure
// function of (rawPrompt, language) and performs no external call. With it
// on, search failures and empty result sets fall back to the plain form:
// augmentation must never abort a chat request.
func (a *Augmenter) Augment(ctx context.Context, rawPrompt string, settings models.UserSettings) string {
	instruction := instructionFor(settings.Language)
	plain := instruction + "\n\n" + rawPrompt

	if !settings.InternetAccess {
		return plain
	}

	searchCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	results, err := a.searcher.Search(searchCtx, rawPrompt, maxSearchResults)
	if err != nil {
		a.logger.Warn("web search failed, falling back to plain prompt", zap.Error(err))
		return plain
	}
	if len(results) == 0 {
		a.logger.Info("web search returned nothing, falling back to plain prompt")
		return plain
	}

	var sb strings.Builder
	sb.WriteString(instruction)
	sb.WriteString("\n\n--- WEB RESULTS ---\n")
	for _, r := range results {
		fmt.Fprintf(&sb, "Title: %s\nLink: %s\nExcerpt: %s\n\n", r.Title, r.URL, r.Snippet)
	}
	fmt.Fprintf(&sb, "Question: %s", rawPrompt)
	return sb.String()
}
