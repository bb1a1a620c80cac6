// horizon/services/ollama/ollama.go
package ollama

import (
	"bufio"
	"context"
	"math"

	"go.uber.org/zap"

	"horizon/horizon/utils/httputils"
	"horizon/horizon/utils/logging"
)

type Client struct {
	baseURL string
	logger  *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{baseURL: baseURL, logger: logger}
}

// GenerateRequest mirrors Ollama's /api/generate body.
type GenerateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Stream bool     `json:"stream"`
	Images []string `json:"images,omitempty"`
}

// Line is one element of a token stream: either a raw NDJSON line from the
// upstream or a terminal error sentinel, never both.
type Line struct {
	Data string
	Err  error
}

type ModelInfo struct {
	Name       string  `json:"name"`
	Model      string  `json:"model"`
	Size       int64   `json:"size"`
	ModifiedAt string  `json:"modified_at"`
	SizeGB     float64 `json:"size_gb,omitempty"`
}

type TagsResponse struct {
	Models []ModelInfo `json:"models"`
}

// Stream opens /api/generate and yields each upstream line as it arrives.
// The channel always closes after the upstream does; a transport or
// mid-stream failure is delivered as a single Err element so the caller can
// forward everything received up to that point. The stream is not
// restartable.
func (c *Client) Stream(ctx context.Context, req GenerateRequest) <-chan Line {
	defer logging.LogDuration(ctx, c.logger, "ollama_stream_open")()
	ch := make(chan Line)
	req.Stream = true

	go func() {
		defer close(ch)

		body, err := httputils.PostStream(ctx, c.baseURL+"/api/generate", req)
		if err != nil {
			c.logger.Error("ollama stream open failed", zap.Error(err))
			select {
			case ch <- Line{Err: err}:
			case <-ctx.Done():
			}
			return
		}
		defer body.Close()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			select {
			case ch <- Line{Data: line}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("ollama stream read error", zap.Error(err))
			select {
			case ch <- Line{Err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return ch
}

// PullStream downloads a model, yielding Ollama's progress lines with the
// same contract as Stream.
func (c *Client) PullStream(ctx context.Context, name string) <-chan Line {
	ch := make(chan Line)

	go func() {
		defer close(ch)

		body, err := httputils.PostStream(ctx, c.baseURL+"/api/pull", map[string]string{"name": name})
		if err != nil {
			c.logger.Error("ollama pull open failed", zap.String("model", name), zap.Error(err))
			select {
			case ch <- Line{Err: err}:
			case <-ctx.Done():
			}
			return
		}
		defer body.Close()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			select {
			case ch <- Line{Data: line}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			select {
			case ch <- Line{Err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return ch
}

// ListModels returns the installed models. An unreachable engine yields an
// empty list plus the error so callers can degrade instead of failing.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var resp TagsResponse
	if err := httputils.GetJSON(ctx, c.baseURL+"/api/tags", &resp); err != nil {
		c.logger.Error("ollama list models failed", zap.Error(err))
		return []ModelInfo{}, err
	}
	if resp.Models == nil {
		resp.Models = []ModelInfo{}
	}
	return resp.Models, nil
}

// ListModelsDetailed adds the size converted to gigabytes.
func (c *Client) ListModelsDetailed(ctx context.Context) ([]ModelInfo, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return []ModelInfo{}, err
	}
	for i := range models {
		models[i].SizeGB = math.Round(float64(models[i].Size)/(1<<30)*100) / 100
	}
	return models, nil
}

func (c *Client) DeleteModel(ctx context.Context, name string) error {
	return httputils.DeleteJSON(ctx, c.baseURL+"/api/delete", map[string]string{"name": name})
}

// CheckConnection reports whether the inference engine answers at all.
func (c *Client) CheckConnection(ctx context.Context) bool {
	return httputils.GetJSON(ctx, c.baseURL+"/api/tags", nil) == nil
}
