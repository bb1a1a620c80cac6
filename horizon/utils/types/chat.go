// horizon/utils/types/chat.go
package types

// ChatRequest is the body of POST /api/v1/chat. Images are base64-encoded
// and passed through to the inference engine untouched.
type ChatRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	ChatID string   `json:"chat_id,omitempty"`
	Images []string `json:"images,omitempty"`
}

type PullRequest struct {
	Name string `json:"name"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
