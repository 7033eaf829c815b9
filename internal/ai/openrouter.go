// internal/ai/openrouter.go
package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	appErrors "github.com/postpilot/postpilot-backend/internal/errors"
)

const defaultModel = "openai/gpt-3.5-turbo"

// OpenRouterClient calls the OpenRouter chat-completions API.
type OpenRouterClient struct {
	APIKey  string
	Model   string
	BaseURL string
	HTTP    *http.Client
}

func NewOpenRouterClient() *OpenRouterClient {
	model := os.Getenv("OPENROUTER_MODEL")
	if model == "" {
		model = defaultModel
	}
	return &OpenRouterClient{
		APIKey:  os.Getenv("OPENROUTER_API_KEY"),
		Model:   model,
		BaseURL: "https://openrouter.ai/api/v1",
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerateContent sends the prompt and returns the model's reply. Every
// provider-side problem (auth, rate limit, empty output) comes back as a
// generation error.
func (c *OpenRouterClient) GenerateContent(prompt string, maxTokens int) (string, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model:     c.Model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", appErrors.NewGenerationError(err.Error())
	}

	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", appErrors.NewGenerationError(err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", appErrors.NewGenerationError(err.Error())
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", appErrors.NewGenerationError(err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		reason := fmt.Sprintf("provider returned status %d", resp.StatusCode)
		if parsed.Error != nil {
			reason = parsed.Error.Message
		}
		return "", appErrors.NewGenerationError(reason)
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", appErrors.NewGenerationError("provider returned empty content")
	}

	return parsed.Choices[0].Message.Content, nil
}

var _ Generator = (*OpenRouterClient)(nil)
