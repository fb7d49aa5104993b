package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Devanshi-Padia/media-automation/internal/metrics"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client performs requests against the OpenAI REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new OpenAI API client.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// SetBaseURL overrides the API endpoint, used in tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// ChatMessage represents a message in a chat completion dialog.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ChatCompletionRequest describes the /chat/completions request body.
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatCompletionResponse describes the model reply.
type ChatCompletionResponse struct {
	Choices []ChatCompletionChoice `json:"choices"`
}

// ChatCompletionChoice holds a single model message.
type ChatCompletionChoice struct {
	Message ChatMessage `json:"message"`
}

// imageRequest describes the /images/generations request body.
type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateChatCompletion calls /chat/completions and returns the first choice's text.
func (c *Client) CreateChatCompletion(ctx context.Context, req ChatCompletionRequest) (string, error) {
	var resp ChatCompletionResponse
	if err := c.post(ctx, "/chat/completions", "chat_completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateImage calls /images/generations and returns the decoded image bytes.
func (c *Client) GenerateImage(ctx context.Context, model, prompt, size string) ([]byte, error) {
	req := imageRequest{
		Model:          model,
		Prompt:         prompt,
		N:              1,
		Size:           size,
		ResponseFormat: "b64_json",
	}
	var resp imageResponse
	if err := c.post(ctx, "/images/generations", "images_generations", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("openai: no image data in response")
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("openai: decoding image data: %w", err)
	}
	return data, nil
}

// post sends a JSON request and decodes the JSON response into out.
func (c *Client) post(ctx context.Context, path, operation string, in, out interface{}) error {
	if c.apiKey == "" {
		return fmt.Errorf("openai: api key is empty")
	}
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("openai: marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("openai: creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.ObserveNetworkRequest("openai", operation, start, err)
		return fmt.Errorf("openai: sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("openai", operation, start, err)
		return fmt.Errorf("openai: reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr apiErrorResponse
		if jsonErr := json.Unmarshal(respBody, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
			err = fmt.Errorf("openai: %s", apiErr.Error.Message)
		} else {
			err = fmt.Errorf("openai: unexpected status %d", resp.StatusCode)
		}
		metrics.ObserveNetworkRequest("openai", operation, start, err)
		return err
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		metrics.ObserveNetworkRequest("openai", operation, start, err)
		return fmt.Errorf("openai: decoding response: %w", err)
	}
	metrics.ObserveNetworkRequest("openai", operation, start, nil)
	return nil
}
