package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Devanshi-Padia/media-automation/internal/metrics"
	"github.com/Devanshi-Padia/media-automation/internal/platform"
)

// DiscordPoster publishes messages through an incoming webhook.
type DiscordPoster struct {
	webhookURL string
	httpClient *http.Client
}

// NewDiscordPoster creates a new Discord webhook poster.
func NewDiscordPoster(webhookURL string) *DiscordPoster {
	return &DiscordPoster{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Platform returns the destination this poster publishes to.
func (d *DiscordPoster) Platform() platform.Platform {
	return platform.Discord
}

// Post sends the message to the webhook, attaching the image when present.
func (d *DiscordPoster) Post(ctx context.Context, text, imagePath string) error {
	if d.webhookURL == "" {
		return fmt.Errorf("webhook URL not configured")
	}

	var req *http.Request
	var err error
	if imagePath != "" {
		req, err = d.multipartRequest(ctx, text, imagePath)
	} else {
		req, err = d.jsonRequest(ctx, text)
	}
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("discord", "webhook", start, err)
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content is the usual webhook success reply.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		err = fmt.Errorf("discord webhook returned status %d: %s", resp.StatusCode, string(respBody))
		metrics.ObserveNetworkRequest("discord", "webhook", start, err)
		return err
	}
	metrics.ObserveNetworkRequest("discord", "webhook", start, nil)
	return nil
}

// multipartRequest builds a webhook request with the image attached.
func (d *DiscordPoster) multipartRequest(ctx context.Context, text, imagePath string) (*http.Request, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer file.Close()

	payload, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("payload_json", string(payload)); err != nil {
		return nil, fmt.Errorf("writing payload field: %w", err)
	}
	part, err := writer.CreateFormFile("file", filepath.Base(imagePath))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copying image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}

// jsonRequest builds a text-only webhook request.
func (d *DiscordPoster) jsonRequest(ctx context.Context, text string) (*http.Request, error) {
	body, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
