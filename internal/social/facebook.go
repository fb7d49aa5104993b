package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Devanshi-Padia/media-automation/internal/metrics"
	"github.com/Devanshi-Padia/media-automation/internal/platform"
)

// FacebookCredentials holds Facebook page credentials.
type FacebookCredentials struct {
	PageID          string
	PageAccessToken string
}

// FacebookPoster publishes page posts through the Graph API.
type FacebookPoster struct {
	creds      FacebookCredentials
	baseURL    string
	httpClient *http.Client
}

// NewFacebookPoster creates a new Facebook poster.
func NewFacebookPoster(creds FacebookCredentials) *FacebookPoster {
	return &FacebookPoster{
		creds:   creds,
		baseURL: defaultGraphAPIURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SetBaseURL overrides the Graph API endpoint, used in tests.
func (f *FacebookPoster) SetBaseURL(baseURL string) {
	f.baseURL = strings.TrimRight(baseURL, "/")
}

// Platform returns the destination this poster publishes to.
func (f *FacebookPoster) Platform() platform.Platform {
	return platform.Facebook
}

// Post publishes to the page: a photo post when an image is present, a plain
// feed post otherwise.
func (f *FacebookPoster) Post(ctx context.Context, text, imagePath string) error {
	if f.creds.PageID == "" || f.creds.PageAccessToken == "" {
		return fmt.Errorf("credentials not configured")
	}
	if imagePath != "" {
		return f.postPhoto(ctx, text, imagePath)
	}
	return f.postFeed(ctx, text)
}

// postPhoto uploads the image with the message to /{page-id}/photos.
func (f *FacebookPoster) postPhoto(ctx context.Context, message, imagePath string) error {
	file, err := os.Open(imagePath)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("message", message); err != nil {
		return fmt.Errorf("writing message field: %w", err)
	}
	if err := writer.WriteField("access_token", f.creds.PageAccessToken); err != nil {
		return fmt.Errorf("writing token field: %w", err)
	}
	part, err := writer.CreateFormFile("source", filepath.Base(imagePath))
	if err != nil {
		return fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copying image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing multipart writer: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/photos", f.baseURL, f.creds.PageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return f.do(req, "post_photo")
}

// postFeed publishes a text-only post to /{page-id}/feed.
func (f *FacebookPoster) postFeed(ctx context.Context, message string) error {
	form := url.Values{}
	form.Set("message", message)
	form.Set("access_token", f.creds.PageAccessToken)

	endpoint := fmt.Sprintf("%s/%s/feed", f.baseURL, f.creds.PageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return f.do(req, "post_feed")
}

func (f *FacebookPoster) do(req *http.Request, operation string) error {
	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("facebook", operation, start, err)
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		err = fmt.Errorf("facebook API returned status %d: %s", resp.StatusCode, string(respBody))
		metrics.ObserveNetworkRequest("facebook", operation, start, err)
		return err
	}
	metrics.ObserveNetworkRequest("facebook", operation, start, nil)

	var graphResp struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&graphResp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if graphResp.ID == "" && graphResp.PostID == "" {
		return fmt.Errorf("no post id in response")
	}
	return nil
}
