package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/Devanshi-Padia/media-automation/internal/metrics"
	"github.com/Devanshi-Padia/media-automation/internal/platform"
)

const defaultGraphAPIURL = "https://graph.facebook.com/v18.0"

// InstagramCredentials holds Instagram Graph API credentials.
type InstagramCredentials struct {
	UserID      string
	AccessToken string
}

// InstagramPoster publishes image posts through the Instagram Graph API's
// two-step container flow. Instagram fetches the image itself, so the poster
// needs a publicly reachable URL for the generated file.
type InstagramPoster struct {
	creds         InstagramCredentials
	baseURL       string
	publicBaseURL string
	httpClient    *http.Client
}

// NewInstagramPoster creates a new Instagram poster. publicBaseURL is the
// externally reachable base of this service's image endpoint.
func NewInstagramPoster(creds InstagramCredentials, publicBaseURL string) *InstagramPoster {
	return &InstagramPoster{
		creds:         creds,
		baseURL:       defaultGraphAPIURL,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SetBaseURL overrides the Graph API endpoint, used in tests.
func (i *InstagramPoster) SetBaseURL(baseURL string) {
	i.baseURL = strings.TrimRight(baseURL, "/")
}

// Platform returns the destination this poster publishes to.
func (i *InstagramPoster) Platform() platform.Platform {
	return platform.Instagram
}

// Post creates a media container for the image and publishes it.
func (i *InstagramPoster) Post(ctx context.Context, text, imagePath string) error {
	if i.creds.UserID == "" || i.creds.AccessToken == "" {
		return fmt.Errorf("credentials not configured")
	}
	if imagePath == "" {
		return fmt.Errorf("instagram requires an image to post")
	}

	imageURL := i.publicBaseURL + "/content/image/" + url.PathEscape(filepath.Base(imagePath))

	containerID, err := i.createContainer(ctx, imageURL, text)
	if err != nil {
		return err
	}
	return i.publishContainer(ctx, containerID)
}

// createContainer registers the image and caption as a media container.
func (i *InstagramPoster) createContainer(ctx context.Context, imageURL, caption string) (string, error) {
	form := url.Values{}
	form.Set("image_url", imageURL)
	form.Set("caption", caption)
	form.Set("access_token", i.creds.AccessToken)

	id, err := i.graphPost(ctx, fmt.Sprintf("%s/%s/media", i.baseURL, i.creds.UserID), "create_container", form)
	if err != nil {
		return "", err
	}
	return id, nil
}

// publishContainer publishes a previously created container.
func (i *InstagramPoster) publishContainer(ctx context.Context, containerID string) error {
	form := url.Values{}
	form.Set("creation_id", containerID)
	form.Set("access_token", i.creds.AccessToken)

	_, err := i.graphPost(ctx, fmt.Sprintf("%s/%s/media_publish", i.baseURL, i.creds.UserID), "media_publish", form)
	return err
}

// graphPost sends a form POST to the Graph API and returns the created id.
func (i *InstagramPoster) graphPost(ctx context.Context, endpoint, operation string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := i.httpClient.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("instagram", operation, start, err)
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		err = fmt.Errorf("instagram API returned status %d: %s", resp.StatusCode, string(respBody))
		metrics.ObserveNetworkRequest("instagram", operation, start, err)
		return "", err
	}
	metrics.ObserveNetworkRequest("instagram", operation, start, nil)

	var graphResp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&graphResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if graphResp.ID == "" {
		return "", fmt.Errorf("no id in response")
	}
	return graphResp.ID, nil
}
