package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Devanshi-Padia/media-automation/internal/metrics"
	"github.com/Devanshi-Padia/media-automation/internal/platform"
)

const defaultLinkedInAPIURL = "https://api.linkedin.com"

// LinkedInCredentials holds LinkedIn API credentials.
type LinkedInCredentials struct {
	AccessToken string
	AuthorURN   string
}

// LinkedInPoster publishes UGC posts with an optional image through the
// registerUpload flow.
type LinkedInPoster struct {
	creds      LinkedInCredentials
	baseURL    string
	httpClient *http.Client
}

// NewLinkedInPoster creates a new LinkedIn poster.
func NewLinkedInPoster(creds LinkedInCredentials) *LinkedInPoster {
	return &LinkedInPoster{
		creds:   creds,
		baseURL: defaultLinkedInAPIURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SetBaseURL overrides the API endpoint, used in tests.
func (l *LinkedInPoster) SetBaseURL(baseURL string) {
	l.baseURL = strings.TrimRight(baseURL, "/")
}

// Platform returns the destination this poster publishes to.
func (l *LinkedInPoster) Platform() platform.Platform {
	return platform.LinkedIn
}

// Post registers and uploads the image when present, then creates the UGC post.
func (l *LinkedInPoster) Post(ctx context.Context, text, imagePath string) error {
	if l.creds.AccessToken == "" || l.creds.AuthorURN == "" {
		return fmt.Errorf("credentials not configured")
	}

	shareContent := map[string]interface{}{
		"shareCommentary":    map[string]string{"text": text},
		"shareMediaCategory": "NONE",
	}

	if imagePath != "" {
		asset, err := l.uploadImage(ctx, imagePath)
		if err != nil {
			return err
		}
		shareContent["shareMediaCategory"] = "IMAGE"
		shareContent["media"] = []map[string]string{{"status": "READY", "media": asset}}
	}

	postData := map[string]interface{}{
		"author":         l.creds.AuthorURN,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": shareContent,
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	body, err := json.Marshal(postData)
	if err != nil {
		return fmt.Errorf("marshaling post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/v2/ugcPosts", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	l.setHeaders(req)

	start := time.Now()
	resp, err := l.httpClient.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("linkedin", "ugc_posts", start, err)
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		err = fmt.Errorf("linkedin API returned status %d: %s", resp.StatusCode, string(respBody))
		metrics.ObserveNetworkRequest("linkedin", "ugc_posts", start, err)
		return err
	}
	metrics.ObserveNetworkRequest("linkedin", "ugc_posts", start, nil)
	return nil
}

// registerUploadResponse is the subset of the registerUpload reply we consume.
type registerUploadResponse struct {
	Value struct {
		Asset           string `json:"asset"`
		UploadMechanism struct {
			Request struct {
				UploadURL string `json:"uploadUrl"`
			} `json:"com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"`
		} `json:"uploadMechanism"`
	} `json:"value"`
}

// uploadImage registers an upload slot and puts the image bytes, returning the
// asset URN.
func (l *LinkedInPoster) uploadImage(ctx context.Context, imagePath string) (string, error) {
	registerData := map[string]interface{}{
		"registerUploadRequest": map[string]interface{}{
			"recipes": []string{"urn:li:digitalmediaRecipe:feedshare-image"},
			"owner":   l.creds.AuthorURN,
			"serviceRelationships": []map[string]string{{
				"relationshipType": "OWNER",
				"identifier":       "urn:li:userGeneratedContent",
			}},
		},
	}

	body, err := json.Marshal(registerData)
	if err != nil {
		return "", fmt.Errorf("marshaling register request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/v2/assets?action=registerUpload", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	l.setHeaders(req)

	start := time.Now()
	resp, err := l.httpClient.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("linkedin", "register_upload", start, err)
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		err = fmt.Errorf("register upload returned status %d: %s", resp.StatusCode, string(respBody))
		metrics.ObserveNetworkRequest("linkedin", "register_upload", start, err)
		return "", err
	}
	metrics.ObserveNetworkRequest("linkedin", "register_upload", start, nil)

	var registerResp registerUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&registerResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	uploadURL := registerResp.Value.UploadMechanism.Request.UploadURL
	if uploadURL == "" || registerResp.Value.Asset == "" {
		return "", fmt.Errorf("incomplete register upload response")
	}

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}

	putReq, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("creating upload request: %w", err)
	}
	putReq.Header.Set("Authorization", "Bearer "+l.creds.AccessToken)

	start = time.Now()
	putResp, err := l.httpClient.Do(putReq)
	if err != nil {
		metrics.ObserveNetworkRequest("linkedin", "upload_image", start, err)
		return "", fmt.Errorf("uploading image: %w", err)
	}
	defer putResp.Body.Close()

	if putResp.StatusCode >= 400 {
		err = fmt.Errorf("image upload returned status %d", putResp.StatusCode)
		metrics.ObserveNetworkRequest("linkedin", "upload_image", start, err)
		return "", err
	}
	metrics.ObserveNetworkRequest("linkedin", "upload_image", start, nil)

	return registerResp.Value.Asset, nil
}

func (l *LinkedInPoster) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+l.creds.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
}
