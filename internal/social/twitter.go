package social

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Devanshi-Padia/media-automation/internal/metrics"
	"github.com/Devanshi-Padia/media-automation/internal/platform"
)

const (
	defaultTwitterAPIURL    = "https://api.twitter.com"
	defaultTwitterUploadURL = "https://upload.twitter.com"
)

// TwitterCredentials holds the OAuth 1.0a user context credentials.
type TwitterCredentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// TwitterPoster publishes tweets with media through the v1.1 upload and v2
// tweet APIs.
type TwitterPoster struct {
	creds      TwitterCredentials
	apiURL     string
	uploadURL  string
	httpClient *http.Client
}

// NewTwitterPoster creates a new Twitter poster.
func NewTwitterPoster(creds TwitterCredentials) *TwitterPoster {
	return &TwitterPoster{
		creds:     creds,
		apiURL:    defaultTwitterAPIURL,
		uploadURL: defaultTwitterUploadURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SetBaseURLs overrides the API endpoints, used in tests.
func (t *TwitterPoster) SetBaseURLs(apiURL, uploadURL string) {
	t.apiURL = strings.TrimRight(apiURL, "/")
	t.uploadURL = strings.TrimRight(uploadURL, "/")
}

// Platform returns the destination this poster publishes to.
func (t *TwitterPoster) Platform() platform.Platform {
	return platform.Twitter
}

// Post publishes a tweet. When the media upload fails the tweet is still
// posted text-only.
func (t *TwitterPoster) Post(ctx context.Context, text, imagePath string) error {
	if t.creds.APIKey == "" || t.creds.APISecret == "" || t.creds.AccessToken == "" || t.creds.AccessSecret == "" {
		return fmt.Errorf("credentials not configured")
	}

	runes := []rune(text)
	if limit := platform.Twitter.CharLimit(); len(runes) > limit {
		text = string(runes[:limit])
	}

	var mediaIDs []string
	if imagePath != "" {
		mediaID, err := t.uploadMedia(ctx, imagePath)
		if err == nil {
			mediaIDs = append(mediaIDs, mediaID)
		}
		// Upload failure degrades to a text-only tweet.
	}

	return t.createTweet(ctx, text, mediaIDs)
}

type tweetRequest struct {
	Text  string      `json:"text"`
	Media *tweetMedia `json:"media,omitempty"`
}

type tweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type tweetResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// createTweet posts the tweet through the v2 API.
func (t *TwitterPoster) createTweet(ctx context.Context, text string, mediaIDs []string) error {
	payload := tweetRequest{Text: text}
	if len(mediaIDs) > 0 {
		payload.Media = &tweetMedia{MediaIDs: mediaIDs}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling tweet: %w", err)
	}

	endpoint := t.apiURL + "/2/tweets"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", t.authorizationHeader(http.MethodPost, endpoint, nil))

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("twitter", "create_tweet", start, err)
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		err = fmt.Errorf("twitter API returned status %d: %s", resp.StatusCode, string(respBody))
		metrics.ObserveNetworkRequest("twitter", "create_tweet", start, err)
		return err
	}
	metrics.ObserveNetworkRequest("twitter", "create_tweet", start, nil)

	var tweetResp tweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&tweetResp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if tweetResp.Data.ID == "" {
		return fmt.Errorf("no tweet id in response")
	}
	return nil
}

// uploadMedia uploads the image through the v1.1 media endpoint and returns
// its media id.
func (t *TwitterPoster) uploadMedia(ctx context.Context, imagePath string) (string, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("opening image: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("media", filepath.Base(imagePath))
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("copying image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing multipart writer: %w", err)
	}

	endpoint := t.uploadURL + "/1.1/media/upload.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", t.authorizationHeader(http.MethodPost, endpoint, nil))

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("twitter", "media_upload", start, err)
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		err = fmt.Errorf("media upload returned status %d: %s", resp.StatusCode, string(respBody))
		metrics.ObserveNetworkRequest("twitter", "media_upload", start, err)
		return "", err
	}
	metrics.ObserveNetworkRequest("twitter", "media_upload", start, nil)

	var uploadResp struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if uploadResp.MediaIDString == "" {
		return "", fmt.Errorf("no media id in response")
	}
	return uploadResp.MediaIDString, nil
}

// authorizationHeader builds an OAuth 1.0a HMAC-SHA1 Authorization header.
// extraParams carries request query/form parameters that take part in the
// signature; multipart and JSON bodies are excluded per the OAuth spec.
func (t *TwitterPoster) authorizationHeader(method, endpoint string, extraParams map[string]string) string {
	oauthParams := map[string]string{
		"oauth_consumer_key":     t.creds.APIKey,
		"oauth_nonce":            nonce(),
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        strconv.FormatInt(time.Now().Unix(), 10),
		"oauth_token":            t.creds.AccessToken,
		"oauth_version":          "1.0",
	}

	signatureParams := make(map[string]string, len(oauthParams)+len(extraParams))
	for k, v := range oauthParams {
		signatureParams[k] = v
	}
	for k, v := range extraParams {
		signatureParams[k] = v
	}
	oauthParams["oauth_signature"] = t.sign(method, endpoint, signatureParams)

	keys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("OAuth ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(percentEncode(k))
		b.WriteString(`="`)
		b.WriteString(percentEncode(oauthParams[k]))
		b.WriteString(`"`)
	}
	return b.String()
}

// sign computes the HMAC-SHA1 OAuth signature over the base string.
func (t *TwitterPoster) sign(method, endpoint string, params map[string]string) string {
	baseURL := endpoint
	if u, err := url.Parse(endpoint); err == nil {
		u.RawQuery = ""
		u.Fragment = ""
		baseURL = u.String()
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, percentEncode(k)+"="+percentEncode(params[k]))
	}

	base := strings.ToUpper(method) + "&" + percentEncode(baseURL) + "&" + percentEncode(strings.Join(pairs, "&"))
	key := percentEncode(t.creds.APISecret) + "&" + percentEncode(t.creds.AccessSecret)

	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode applies RFC 3986 percent-encoding.
func percentEncode(s string) string {
	var b strings.Builder
	for _, c := range []byte(s) {
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
			c == '-' || c == '.' || c == '_' || c == '~' {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func nonce() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(buf)
}
