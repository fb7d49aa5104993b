package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Devanshi-Padia/media-automation/internal/metrics"
)

const defaultBaseURL = "https://newsapi.org/v2"

// Article represents a single news article.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// FetchError represents a news provider failure.
type FetchError struct {
	Topic string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching news for %q: %v", e.Topic, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client handles News API operations.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new News API client.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetBaseURL overrides the API endpoint, used in tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// newsAPIResponse represents the News API /everything response.
type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// FetchLatest returns the most recent articles matching the topic.
// No matches is not an error: an empty slice is returned.
func (c *Client) FetchLatest(ctx context.Context, topic string) ([]Article, error) {
	if c.apiKey == "" {
		return nil, &FetchError{Topic: topic, Err: fmt.Errorf("news API key is not configured")}
	}

	query := url.Values{}
	query.Set("q", topic)
	query.Set("sortBy", "publishedAt")
	query.Set("pageSize", "10")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/everything?"+query.Encode(), nil)
	if err != nil {
		return nil, &FetchError{Topic: topic, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("news", "everything", start, err)
		return nil, &FetchError{Topic: topic, Err: fmt.Errorf("sending request: %w", err)}
	}
	defer resp.Body.Close()

	var apiResp newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		metrics.ObserveNetworkRequest("news", "everything", start, err)
		return nil, &FetchError{Topic: topic, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK || apiResp.Status != "ok" {
		err := fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, apiResp.Message)
		metrics.ObserveNetworkRequest("news", "everything", start, err)
		return nil, &FetchError{Topic: topic, Err: err}
	}
	metrics.ObserveNetworkRequest("news", "everything", start, nil)

	articles := make([]Article, 0, len(apiResp.Articles))
	for _, a := range apiResp.Articles {
		article := Article{
			Title:       a.Title,
			Description: a.Description,
			Source:      a.Source.Name,
			URL:         a.URL,
		}
		if a.PublishedAt != "" {
			if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
				article.PublishedAt = t
			}
		}
		articles = append(articles, article)
	}

	return articles, nil
}

// Summary formats the top n articles as a headline block for prompt context.
func Summary(articles []Article, n int) string {
	if len(articles) == 0 {
		return ""
	}
	if n > len(articles) {
		n = len(articles)
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString("\n\n")
		}
		description := articles[i].Description
		if description == "" {
			description = "No description available."
		}
		b.WriteString(fmt.Sprintf("Title: %s\nDescription: %s", articles[i].Title, description))
	}
	return b.String()
}
