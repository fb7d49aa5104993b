package news

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchLatestSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("Expected API key header, got %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "blockchain" {
			t.Errorf("Expected topic query 'blockchain', got %q", got)
		}
		if got := r.URL.Query().Get("sortBy"); got != "publishedAt" {
			t.Errorf("Expected sortBy=publishedAt, got %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "ok",
			"articles": [
				{"title": "First", "description": "Desc one", "url": "http://example.com/1", "publishedAt": "2024-06-01T10:00:00Z", "source": {"name": "Example"}},
				{"title": "Second", "description": "", "url": "http://example.com/2", "source": {"name": "Other"}}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key")
	client.SetBaseURL(server.URL)

	articles, err := client.FetchLatest(context.Background(), "blockchain")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(articles))
	}
	if articles[0].Title != "First" || articles[0].Source != "Example" {
		t.Errorf("Unexpected first article: %+v", articles[0])
	}
	if articles[0].PublishedAt.IsZero() {
		t.Error("Expected parsed publish time")
	}
}

func TestFetchLatestNoMatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok", "articles": []}`))
	}))
	defer server.Close()

	client := NewClient("test-key")
	client.SetBaseURL(server.URL)

	articles, err := client.FetchLatest(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("Expected no error for empty result, got: %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("Expected empty slice, got %d articles", len(articles))
	}
}

func TestFetchLatestAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status": "error", "message": "Your API key is invalid"}`))
	}))
	defer server.Close()

	client := NewClient("bad-key")
	client.SetBaseURL(server.URL)

	_, err := client.FetchLatest(context.Background(), "anything")
	if err == nil {
		t.Fatal("Expected error for unauthorized response")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got %T", err)
	}
	if fetchErr.Topic != "anything" {
		t.Errorf("Expected topic in error, got %q", fetchErr.Topic)
	}
	if !strings.Contains(err.Error(), "invalid") {
		t.Errorf("Expected provider message in error, got: %v", err)
	}
}

func TestFetchLatestMissingKey(t *testing.T) {
	client := NewClient("")

	_, err := client.FetchLatest(context.Background(), "topic")
	if err == nil {
		t.Fatal("Expected error for missing API key")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got %T", err)
	}
}

func TestSummary(t *testing.T) {
	articles := []Article{
		{Title: "A", Description: "first"},
		{Title: "B"},
		{Title: "C", Description: "third"},
		{Title: "D", Description: "fourth"},
	}

	summary := Summary(articles, 3)

	if !strings.Contains(summary, "Title: A\nDescription: first") {
		t.Errorf("Expected first article block, got:\n%s", summary)
	}
	if !strings.Contains(summary, "Description: No description available.") {
		t.Errorf("Expected placeholder description, got:\n%s", summary)
	}
	if strings.Contains(summary, "fourth") {
		t.Error("Expected summary limited to top 3 articles")
	}

	if got := Summary(nil, 3); got != "" {
		t.Errorf("Expected empty summary for no articles, got %q", got)
	}
}
