package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Devanshi-Padia/media-automation/internal/news"
	"github.com/Devanshi-Padia/media-automation/internal/openai"
	"github.com/Devanshi-Padia/media-automation/internal/platform"
)

// newChatServer returns an httptest server answering /chat/completions with
// the given content and recording the last user prompt.
func newChatServer(t *testing.T, content string, lastPrompt *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Decoding chat request: %v", err)
		}
		if lastPrompt != nil && len(req.Messages) > 0 {
			*lastPrompt = req.Messages[len(req.Messages)-1].Content
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestTextGenerator(aiURL, newsURL string) *TextGenerator {
	aiClient := openai.NewClient("test-key")
	aiClient.SetBaseURL(aiURL)
	newsClient := news.NewClient("test-key")
	if newsURL != "" {
		newsClient.SetBaseURL(newsURL)
	}
	return NewTextGenerator(aiClient, newsClient, "gpt-4o-mini")
}

func TestGenerateKeysMatchRequestedPlatforms(t *testing.T) {
	long := strings.Repeat("This is a sentence about the topic. ", 40)
	server := newChatServer(t, long, nil)
	defer server.Close()

	generator := newTestTextGenerator(server.URL, "")
	requested := []platform.Platform{platform.Twitter, platform.Discord, platform.LinkedIn}

	texts, err := generator.Generate(context.Background(), "blockchain", false, requested)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(texts) != len(requested) {
		t.Fatalf("Expected %d entries, got %d", len(requested), len(texts))
	}
	for _, p := range requested {
		text, ok := texts[p]
		if !ok {
			t.Errorf("Missing text for %s", p)
			continue
		}
		if got := utf8.RuneCountInString(text); got > p.CharLimit() {
			t.Errorf("Text for %s exceeds limit: %d > %d", p, got, p.CharLimit())
		}
		if text == "" {
			t.Errorf("Empty text for %s", p)
		}
	}
	if _, ok := texts[platform.Facebook]; ok {
		t.Error("Got text for platform that was not requested")
	}
}

func TestGenerateInjectsNewsContext(t *testing.T) {
	var lastPrompt string
	chatServer := newChatServer(t, "A post.", &lastPrompt)
	defer chatServer.Close()

	newsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok", "articles": [{"title": "Big Merger", "description": "Two firms merge", "source": {"name": "Wire"}}]}`))
	}))
	defer newsServer.Close()

	generator := newTestTextGenerator(chatServer.URL, newsServer.URL)

	_, err := generator.Generate(context.Background(), "fintech", true, []platform.Platform{platform.Twitter})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(lastPrompt, "News context") {
		t.Errorf("Expected news context in prompt, got: %s", lastPrompt)
	}
	if !strings.Contains(lastPrompt, "Big Merger") {
		t.Errorf("Expected headline in prompt, got: %s", lastPrompt)
	}
}

func TestGenerateNewsFailureAborts(t *testing.T) {
	chatCalls := 0
	chatServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatCalls++
		w.Write([]byte(`{"choices": [{"message": {"content": "text"}}]}`))
	}))
	defer chatServer.Close()

	newsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status": "error", "message": "bad key"}`))
	}))
	defer newsServer.Close()

	generator := newTestTextGenerator(chatServer.URL, newsServer.URL)

	_, err := generator.Generate(context.Background(), "topic", true, []platform.Platform{platform.Twitter})
	if err == nil {
		t.Fatal("Expected error when news fetch fails")
	}

	var fetchErr *news.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *news.FetchError, got %T", err)
	}
	if chatCalls != 0 {
		t.Errorf("Expected no model call after news failure, got %d", chatCalls)
	}
}

func TestGenerateProviderFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "quota exceeded"}}`))
	}))
	defer server.Close()

	generator := newTestTextGenerator(server.URL, "")

	_, err := generator.Generate(context.Background(), "topic", false, []platform.Platform{platform.Twitter})
	if err == nil {
		t.Fatal("Expected error for provider failure")
	}

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Expected *GenerationError, got %T", err)
	}
	if genErr.Stage != "text" {
		t.Errorf("Expected stage 'text', got %q", genErr.Stage)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("Expected provider message, got: %v", err)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text unchanged", "Hello world. #tag", "Hello world. #tag"},
		{"instruction tokens stripped", "[INST]Hello[/INST] world", "Hello world"},
		{"markdown emphasis stripped", "**Bold** and *italic* text", "Bold and italic text"},
		{"bracketed segments stripped", "Before [note to self] after", "Before  after"},
		{"surrounding whitespace trimmed", "  text  ", "text"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := CleanText(test.input); got != test.want {
				t.Errorf("Expected %q, got %q", test.want, got)
			}
		})
	}
}

func TestTrimToLastSentence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{
			name:  "under limit unchanged",
			input: "Short text.",
			limit: 280,
			want:  "Short text.",
		},
		{
			name:  "trims at sentence boundary",
			input: "First sentence. Second sentence. Third sentence.",
			limit: 35,
			want:  "First sentence. Second sentence.",
		},
		{
			name:  "keeps exclamation and question sentences",
			input: "Really! Are you sure? Definitely not this one.",
			limit: 25,
			want:  "Really! Are you sure?",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := TrimToLastSentence(test.input, test.limit); got != test.want {
				t.Errorf("Expected %q, got %q", test.want, got)
			}
		})
	}
}

func TestTrimToLastSentenceHardCut(t *testing.T) {
	input := strings.Repeat("a", 300) + ". More."
	got := TrimToLastSentence(input, 50)
	if utf8.RuneCountInString(got) > 50 {
		t.Errorf("Expected hard cut within limit, got %d runes", utf8.RuneCountInString(got))
	}
	if got == "" {
		t.Error("Expected non-empty result")
	}
}

func TestTrimToLastSentenceNeverExceedsLimit(t *testing.T) {
	inputs := []string{
		"One. Two. Three. Four. Five. Six. Seven. Eight. Nine. Ten.",
		strings.Repeat("Sentence here. ", 100),
		strings.Repeat("x", 500),
	}
	for i, input := range inputs {
		for _, limit := range []int{10, 50, 280} {
			got := TrimToLastSentence(input, limit)
			if utf8.RuneCountInString(got) > limit {
				t.Errorf("Input %d limit %d: got %d runes", i, limit, utf8.RuneCountInString(got))
			}
		}
	}
}

func TestGenerationErrorMessage(t *testing.T) {
	err := &GenerationError{Stage: "image", Attempts: 3, Err: fmt.Errorf("boom")}
	if !strings.Contains(err.Error(), "3 attempts") {
		t.Errorf("Expected attempt count in message, got: %v", err)
	}

	single := &GenerationError{Stage: "text", Err: fmt.Errorf("boom")}
	if strings.Contains(single.Error(), "attempts") {
		t.Errorf("Expected no attempt count for single try, got: %v", single)
	}
}
