package content

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/Devanshi-Padia/media-automation/internal/news"
	"github.com/Devanshi-Padia/media-automation/internal/openai"
	"github.com/Devanshi-Padia/media-automation/internal/platform"
)

const systemPrompt = "You are a social media content creator. Generate a post suitable for all platforms. Be engaging and informative. Conclude with relevant hashtags."

// artifactPattern matches instruction tokens and markdown noise that chat
// models occasionally leak into their output.
var artifactPattern = regexp.MustCompile(`(\[/INST\]|\[INST\]|\|</s>|<\|start_of_turn\|>|<\|end_of_turn\|>|\*\*|\*|\[.*?\])`)

// TextGenerator produces platform-tailored post text.
type TextGenerator struct {
	ai    *openai.Client
	news  *news.Client
	model string
}

// NewTextGenerator creates a new text generator.
func NewTextGenerator(ai *openai.Client, newsClient *news.Client, model string) *TextGenerator {
	return &TextGenerator{
		ai:    ai,
		news:  newsClient,
		model: model,
	}
}

// Generate produces one text variant per requested platform, each within the
// platform's character limit. When includeNews is set, recent headlines for the
// prompt topic are fetched and injected into the model context; a news provider
// failure aborts the whole generation.
func (g *TextGenerator) Generate(ctx context.Context, prompt string, includeNews bool, platforms []platform.Platform) (map[platform.Platform]string, error) {
	userPrompt := fmt.Sprintf("Create an engaging social media post about the following topic: %s. Conclude with relevant hashtags.", prompt)

	if includeNews {
		articles, err := g.news.FetchLatest(ctx, prompt)
		if err != nil {
			return nil, err
		}
		if len(articles) > 0 {
			userPrompt = fmt.Sprintf("Based on the following news articles about %q, write an engaging social media post. Do not just list the news, but create a cohesive and interesting summary or take on them. Include relevant hashtags.\n\nNews context:\n%s",
				prompt, news.Summary(articles, 3))
		} else {
			userPrompt = fmt.Sprintf("No recent news articles were found for %q. %s", prompt, userPrompt)
		}
	}

	text, err := g.ai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatMessage{
			{Role: openai.RoleSystem, Content: systemPrompt},
			{Role: openai.RoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return nil, &GenerationError{Stage: "text", Err: err}
	}

	base := CleanText(text)
	if base == "" {
		return nil, &GenerationError{Stage: "text", Err: fmt.Errorf("model returned empty content")}
	}

	result := make(map[platform.Platform]string, len(platforms))
	for _, p := range platforms {
		result[p] = TrimToLastSentence(base, p.CharLimit())
	}
	return result, nil
}

// CleanText strips instruction-token and markdown artifacts from model output.
func CleanText(text string) string {
	return strings.TrimSpace(artifactPattern.ReplaceAllString(text, ""))
}

// TrimToLastSentence trims text to the last complete sentence that fits within
// limit characters. When not even the first sentence fits, the text is cut hard
// at the limit.
func TrimToLastSentence(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	var trimmed []rune
	for _, sentence := range splitSentences(text) {
		candidate := len(trimmed) + len([]rune(sentence))
		if candidate > limit {
			break
		}
		trimmed = append(trimmed, []rune(sentence)...)
	}

	if len(trimmed) == 0 {
		return strings.TrimSpace(string(runes[:limit]))
	}
	return strings.TrimSpace(string(trimmed))
}

// splitSentences splits text after terminal punctuation followed by
// whitespace, keeping the punctuation and trailing space with the sentence.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		if runes[i] != '.' && runes[i] != '!' && runes[i] != '?' {
			continue
		}
		end := i + 1
		for end < len(runes) && unicode.IsSpace(runes[end]) {
			end++
		}
		if end > i+1 || end == len(runes) {
			sentences = append(sentences, string(runes[start:end]))
			start = end
			i = end - 1
		}
	}
	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}
