package content

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Devanshi-Padia/media-automation/internal/imaging"
	"github.com/Devanshi-Padia/media-automation/internal/metrics"
	"github.com/Devanshi-Padia/media-automation/internal/openai"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 2 * time.Second

	generatedSize   = "1024x1024"
	outputQuality   = 85
	headlineMaxLen  = 80
	templateMarginX = 64
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// ImageGenerator produces composited, compressed post images.
type ImageGenerator struct {
	ai           *openai.Client
	textModel    string
	imageModel   string
	templatePath string
	outputDir    string
	maxAttempts  int
	baseDelay    time.Duration
	logger       zerolog.Logger
}

// NewImageGenerator creates a new image generator. maxAttempts bounds the
// retry loop; delays between attempts grow linearly from baseDelay.
func NewImageGenerator(ai *openai.Client, textModel, imageModel, templatePath, outputDir string, maxAttempts int, logger zerolog.Logger) *ImageGenerator {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	return &ImageGenerator{
		ai:           ai,
		textModel:    textModel,
		imageModel:   imageModel,
		templatePath: templatePath,
		outputDir:    outputDir,
		maxAttempts:  maxAttempts,
		baseDelay:    defaultBaseDelay,
		logger:       logger,
	}
}

// Generate requests an image from the provider, composites it onto the local
// template with a headline overlay, and writes the compressed result under the
// output directory. The returned path exists on disk when the call returns.
func (g *ImageGenerator) Generate(ctx context.Context, prompt, name string) (string, error) {
	enhanced := g.enhancePrompt(ctx, prompt)

	data, attempts, err := g.generateWithRetry(ctx, enhanced)
	if err != nil {
		return "", &GenerationError{Stage: "image", Attempts: attempts, Err: err}
	}

	generated, err := imaging.Decode(data)
	if err != nil {
		return "", &GenerationError{Stage: "image", Attempts: attempts, Err: err}
	}

	composited, err := g.composite(generated, headline(prompt))
	if err != nil {
		return "", &GenerationError{Stage: "image", Attempts: attempts, Err: err}
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", &GenerationError{Stage: "image", Attempts: attempts, Err: fmt.Errorf("creating output directory: %w", err)}
	}

	outPath := filepath.Join(g.outputDir, outputFilename(name))
	if err := imaging.WriteJPEG(outPath, composited, outputQuality); err != nil {
		return "", &GenerationError{Stage: "image", Attempts: attempts, Err: err}
	}

	g.logger.Info().Str("path", outPath).Int("attempts", attempts).Msg("image generated")
	return outPath, nil
}

// generateWithRetry calls the image provider up to maxAttempts times with a
// linearly growing delay between failures.
func (g *ImageGenerator) generateWithRetry(ctx context.Context, prompt string) ([]byte, int, error) {
	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		metrics.ImageGenerationAttempts.Inc()

		data, err := g.ai.GenerateImage(ctx, g.imageModel, prompt, generatedSize)
		if err == nil {
			return data, attempt, nil
		}
		lastErr = err
		g.logger.Warn().Err(err).Int("attempt", attempt).Msg("image generation attempt failed")

		if attempt == g.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, attempt, ctx.Err()
		case <-time.After(g.baseDelay * time.Duration(attempt)):
		}
	}
	return nil, g.maxAttempts, lastErr
}

// enhancePrompt asks the text model to rewrite the prompt for photorealism.
// On any failure the raw prompt is used.
func (g *ImageGenerator) enhancePrompt(ctx context.Context, prompt string) string {
	enhanced, err := g.ai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.textModel,
		Messages: []openai.ChatMessage{
			{Role: openai.RoleUser, Content: fmt.Sprintf("Enhance this prompt for a photorealistic image: %q", prompt)},
		},
	})
	if err != nil || strings.TrimSpace(enhanced) == "" {
		return prompt
	}
	return strings.TrimSpace(enhanced)
}

// composite places the generated image onto the fixed template and draws the
// headline band.
func (g *ImageGenerator) composite(generated image.Image, headline string) (image.Image, error) {
	template, err := imaging.Open(g.templatePath)
	if err != nil {
		return nil, fmt.Errorf("opening template %s: %w", g.templatePath, err)
	}

	bounds := template.Bounds()
	inner := bounds.Dx() - 2*templateMarginX
	if inner < 1 {
		inner = bounds.Dx()
	}
	resized := imaging.Resize(generated, inner, inner)

	offset := image.Pt(bounds.Min.X+(bounds.Dx()-inner)/2, bounds.Min.Y+(bounds.Dy()-inner)/2)
	composited := imaging.Composite(template, resized, offset)

	return imaging.DrawHeadline(composited, headline)
}

// headline derives a short overlay line from the first sentence of the prompt.
func headline(prompt string) string {
	text := strings.TrimSpace(prompt)
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			text = text[:i]
			break
		}
	}
	runes := []rune(text)
	if len(runes) > headlineMaxLen {
		text = string(runes[:headlineMaxLen])
	}
	return strings.TrimSpace(text)
}

// outputFilename builds a collision-free filename from the requested name.
func outputFilename(name string) string {
	base := unsafeNameChars.ReplaceAllString(strings.TrimSuffix(name, filepath.Ext(name)), "_")
	if base == "" || base == "_" {
		base = "generated"
	}
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%s_%d_%s.jpg", base, time.Now().Unix(), suffix)
}
