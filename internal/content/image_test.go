package content

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Devanshi-Padia/media-automation/internal/imaging"
	"github.com/Devanshi-Padia/media-automation/internal/openai"
)

// testPNG returns an encoded square PNG for use as fake provider output.
func testPNG(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Encoding test image: %v", err)
	}
	return buf.Bytes()
}

// writeTemplate writes a JPEG template fixture and returns its path.
func writeTemplate(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 400, 400))
	path := filepath.Join(dir, "template.jpg")
	if err := imaging.WriteJPEG(path, img, 85); err != nil {
		t.Fatalf("Writing template fixture: %v", err)
	}
	return path
}

// newImageServer answers chat completions and image generations, failing the
// first failCount image requests with a 500.
func newImageServer(t *testing.T, pngData []byte, failCount int, imageCalls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chat/completions":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"message": map[string]string{"content": "a richly detailed scene"}},
				},
			})
		case "/images/generations":
			*imageCalls++
			if *imageCalls <= failCount {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error": {"message": "server overloaded"}}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]string{
					{"b64_json": base64.StdEncoding.EncodeToString(pngData)},
				},
			})
		default:
			t.Errorf("Unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
}

func newTestImageGenerator(t *testing.T, serverURL string, maxAttempts int) (*ImageGenerator, string) {
	t.Helper()
	dir := t.TempDir()
	templatePath := writeTemplate(t, dir)
	outputDir := filepath.Join(dir, "generated")

	client := openai.NewClient("test-key")
	client.SetBaseURL(serverURL)

	g := NewImageGenerator(client, "gpt-4o-mini", "dall-e-3", templatePath, outputDir, maxAttempts, zerolog.Nop())
	g.baseDelay = time.Millisecond
	return g, outputDir
}

func TestImageGenerateWritesFile(t *testing.T) {
	imageCalls := 0
	server := newImageServer(t, testPNG(t, 64), 0, &imageCalls)
	defer server.Close()

	generator, outputDir := newTestImageGenerator(t, server.URL, 3)

	path, err := generator.Generate(context.Background(), "A city skyline at dusk.", "skyline post")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected generated file on disk: %v", err)
	}
	if filepath.Dir(path) != outputDir {
		t.Errorf("Expected file under %s, got %s", outputDir, path)
	}
	if !strings.HasSuffix(path, ".jpg") {
		t.Errorf("Expected .jpg output, got %s", path)
	}
	if imageCalls != 1 {
		t.Errorf("Expected 1 provider call, got %d", imageCalls)
	}
}

func TestImageGenerateRecoversAfterTransientFailure(t *testing.T) {
	imageCalls := 0
	server := newImageServer(t, testPNG(t, 64), 2, &imageCalls)
	defer server.Close()

	generator, _ := newTestImageGenerator(t, server.URL, 3)

	path, err := generator.Generate(context.Background(), "A mountain lake.", "lake")
	if err != nil {
		t.Fatalf("Expected success on final attempt, got: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected generated file on disk: %v", err)
	}
	if imageCalls != 3 {
		t.Errorf("Expected 3 provider calls, got %d", imageCalls)
	}
}

func TestImageGenerateExhaustsRetries(t *testing.T) {
	imageCalls := 0
	server := newImageServer(t, nil, 100, &imageCalls)
	defer server.Close()

	generator, outputDir := newTestImageGenerator(t, server.URL, 3)

	_, err := generator.Generate(context.Background(), "Anything.", "doomed")
	if err == nil {
		t.Fatal("Expected error when all attempts fail")
	}

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Expected *GenerationError, got %T", err)
	}
	if genErr.Attempts != 3 {
		t.Errorf("Expected 3 attempts recorded, got %d", genErr.Attempts)
	}
	if imageCalls != 3 {
		t.Errorf("Expected 3 provider calls, got %d", imageCalls)
	}

	entries, _ := os.ReadDir(outputDir)
	if len(entries) != 0 {
		t.Errorf("Expected no files written on failure, found %d", len(entries))
	}
}

func TestImageGenerateDistinctFilenames(t *testing.T) {
	imageCalls := 0
	server := newImageServer(t, testPNG(t, 32), 0, &imageCalls)
	defer server.Close()

	generator, _ := newTestImageGenerator(t, server.URL, 1)

	first, err := generator.Generate(context.Background(), "Prompt.", "post")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := generator.Generate(context.Background(), "Prompt.", "post")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if first == second {
		t.Errorf("Expected distinct filenames, both were %s", first)
	}
	for _, path := range []string{first, second} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Expected %s on disk: %v", path, err)
		}
	}
}

func TestImageGenerateMissingTemplate(t *testing.T) {
	imageCalls := 0
	server := newImageServer(t, testPNG(t, 32), 0, &imageCalls)
	defer server.Close()

	generator, _ := newTestImageGenerator(t, server.URL, 1)
	generator.templatePath = filepath.Join(t.TempDir(), "missing.jpg")

	_, err := generator.Generate(context.Background(), "Prompt.", "post")
	if err == nil {
		t.Fatal("Expected error for missing template")
	}
	if !strings.Contains(err.Error(), "template") {
		t.Errorf("Expected template error, got: %v", err)
	}
}

func TestHeadline(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"first sentence only", "Markets rally today. More detail follows.", "Markets rally today"},
		{"no terminator", "Just a fragment", "Just a fragment"},
		{"question mark", "Why now? Because.", "Why now"},
		{"whitespace trimmed", "  Spaced out.  ", "Spaced out"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := headline(test.input); got != test.want {
				t.Errorf("Expected %q, got %q", test.want, got)
			}
		})
	}

	long := strings.Repeat("word ", 40)
	if got := headline(long); len([]rune(got)) > headlineMaxLen {
		t.Errorf("Expected headline capped at %d runes, got %d", headlineMaxLen, len([]rune(got)))
	}
}

func TestOutputFilename(t *testing.T) {
	name := outputFilename("My Cool Post!.png")
	if strings.ContainsAny(name, " !") {
		t.Errorf("Expected sanitized filename, got %q", name)
	}
	if !strings.HasPrefix(name, "My_Cool_Post") {
		t.Errorf("Expected sanitized base preserved, got %q", name)
	}
	if !strings.HasSuffix(name, ".jpg") {
		t.Errorf("Expected .jpg extension, got %q", name)
	}

	if outputFilename("") == outputFilename("") {
		t.Error("Expected distinct filenames for repeated calls")
	}
	if !strings.HasPrefix(outputFilename("???"), "generated_") {
		t.Errorf("Expected fallback base for all-unsafe name, got %q", outputFilename("???"))
	}
}
