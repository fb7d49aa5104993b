package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/Devanshi-Padia/media-automation/internal/platform"
)

const (
	headlineFontSize = 48
	headlineMargin   = 40
)

// Decode reads an image (PNG or JPEG) from raw bytes.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// Open reads and decodes an image file.
func Open(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image file: %w", err)
	}
	return Decode(data)
}

// Resize scales an image to the given dimensions.
func Resize(img image.Image, width, height int) image.Image {
	if b := img.Bounds(); b.Dx() == width && b.Dy() == height {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return dst
}

// Composite draws overlay onto base at the given offset and returns the result.
func Composite(base, overlay image.Image, at image.Point) image.Image {
	dst := image.NewRGBA(base.Bounds())
	draw.Draw(dst, dst.Bounds(), base, base.Bounds().Min, draw.Src)
	target := image.Rectangle{Min: at, Max: at.Add(overlay.Bounds().Size())}
	draw.Draw(dst, target, overlay, overlay.Bounds().Min, draw.Over)
	return dst
}

// DrawHeadline renders word-wrapped white headline text near the top of the image.
func DrawHeadline(img image.Image, text string) (image.Image, error) {
	if text == "" {
		return img, nil
	}

	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    headlineFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("creating font face: %w", err)
	}
	defer face.Close()

	dst := image.NewRGBA(img.Bounds())
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
	}

	maxWidth := dst.Bounds().Dx() - 2*headlineMargin
	lines := wrapText(drawer, text, maxWidth)
	lineHeight := face.Metrics().Height.Ceil()

	y := dst.Bounds().Min.Y + headlineMargin + face.Metrics().Ascent.Ceil()
	for _, line := range lines {
		drawer.Dot = fixed.P(dst.Bounds().Min.X+headlineMargin, y)
		drawer.DrawString(line)
		y += lineHeight
	}

	return dst, nil
}

// wrapText splits text into lines that fit within maxWidth pixels.
func wrapText(drawer *font.Drawer, text string, maxWidth int) []string {
	words := strings.Fields(text)
	var lines []string
	var line string

	for _, word := range words {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if drawer.MeasureString(candidate).Ceil() > maxWidth && line != "" {
			lines = append(lines, line)
			line = word
		} else {
			line = candidate
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// EncodeJPEG writes an image as JPEG at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteJPEG encodes and writes an image file at the given quality.
func WriteJPEG(path string, img image.Image, quality int) error {
	data, err := EncodeJPEG(img, quality)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing image file: %w", err)
	}
	return nil
}

// FitUnder re-encodes the image at path to the platform's dimensions and size
// cap, stepping quality down until it fits. The result is written next to the
// source file and its path returned; the source file is left untouched.
func FitUnder(path string, p platform.Platform) (string, error) {
	img, err := Open(path)
	if err != nil {
		return "", err
	}

	width, height := p.ImageSize()
	resized := Resize(img, width, height)

	ext := filepath.Ext(path)
	outPath := strings.TrimSuffix(path, ext) + "_" + p.String() + ".jpg"

	maxBytes := p.MaxImageBytes()
	for _, quality := range []int{85, 70, 55} {
		data, err := EncodeJPEG(resized, quality)
		if err != nil {
			return "", err
		}
		if maxBytes == 0 || int64(len(data)) <= maxBytes {
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return "", fmt.Errorf("writing image file: %w", err)
			}
			return outPath, nil
		}
	}

	return "", fmt.Errorf("image exceeds %d byte limit for %s", maxBytes, p)
}
