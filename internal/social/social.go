package social

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/Devanshi-Padia/media-automation/internal/imaging"
	"github.com/Devanshi-Padia/media-automation/internal/metrics"
	"github.com/Devanshi-Padia/media-automation/internal/platform"
)

// Poster publishes a single post to one platform.
type Poster interface {
	// Platform returns the destination this poster publishes to.
	Platform() platform.Platform

	// Post publishes the text and optional image. imagePath may be empty for
	// platforms that accept text-only posts.
	Post(ctx context.Context, text, imagePath string) error
}

// PlatformError represents a posting failure on one platform.
type PlatformError struct {
	Platform platform.Platform
	Err      error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("posting to %s: %v", e.Platform, e.Err)
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

// PostResult records per-platform outcomes of one distribution call.
type PostResult struct {
	Successful []platform.Platform          `json:"successful_platforms"`
	Failed     map[platform.Platform]string `json:"failed_platforms"`
}

// Distributor fans a post out to the requested platforms. Each platform
// attempt is isolated: a failure on one never aborts the others.
type Distributor struct {
	posters map[platform.Platform]Poster
	logger  zerolog.Logger
}

// NewDistributor creates a distributor over the given posters.
func NewDistributor(logger zerolog.Logger, posters ...Poster) *Distributor {
	byPlatform := make(map[platform.Platform]Poster, len(posters))
	for _, p := range posters {
		byPlatform[p.Platform()] = p
	}
	return &Distributor{posters: byPlatform, logger: logger}
}

// Post publishes the platform-specific texts and image to every requested
// platform concurrently and reports the per-platform outcomes. There is no
// cross-platform rollback: partial success is a normal result.
func (d *Distributor) Post(ctx context.Context, texts map[platform.Platform]string, imagePath string, platforms []platform.Platform) PostResult {
	result := PostResult{
		Successful: []platform.Platform{},
		Failed:     make(map[platform.Platform]string),
	}

	if imagePath != "" {
		if _, err := os.Stat(imagePath); err != nil {
			for _, p := range platforms {
				result.Failed[p] = (&PlatformError{Platform: p, Err: fmt.Errorf("image not found at %s", imagePath)}).Error()
			}
			return result
		}
	}

	type outcome struct {
		platform platform.Platform
		err      error
	}
	outcomes := make(chan outcome, len(platforms))

	for _, p := range platforms {
		go func(p platform.Platform) {
			outcomes <- outcome{platform: p, err: d.postOne(ctx, p, texts, imagePath)}
		}(p)
	}

	for range platforms {
		o := <-outcomes
		metrics.ObservePlatformPost(o.platform.String(), o.err)
		if o.err != nil {
			d.logger.Error().Err(o.err).Str("platform", o.platform.String()).Msg("platform post failed")
			result.Failed[o.platform] = o.err.Error()
		} else {
			d.logger.Info().Str("platform", o.platform.String()).Msg("platform post succeeded")
			result.Successful = append(result.Successful, o.platform)
		}
	}

	return result
}

// postOne prepares the per-platform image copy and publishes to one platform.
func (d *Distributor) postOne(ctx context.Context, p platform.Platform, texts map[platform.Platform]string, imagePath string) error {
	poster, ok := d.posters[p]
	if !ok {
		return &PlatformError{Platform: p, Err: fmt.Errorf("credentials not configured")}
	}

	text, ok := texts[p]
	if !ok {
		return &PlatformError{Platform: p, Err: fmt.Errorf("no text provided for platform")}
	}

	platformImage := imagePath
	if imagePath != "" {
		fitted, err := imaging.FitUnder(imagePath, p)
		if err != nil {
			return &PlatformError{Platform: p, Err: err}
		}
		platformImage = fitted
	}

	if err := poster.Post(ctx, text, platformImage); err != nil {
		if perr, ok := err.(*PlatformError); ok {
			return perr
		}
		return &PlatformError{Platform: p, Err: err}
	}
	return nil
}
