package content

import "fmt"

// GenerationError represents a text or image provider failure.
type GenerationError struct {
	Stage    string // "text" or "image"
	Attempts int    // number of attempts made, 0 when not retried
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("%s generation failed after %d attempts: %v", e.Stage, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s generation failed: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
