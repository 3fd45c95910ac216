package feed

import "fmt"

// GenerationError reports that a feed could not be produced, typically
// because the post source failed. Callers show it as an opaque 500.
type GenerationError struct {
	Format string
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating %s feed: %v", e.Format, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
