package table

import "fmt"

// SourceUnavailableError means the configured data file does not exist.
// It is the only fatal data error: nothing can be shown without the file.
type SourceUnavailableError struct {
	Path string
	Err  error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("CSV not found at: %s", e.Path)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }
