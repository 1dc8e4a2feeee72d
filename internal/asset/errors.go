package asset

import "fmt"

// IngestError reports that the source could not be read as a table at all.
// Bad individual rows never produce one.
type IngestError struct {
	Source string
	Err    error
}

func (e *IngestError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("ingest: %v", e.Err)
	}
	return fmt.Sprintf("ingest %s: %v", e.Source, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}
