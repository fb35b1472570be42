// Package ingestion turns exported profile documents into linearized text and profile records.
package ingestion

import "fmt"

// PDFError represents a document that could not be read as a PDF. It is distinct from a
// readable document that is not a recognized profile, which yields a nil profile.
type PDFError struct {
	Path    string
	Message string
	Cause   error
}

func (e *PDFError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("pdf error for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("pdf error for %s: %s", e.Path, e.Message)
}

func (e *PDFError) Unwrap() error {
	return e.Cause
}
