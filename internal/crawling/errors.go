package crawling

import "fmt"

// DiscoveryError represents a failure to enumerate profile entries on a listing page.
type DiscoveryError struct {
	Message string
	Cause   error
}

func (e *DiscoveryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("discovery error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("discovery error: %s", e.Message)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Cause
}

// ParseError represents rendered HTML that could not be parsed into a document.
type ParseError struct {
	URL   string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s: %v", e.URL, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
