package sheets

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// UploadError is an upstream failure while uploading a document or writing a row.
type UploadError struct {
	Op    string
	Cause error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Cause)
}

func (e *UploadError) Unwrap() error {
	return e.Cause
}

// isTransient reports whether a Google API error is worth retrying.
func isTransient(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		// Transport failures carry no API status.
		return true
	}
	return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
}
