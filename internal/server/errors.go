package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/profile-scraper/internal/bulk"
	"github.com/jonathan/profile-scraper/internal/ingestion"
	"github.com/jonathan/profile-scraper/internal/schemas"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrProfileNotFound indicates no stored profile has the requested key
type ErrProfileNotFound struct {
	Key string
}

func (e *ErrProfileNotFound) Error() string {
	return fmt.Sprintf("profile not found: %s", e.Key)
}

// ErrNotRecognized indicates an uploaded document is readable but not a profile export
type ErrNotRecognized struct {
	Filename string
}

func (e *ErrNotRecognized) Error() string {
	return fmt.Sprintf("%s is not a recognized profile export", e.Filename)
}

var (
	// ErrNoActiveRun is returned when stopping while no traversal is running.
	ErrNoActiveRun = errors.New("no bulk run in progress")
	// ErrBulkUnavailable is returned when the server has no browser page to drive.
	ErrBulkUnavailable = errors.New("bulk traversal is not available on this server")
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		notFoundErr   *ErrProfileNotFound
		notRecognized *ErrNotRecognized
		schemaErr     *schemas.ValidationError
		documentErr   *schemas.DocumentError
		pdfErr        *ingestion.PDFError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &schemaErr), errors.As(err, &documentErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &notRecognized), errors.As(err, &pdfErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, bulk.ErrAlreadyRunning), errors.Is(err, ErrNoActiveRun):
		return http.StatusConflict
	case errors.Is(err, ErrBulkUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
