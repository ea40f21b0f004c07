package geocoder

import (
	"time"

	"github.com/suspsaude/susp-backend/internal/errors"
)

const (
	RequestTimeout     = 10 * time.Second
	maxBodyPreviewSize = 200 // Maximum characters to show in error logs
)

// newGeocoderError creates a standardized geocoder error with common fields.
func newGeocoderError(err error, category errors.ErrorCategory, operation, provider string) error {
	return errors.New(err).
		Component("geocoder").
		Category(category).
		Context("operation", operation).
		Context("provider", provider).
		Build()
}

// newCEPNotFoundError marks a CEP the provider does not know about.
func newCEPNotFoundError(cep, provider string) error {
	return errors.Newf("CEP not found: %s", cep).
		Component("geocoder").
		Category(errors.CategoryNotFound).
		Context("cep", cep).
		Context("provider", provider).
		Build()
}

// truncateBodyPreview limits response bodies quoted in logs.
func truncateBodyPreview(body string) string {
	if len(body) > maxBodyPreviewSize {
		return body[:maxBodyPreviewSize] + "..."
	}
	return body
}
