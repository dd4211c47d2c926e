package httpadapter

import (
	"errors"
	"net/http"

	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case domain.IsKind(err, domain.ErrInvalidInput),
		domain.IsKind(err, domain.ErrUnsupportedMedia),
		domain.IsKind(err, domain.ErrUnreadableDocument),
		domain.IsKind(err, domain.ErrNoDocument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// publicErrorMessage keeps server-side details out of 500 responses.
func publicErrorMessage(err error, status int) string {
	switch {
	case status < http.StatusInternalServerError:
		return err.Error()
	case domain.IsKind(err, domain.ErrConfiguration):
		return "language model provider is not configured"
	case domain.IsKind(err, domain.ErrTemporary):
		return "language model provider is unavailable"
	default:
		return "internal server error"
	}
}
