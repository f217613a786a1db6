package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Epistemic-Technology/studysage/internal/extract"
	"github.com/Epistemic-Technology/studysage/internal/operations"
	"github.com/Epistemic-Technology/studysage/internal/storage"
	"github.com/Epistemic-Technology/studysage/internal/summarize"
)

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, summarize.ErrTextTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, summarize.ErrMissingCredential), errors.Is(err, summarize.ErrEmptyText):
		return http.StatusBadRequest
	case errors.Is(err, operations.ErrNoTextExtracted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, summarize.ErrRemoteService), errors.Is(err, summarize.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("%s: %v", message, err)
	} else {
		h.log.Debug("%s: %v", message, err)
	}
	writeError(w, status, message, err.Error())
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{"error": message}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
