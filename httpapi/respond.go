package httpapi

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/haslett/library-circulation-go/library"
	"github.com/haslett/library-circulation-go/library/auth"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type errorPayload struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if encodeErr := json.NewEncoder(w).Encode(payload); encodeErr != nil {
		s.logger.Warn("failed to encode response", "error", encodeErr.Error())
	}
}

// writeError maps the typed error taxonomy onto status codes. Every named
// failure kind gets its own code; only genuinely unexpected errors collapse
// into a 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, library.ErrBookNotFound),
		errors.Is(err, library.ErrMemberNotFound),
		errors.Is(err, library.ErrLibrarianNotFound),
		errors.Is(err, library.ErrBorrowingNotFound),
		errors.Is(err, library.ErrAuthorNotFound),
		errors.Is(err, library.ErrPublisherNotFound),
		errors.Is(err, library.ErrGenreNotFound):
		status = http.StatusNotFound

	case errors.Is(err, library.ErrOutOfStock),
		errors.Is(err, library.ErrAlreadyReturned),
		errors.Is(err, library.ErrConcurrencyConflict),
		errors.Is(err, library.ErrLinkedRecords),
		errors.Is(err, library.ErrAlreadyExists):
		status = http.StatusConflict

	case errors.Is(err, library.ErrInvalidQuantity):
		status = http.StatusBadRequest

	case errors.Is(err, library.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable

	case errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error" // do not leak internals to clients
	}

	s.writeJSON(w, status, errorPayload{Error: message})
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if decodeErr := json.NewDecoder(r.Body).Decode(dest); decodeErr != nil {
		s.writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid request body"})
		return false
	}

	return true
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	parsed, parseErr := uuid.Parse(r.PathValue("id"))
	if parseErr != nil {
		s.writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid identifier"})
		return uuid.Nil, false
	}

	return parsed, true
}
