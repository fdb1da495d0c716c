package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aryan0dhankhar/hobbyapi/internal/domain"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed API request
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorMapper turns service errors into HTTP responses.
type errorMapper struct {
	notFound404 bool
	logger      *slog.Logger
}

// status maps by the kind of the outermost *domain.Error, so a BadRequest
// wrapping a NotFound cause stays a 400.
func (m errorMapper) status(err error) int {
	var derr *domain.Error
	if errors.As(err, &derr) {
		err = derr.Kind
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		if m.notFound404 {
			return http.StatusNotFound
		}
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrBadRequest),
		errors.Is(err, domain.ErrConflict):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// write responds with message and the error detail. Store failures are
// logged and their detail is not exposed.
func (m errorMapper) write(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := m.status(err)
	detail := err.Error()

	var derr *domain.Error
	if errors.As(err, &derr) {
		detail = derr.Message
	}
	if status == http.StatusInternalServerError {
		m.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		detail = "internal error"
	}

	writeJSON(w, status, ErrorResponse{Message: message, Error: detail})
}

// decodeJSON strictly decodes the request body into v. Unknown fields and
// trailing data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Invalid("body", "should not be empty")
		}
		return &domain.Error{Kind: domain.ErrValidation, Message: fmt.Sprintf("invalid request body: %v", err)}
	}
	if dec.More() {
		return domain.Invalid("body", "must contain a single JSON object")
	}
	return nil
}

// parsePage reads the optional limit and offset query parameters.
func parsePage(r *http.Request) (domain.Page, error) {
	var page domain.Page
	q := r.URL.Query()

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"limit", &page.Limit},
		{"offset", &page.Offset},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return domain.Page{}, domain.Invalid(p.name, "must be a number conforming to the specified constraints")
		}
		if n <= 0 {
			return domain.Page{}, domain.Invalid(p.name, "must be a positive number")
		}
		*p.dst = n
	}
	return page, nil
}
