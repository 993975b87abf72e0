package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/ContentForge/internal/domain"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// Error codes carried in the response envelope.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeNotAuthorized    = "NOT_AUTHORIZED"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeConflict         = "CONFLICT"
	CodeInternalError    = "INTERNAL_ERROR"
)

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeValidationFailed, "request body too large", nil)
		} else {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid request body", nil)
		}
		return v, false
	}
	return v, true
}

// urlParam is a short alias for chi.URLParam.
func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

// envelope wraps every response body.
type envelope struct {
	Data  any       `json:"data"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, envelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string, data map[string]any) {
	writeEnvelope(w, status, envelope{Error: &apiError{Code: code, Message: message, Data: data}})
}

// errorFor maps err onto a status and envelope error. Unknown errors are
// logged and hidden behind a generic message.
func errorFor(r *http.Request, err error) (int, *apiError) {
	var detail *domain.DetailError
	if errors.As(err, &detail) {
		status, e := errorFor(r, detail.Err)
		e.Message = detail.Message
		e.Data = detail.Data
		return status, e
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, &apiError{Code: CodeNotFound, Message: clientMessage(err, domain.ErrNotFound)}
	case errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusForbidden, &apiError{Code: CodeNotAuthorized, Message: clientMessage(err, domain.ErrNotAuthorized)}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, &apiError{Code: CodeValidationFailed, Message: clientMessage(err, domain.ErrValidation)}
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, &apiError{Code: CodeConflict, Message: clientMessage(err, domain.ErrConflict)}
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		return http.StatusInternalServerError, &apiError{Code: CodeInternalError, Message: "internal server error"}
	}
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, e := errorFor(r, err)
	writeEnvelope(w, status, envelope{Error: e})
}

// writePartial answers with both the data that was produced and the error
// that stopped the operation halfway.
func writePartial(w http.ResponseWriter, r *http.Request, data any, err error) {
	status, e := errorFor(r, err)
	writeEnvelope(w, status, envelope{Data: data, Error: e})
}

// clientMessage strips the trailing sentinel text that wrapping leaves on the
// error string, e.g. "name is required: validation failed".
func clientMessage(err, sentinel error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}
