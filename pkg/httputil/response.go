package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
	"github.com/kitchencart/ecommerce/pkg/logger"
	"github.com/kitchencart/ecommerce/pkg/validator"
)

// Postgres SQLSTATE codes that map to client errors.
const (
	pgUniqueViolation        = "23505"
	pgInvalidTextRepresented = "22P02"
)

// Response is the JSON envelope returned by every endpoint.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Errors  any    `json:"errors"`
}

// ErrorDetail is the errors payload of a failed response.
type ErrorDetail struct {
	Code      string            `json:"code"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status code. Encoding failures
// cannot be reported once headers are sent.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a successful envelope.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{Success: true, Message: message, Data: data})
}

// WriteFailure writes a failed envelope with the given code and optional field details.
func WriteFailure(w http.ResponseWriter, r *http.Request, status int, code, message string, fields map[string]string) {
	WriteJSON(w, status, Response{
		Success: false,
		Message: message,
		Errors: ErrorDetail{
			Code:      code,
			Fields:    fields,
			RequestID: logger.CorrelationIDFromContext(r.Context()),
		},
	})
}

// WriteError maps err to a client-facing envelope. Known shapes (AppError,
// validation failures, malformed identifiers, unique violations) keep their
// meaning; everything else becomes an opaque 500 whose details are logged
// with a stack trace and never returned. The request-scoped logger is
// preferred over fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContextOr(r.Context(), fallback)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			l.ErrorContext(r.Context(), "request failed",
				slog.String("code", appErr.Code),
				slog.String("error", err.Error()),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
		}
		WriteFailure(w, r, appErr.Status, appErr.Code, appErr.Message, appErr.Fields)
		return
	}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteFailure(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "request validation failed", valErr.Fields())
		return
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			WriteFailure(w, r, http.StatusBadRequest, "DUPLICATE_VALUE", "Duplicate field value entered", nil)
			return
		case pgInvalidTextRepresented:
			WriteFailure(w, r, http.StatusNotFound, "NOT_FOUND", "Resource not found. Invalid: id", nil)
			return
		}
	}

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		WriteFailure(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
		return
	case errors.Is(err, apperrors.ErrAlreadyExists):
		WriteFailure(w, r, http.StatusConflict, "ALREADY_EXISTS", "resource already exists", nil)
		return
	case errors.Is(err, apperrors.ErrInvalidInput):
		WriteFailure(w, r, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
		return
	}

	l.ErrorContext(r.Context(), "internal error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)
	WriteFailure(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred", nil)
}

// WriteDecodeError reports a request body that could not be decoded or
// failed validation.
func WriteDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteFailure(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "request validation failed", valErr.Fields())
		return
	}
	WriteFailure(w, r, http.StatusBadRequest, "INVALID_INPUT", "invalid request body", nil)
}

// ParseUUID validates a path identifier. Malformed identifiers are reported
// as a missing resource, naming the offending parameter, and the caller
// should return early when ok is false.
func ParseUUID(w http.ResponseWriter, r *http.Request, name, value string) (uuid.UUID, bool) {
	id, err := uuid.Parse(value)
	if err != nil {
		WriteFailure(w, r, http.StatusNotFound, "NOT_FOUND", "Resource not found. Invalid: "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}
