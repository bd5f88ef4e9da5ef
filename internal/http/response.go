package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ledger/internal/auth"
	"ledger/internal/core"
	"ledger/internal/log"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// ResponseBuilder assembles an envelope fluently before writing it.
type ResponseBuilder struct {
	statusCode int
	body       APIResponse
}

// Success starts a success envelope with status 200.
func Success(message string) *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		body:       APIResponse{Status: statusSuccess, Message: message},
	}
}

// Failure starts an error envelope with the given status.
func Failure(statusCode int, message string) *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: statusCode,
		body:       APIResponse{Status: statusError, Message: message},
	}
}

// Status overrides the HTTP status code.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// With adds a key to the data object.
func (b *ResponseBuilder) With(key string, value any) *ResponseBuilder {
	if b.body.Data == nil {
		b.body.Data = make(map[string]any)
	}
	b.body.Data[key] = value
	return b
}

// Write sends the envelope as JSON.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// statusFor maps an error kind to its HTTP status. Authorization failures
// answer 404 so callers cannot probe for other users' records.
func statusFor(kind core.ErrorKind) int {
	switch kind {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindNotFound, core.KindAuthorization:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with the status of its kind. Unexpected failures
// expose only the operation summary, never the cause.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := core.KindOf(err)
	message := core.MessageOf(err)
	if kind == core.KindUnexpected {
		var classified *core.Error
		if !errors.As(err, &classified) {
			message = "unexpected failure"
		}
		fields := log.NewFields()
		fields[log.FieldMethod] = r.Method
		fields[log.FieldPath] = r.URL.Path
		fields[log.FieldErrorKind] = kind.String()
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, log.ComponentHTTP, r.Pattern, fields)
		message = "Internal server error: " + message
	}
	Failure(statusFor(kind), message).Write(w)
}

func writeUnauthenticated(w http.ResponseWriter, err error) {
	message := "Authentication required"
	if errors.Is(err, auth.ErrInvalidToken) {
		message = "Invalid or expired token"
	}
	w.Header().Set("WWW-Authenticate", `Bearer realm="ledger"`)
	Failure(http.StatusUnauthorized, message).Write(w)
}

func writeRateLimited(w http.ResponseWriter, _ *http.Request) {
	Failure(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
}
