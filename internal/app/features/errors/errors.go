// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// errorBody is the JSON error envelope every handler returns on failure.
type errorBody struct {
	Error string `json:"error"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RenderBadRequest writes a 400 with a user-facing message.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	JSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

// RenderNotFound writes a 404 with a user-facing message.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg string) {
	JSON(w, http.StatusNotFound, errorBody{Error: msg})
}

// RenderForbidden writes a 403 with a user-facing message.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg string) {
	JSON(w, http.StatusForbidden, errorBody{Error: msg})
}

// RenderConflict writes a 409, used when an optimistic write lost a race.
func RenderConflict(w http.ResponseWriter, r *http.Request, msg string) {
	JSON(w, http.StatusConflict, errorBody{Error: msg})
}

// ErrorLogger pairs the zap logger with the HTTP error response so
// handlers can report a failure in one call: the real error goes to the
// log, the sanitized message goes to the client.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger around the app logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// LogServerError logs err under logMsg and writes a 500 with userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	e.log.Error(logMsg,
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method))
	JSON(w, http.StatusInternalServerError, errorBody{Error: userMsg})
}

// LogBadRequest logs err under logMsg and writes a 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	e.log.Warn(logMsg,
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method))
	JSON(w, http.StatusBadRequest, errorBody{Error: userMsg})
}

// LogConflict logs err under logMsg and writes a 409 with userMsg.
func (e *ErrorLogger) LogConflict(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	e.log.Warn(logMsg,
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method))
	JSON(w, http.StatusConflict, errorBody{Error: userMsg})
}
