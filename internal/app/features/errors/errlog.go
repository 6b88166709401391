// internal/app/features/errors/errlog.go
package errors

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger centralizes the logging that accompanies error responses, so
// handlers log failures the same way everywhere.
type ErrorLogger struct {
	Log *zap.Logger
}

func NewErrorLogger(log *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: log}
}

// LogServerError logs an internal failure and sends a 500 page.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	e.Log.Error(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// LogForbidden logs a denied request and renders the forbidden page.
func (e *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, msg string) {
	e.Log.Warn("forbidden",
		zap.String("reason", msg),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	RenderForbidden(w, r, msg, "")
}
