package main

import (
	"context"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

type ctxKey int

const requestIDKey ctxKey = iota

// requestID returns the id loggingMiddleware attached to ctx, if any.
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// loggingMiddleware tags each request with an id (reusing the caller's when
// present) and logs it once it completes.
func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.New().String()
			}
			w.Header().Set(requestIDHeader, id)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))

			m := httpsnoop.CaptureMetrics(next, w, r)

			fields := []zap.Field{
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", m.Code),
				zap.Int64("bytes", m.Written),
				zap.Duration("duration", m.Duration),
			}
			if m.Code >= http.StatusInternalServerError {
				logger.Error("Request failed", fields...)
				return
			}
			logger.Info("Request handled", fields...)
		})
	}
}

// zapPrintln adapts a zap logger to the handlers.RecoveryHandlerLogger interface.
type zapPrintln struct{ logger *zap.Logger }

func (z zapPrintln) Println(v ...interface{}) {
	z.logger.Sugar().Error(v...)
}

// withMiddleware wraps h with panic recovery, CORS and request logging.
func withMiddleware(h http.Handler, logger *zap.Logger, allowedOrigins []string) http.Handler {
	h = loggingMiddleware(logger)(h)
	h = handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", requestIDHeader}),
		handlers.ExposedHeaders([]string{requestIDHeader}),
	)(h)
	return handlers.RecoveryHandler(handlers.RecoveryLogger(zapPrintln{logger}))(h)
}
