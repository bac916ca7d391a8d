package middleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/markethub/review-service/internal/platform/logger"
)

// statusRecorder captures the response status code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogging logs each request with trace correlation and the
// authenticated identity when present.
func RequestLogging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()

			span := trace.SpanFromContext(r.Context())
			traceID := span.SpanContext().TraceID().String()

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration_ms", time.Since(startTime)),
				zap.String("trace_id", traceID),
			}
			if userID, ok := UserID(r.Context()); ok {
				fields = append(fields, zap.String("user_id", userID))
			}
			if role, ok := UserRole(r.Context()); ok {
				fields = append(fields, zap.String("user_role", role))
			}

			if rec.status >= http.StatusInternalServerError {
				log.Error("HTTP request failed", fields...)
			} else {
				log.Info("HTTP request completed", fields...)
			}
		})
	}
}
