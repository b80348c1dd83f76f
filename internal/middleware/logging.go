package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"grouporder/internal/metrics"
)

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Logging logs every request and records its duration in the HTTP histogram,
// labelled by route pattern and status.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = r.URL.Path
		}
		metrics.HTTPDuration.WithLabelValues(route, strconv.Itoa(rec.status)).Observe(duration.Seconds())

		logger := slog.Info
		if rec.status >= 500 {
			logger = slog.Error
		}
		logger("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", duration.Milliseconds(),
			"user_id", GetUserID(r.Context()),
		)
	})
}
