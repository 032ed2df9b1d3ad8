package httpx

import (
	"log/slog"
	"net/http"
	"time"
)

// accessRecorder keeps what the handler sent so the access log can report it.
type accessRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func (r *accessRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *accessRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *accessRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Status is 200 when the handler wrote nothing.
func (r *accessRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

var probePaths = map[string]bool{"/healthz": true, "/readyz": true}

func accessLevel(path string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelWarn
	case probePaths[path]:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// WithAccessLog writes one record per request. Health probes drop to debug
// unless they fail; 5xx responses are raised to warn.
func WithAccessLog(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &accessRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.Status()
			logger.LogAttrs(r.Context(), accessLevel(r.URL.Path, status), "http request",
				slog.String("request_id", RequestIDFromContext(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("query", r.URL.RawQuery),
				slog.Int("status", status),
				slog.Int64("bytes", rec.written),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}
