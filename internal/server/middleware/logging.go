package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const actorKey contextKey = "log_actor"

// actor is filled in by Authenticate so the request log can attribute
// authenticated calls to a marketplace account and role.
type actor struct {
	email string
	role  string
}

// setActor records the authenticated account on the log entry for this
// request. No-op when the request did not pass through Logger.
func setActor(ctx context.Context, email, role string) {
	if a, ok := ctx.Value(actorKey).(*actor); ok {
		a.email = email
		a.role = role
	}
}

// Logger returns an HTTP middleware that writes one structured log line
// per request: method, path, status, size, duration, request ID and
// remote address, plus the acting account and role once a session token
// has been validated further down the chain.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			who := &actor{}
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(ww, r.WithContext(
				context.WithValue(r.Context(), actorKey, who)))

			level := slog.LevelInfo
			switch {
			case ww.status >= 500:
				level = slog.LevelError
			case ww.status >= 400:
				level = slog.LevelWarn
			}

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.status,
				"duration_ms", float64(time.Since(start).Microseconds()) / 1000.0,
				"bytes", ww.bytes,
				"request_id", GetRequestID(r.Context()),
				"remote_addr", r.RemoteAddr,
			}
			if who.email != "" {
				attrs = append(attrs, "actor", who.email, "role", who.role)
			}
			logger.Log(r.Context(), level, "request", attrs...)
		})
	}
}

// responseWriter captures the status code and byte count for the
// request log.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap exposes the underlying ResponseWriter so http.Flusher and
// similar assertions keep working through the chain.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
