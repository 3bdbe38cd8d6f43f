package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/subscription-sales/pkg/logger"
)

// maxLoggedBody bounds how much of a request or response body reaches the log.
const maxLoggedBody = 4 << 10

const masked = "[FILTERED]"

// sensitiveKeys match header names and JSON keys by substring, case-insensitive.
var sensitiveKeys = []string{
	"password",
	"token",
	"secret",
	"authorization",
	"auth",
	"key",
	"session",
	"credential",
	"card",
	"cvv",
	"document",
}

func isSensitive(name string) bool {
	name = strings.ToLower(name)
	for _, key := range sensitiveKeys {
		if strings.Contains(name, key) {
			return true
		}
	}
	return false
}

// LoggingMiddleware logs every exchange through the request-scoped logger,
// falling back to base. Sensitive headers and JSON fields are masked. Bodies
// are not logged for paths starting with one of skipBodies.
func LoggingMiddleware(base *slog.Logger, skipBodies ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			log := logger.FromOr(r.Context(), base)
			withBodies := !hasAnyPrefix(r.URL.Path, skipBodies)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"headers", maskHeaders(r.Header),
			}
			if withBodies && r.Body != nil {
				body, _ := io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewReader(body))
				attrs = append(attrs, "body", maskBody(body))
			}
			log.Info("incoming request", attrs...)

			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			switch {
			case rec.status >= http.StatusInternalServerError:
				level = slog.LevelError
			case rec.status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			attrs = []any{
				"status_code", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", rec.size,
			}
			if withBodies {
				attrs = append(attrs, "body", maskBody(rec.body.Bytes()))
			}
			log.Log(r.Context(), level, "response", attrs...)
		})
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// recorder keeps the status, the total size and the first maxLoggedBody bytes of a response.
type recorder struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
	body        bytes.Buffer
}

func (rec *recorder) WriteHeader(code int) {
	if !rec.wroteHeader {
		rec.status = code
		rec.wroteHeader = true
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *recorder) Write(b []byte) (int, error) {
	rec.wroteHeader = true
	if room := maxLoggedBody - rec.body.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		rec.body.Write(b[:room])
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.size += n
	return n, err
}

func maskHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if isSensitive(name) {
			out[name] = masked
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// maskBody renders a body for the log. JSON keeps its shape with sensitive
// values replaced; anything else is dropped when it mentions a sensitive key.
func maskBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var data any
	if err := json.Unmarshal(body, &data); err == nil {
		out, err := json.Marshal(maskValue(data))
		if err != nil {
			return "[ERROR - failed to marshal filtered body]"
		}
		return string(out)
	}

	for _, key := range sensitiveKeys {
		if bytes.Contains(bytes.ToLower(body), []byte(key)) {
			return "[FILTERED - contains sensitive data]"
		}
	}
	if len(body) > maxLoggedBody {
		return string(body[:maxLoggedBody]) + "...(truncated)"
	}
	return string(body)
}

func maskValue(data any) any {
	switch v := data.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			if isSensitive(key) {
				out[key] = masked
				continue
			}
			out[key] = maskValue(value)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = maskValue(item)
		}
		return out
	default:
		return v
	}
}
