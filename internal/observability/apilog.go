package observability

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"
)

// maxLoggedBody caps how much of a response body reaches the log.
const maxLoggedBody = 200

// redactedParams are query parameters whose values never reach the log.
var redactedParams = []string{"key", "appid", "api_key", "access_token"}

// APILog records outgoing provider traffic on top of a structured logger.
// Every method is safe to call with a nil receiver.
type APILog struct {
	logger *slog.Logger
}

// NewAPILog wraps logger for API request logging.
func NewAPILog(logger *slog.Logger) *APILog {
	return &APILog{logger: logger}
}

// Request logs an outgoing request.
func (a *APILog) Request(service, rawURL string, params url.Values) {
	if a == nil {
		return
	}
	a.logger.Debug("api request",
		"service", service,
		"url", RedactURL(rawURL),
		"params", redactValues(params).Encode(),
	)
}

// Response logs a completed request with its status and a truncated body.
func (a *APILog) Response(service string, status int, body []byte, d time.Duration) {
	if a == nil {
		return
	}
	level := slog.LevelDebug
	if status < 200 || status > 299 {
		level = slog.LevelWarn
	}
	a.logger.Log(context.Background(), level, "api response",
		"service", service,
		"status", status,
		"status_text", http.StatusText(status),
		"duration_ms", d.Milliseconds(),
		"body", Truncate(string(body), maxLoggedBody),
	)
}

// Error logs a request that failed before a response arrived.
func (a *APILog) Error(service, rawURL string, err error, d time.Duration) {
	if a == nil {
		return
	}
	a.logger.Error("api request failed",
		"service", service,
		"url", RedactURL(rawURL),
		"duration_ms", d.Milliseconds(),
		"error", err,
	)
}

// Truncate shortens s to at most n bytes, appending "..." when cut. The cut
// never splits a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// RedactURL hides credential query parameters in rawURL.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = redactValues(u.Query()).Encode()
	return u.String()
}

func redactValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	for _, k := range redactedParams {
		if out.Has(k) {
			out.Set(k, "REDACTED")
		}
	}
	return out
}
