package observability

import (
	"bytes"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestRedactURL(t *testing.T) {
	got := RedactURL("https://api.weatherapi.com/v1/history.json?key=secret&q=10,10&dt=2023-01-01")
	assert.NotContains(t, got, "secret")
	assert.Contains(t, got, "key=REDACTED")
	assert.Contains(t, got, "dt=2023-01-01")

	got = RedactURL("https://api.openweathermap.org/data/3.0/onecall/timemachine?appid=abc&lat=1")
	assert.NotContains(t, got, "abc")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 200))
	long := strings.Repeat("x", 250)
	got := Truncate(long, 200)
	assert.Len(t, got, 203)
	assert.True(t, strings.HasSuffix(got, "..."))

	// "ü" is two bytes; byte 4 is inside the second one.
	got = Truncate("Müünchen", 4)
	assert.Equal(t, "Mü...", got)
	assert.True(t, utf8.ValidString(got))
}

func TestAPILog_Response(t *testing.T) {
	var buf bytes.Buffer
	log := NewAPILog(bufferLogger(&buf))

	log.Response("WeatherAPI", 401, []byte(strings.Repeat("y", 300)), 120*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "status=401")
	assert.Contains(t, out, `status_text=Unauthorized`)
	assert.NotContains(t, out, strings.Repeat("y", 201))
}

func TestAPILog_RequestRedactsParams(t *testing.T) {
	var buf bytes.Buffer
	log := NewAPILog(bufferLogger(&buf))

	log.Request("OpenWeatherMap", "https://example.test/onecall", url.Values{"appid": {"secret"}, "lat": {"1.5"}})
	log.Error("OpenWeatherMap", "https://example.test/onecall?appid=secret", errors.New("timeout"), time.Second)

	out := buf.String()
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "api request failed")
	assert.Contains(t, out, "timeout")
}

func TestAPILog_NilReceiver(t *testing.T) {
	var log *APILog
	assert.NotPanics(t, func() {
		log.Request("svc", "http://x", nil)
		log.Response("svc", 200, nil, 0)
		log.Error("svc", "http://x", errors.New("boom"), 0)
	})
}
