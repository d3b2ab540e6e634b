package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/historic-weather-service/internal/domain"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testQuery() domain.QueryParameters {
	return domain.QueryParameters{
		Location:     domain.Location{Latitude: 51.5, Longitude: -0.12},
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		YearsBack:    1,
		ProviderName: "OpenMeteo",
	}
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	record := domain.WeatherRecord{
		Date:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TemperatureMin: 1.5,
		TemperatureMax: 7.25,
		Precipitation:  0.4,
		Provider:       "OpenMeteo",
		Location:       &domain.Location{CityName: "London", Country: "United Kingdom"},
	}

	msg, err := serializeToMessage("batch-1", testQuery().Location, record, now)
	require.NoError(t, err)

	assert.Equal(t, "OpenMeteo|51.5000,-0.1200|2024-01-01", string(msg.Key))
	assert.Contains(t, string(msg.Value), `"date":"2024-01-01"`)
	assert.Contains(t, string(msg.Value), `"temperature_max":7.25`)
	assert.Contains(t, string(msg.Value), `"city_name":"London"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "provider", msg.Headers[0].Key)
	assert.Equal(t, []byte("OpenMeteo"), msg.Headers[0].Value)
	assert.Equal(t, "batch_id", msg.Headers[1].Key)
	assert.Equal(t, []byte("batch-1"), msg.Headers[1].Value)
	assert.Equal(t, "published_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestWriter_Publish(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	fake := &fakeWriter{}
	w := &Writer{writer: fake, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	records := []domain.WeatherRecord{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Provider: "OpenMeteo"},
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Provider: "OpenMeteo"},
	}

	require.NoError(t, w.Publish(context.Background(), testQuery(), records))
	require.Len(t, fake.msgs, 2)
	assert.Equal(t, fake.msgs[0].Headers[1].Value, fake.msgs[1].Headers[1].Value, "one batch id per publish")

	require.NoError(t, w.Close())
	assert.True(t, fake.closed)
}

func TestWriter_PublishEmpty(t *testing.T) {
	fake := &fakeWriter{}
	w := &Writer{writer: fake, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, w.Publish(context.Background(), testQuery(), nil))
	assert.Empty(t, fake.msgs)
}

func TestWriter_PublishError(t *testing.T) {
	fake := &fakeWriter{err: errors.New("leader not available")}
	w := &Writer{writer: fake, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := w.Publish(context.Background(), testQuery(), []domain.WeatherRecord{{Provider: "OpenMeteo"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}
