package influxdb

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/historic-weather-service/internal/domain"
)

type fakePointWriter struct {
	points []*write.Point
	err    error
}

func (f *fakePointWriter) WritePoint(_ context.Context, points ...*write.Point) error {
	f.points = append(f.points, points...)
	return f.err
}

func sampleRecord() domain.WeatherRecord {
	return domain.WeatherRecord{
		Date:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TemperatureMin: 1.5,
		TemperatureMax: 7.25,
		Precipitation:  0.4,
		Provider:       "OpenMeteo",
		Location:       &domain.Location{CityName: "London", Country: "United Kingdom"},
	}
}

func TestRecordToPoint(t *testing.T) {
	p := recordToPoint(domain.Location{Latitude: 51.5, Longitude: -0.12}, sampleRecord())

	assert.Equal(t, Measurement, p.Name())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), p.Time())

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, map[string]string{"provider": "OpenMeteo", "city": "London", "country": "United Kingdom"}, tags)

	fields := map[string]any{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, map[string]any{
		"temperature_min": 1.5,
		"temperature_max": 7.25,
		"precipitation":   0.4,
		"latitude":        51.5,
		"longitude":       -0.12,
	}, fields)
}

func TestRecordToPoint_NoLocation(t *testing.T) {
	r := sampleRecord()
	r.Location = nil

	p := recordToPoint(domain.Location{}, r)

	require.Len(t, p.TagList(), 1)
	assert.Equal(t, "provider", p.TagList()[0].Key)
}

func TestWriter_Publish(t *testing.T) {
	fake := &fakePointWriter{}
	w := &Writer{writeAPI: fake, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	q := domain.QueryParameters{ProviderName: "OpenMeteo"}

	require.NoError(t, w.Publish(context.Background(), q, []domain.WeatherRecord{sampleRecord(), sampleRecord()}))
	assert.Len(t, fake.points, 2)

	require.NoError(t, w.Publish(context.Background(), q, nil))
	assert.Len(t, fake.points, 2)

	fake.err = errors.New("unauthorized")
	assert.Error(t, w.Publish(context.Background(), q, []domain.WeatherRecord{sampleRecord()}))

	w.Close()
}
