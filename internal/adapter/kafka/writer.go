// Package kafka publishes weather records to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/historic-weather-service/internal/config"
	"github.com/couchcryptid/historic-weather-service/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces one message per weather record.
// It implements domain.RecordSink.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured records topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// recordMessage is the JSON value of a published record.
type recordMessage struct {
	BatchID        string           `json:"batch_id"`
	Provider       string           `json:"provider"`
	Date           string           `json:"date"`
	TemperatureMin float64          `json:"temperature_min"`
	TemperatureMax float64          `json:"temperature_max"`
	Precipitation  float64          `json:"precipitation"`
	Latitude       float64          `json:"latitude"`
	Longitude      float64          `json:"longitude"`
	Location       *domain.Location `json:"location,omitempty"`
}

// Publish serializes records and writes them in a single WriteMessages call.
// Messages are keyed by provider, coordinates and date so re-running a query
// lands each day on the same partition.
func (w *Writer) Publish(ctx context.Context, q domain.QueryParameters, records []domain.WeatherRecord) error {
	if len(records) == 0 {
		return nil
	}
	batchID := uuid.NewString()
	publishedAt := domain.Now().UTC()

	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(batchID, q.Location, records[i], publishedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d records: %w", len(msgs), err)
	}
	w.logger.Debug("records published", "batch_id", batchID, "provider", q.ProviderName, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one record into a Kafka message.
func serializeToMessage(batchID string, point domain.Location, r domain.WeatherRecord, publishedAt time.Time) (kafkago.Message, error) {
	date := r.Date.Format(domain.DateLayout)
	data, err := json.Marshal(recordMessage{
		BatchID:        batchID,
		Provider:       r.Provider,
		Date:           date,
		TemperatureMin: r.TemperatureMin,
		TemperatureMax: r.TemperatureMax,
		Precipitation:  r.Precipitation,
		Latitude:       point.Latitude,
		Longitude:      point.Longitude,
		Location:       r.Location,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize weather record: %w", err)
	}
	key := fmt.Sprintf("%s|%.4f,%.4f|%s", r.Provider, point.Latitude, point.Longitude, date)
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "provider", Value: []byte(r.Provider)},
			{Key: "batch_id", Value: []byte(batchID)},
			{Key: "published_at", Value: []byte(publishedAt.Format(time.RFC3339))},
		},
	}, nil
}
