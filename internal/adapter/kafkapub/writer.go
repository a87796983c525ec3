// Package kafkapub publishes completed simulation results to a Kafka topic
// for downstream analytics consumers.
package kafkapub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/deimos-sim/impact-engine/internal/config"
	"github.com/deimos-sim/impact-engine/internal/domain"
)

// Writer produces simulation results to the configured results topic.
// It implements simulation.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the results topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaResultsTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes one simulation result.
func (w *Writer) Publish(ctx context.Context, result domain.SimulationResult) error {
	msg, err := serializeToMessage(result)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a SimulationResult into a Kafka message keyed
// by the quantized impact coordinate.
func serializeToMessage(result domain.SimulationResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize simulation result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(fmt.Sprintf("%.4f,%.4f", result.Site.Lat, result.Site.Lon)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "terrain", Value: []byte(result.Site.Terrain)},
			{Key: "generated_at", Value: []byte(result.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
