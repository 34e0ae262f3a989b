package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketbridge/internal/config"
	"marketbridge/internal/logger"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Worker consumes import requests from Kafka and runs them one at a time.
type Worker struct {
	logger *logger.Logger
	runner ItemRunner
	reader messageReader
	writer messageWriter
	pause  time.Duration
}

func New(cfg *config.Config, runner ItemRunner, logger *logger.Logger) *Worker {
	brokers := strings.Split(cfg.KafkaBrokers, ",")
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  cfg.KafkaConsumerGroup,
		Topic:    cfg.KafkaRequestTopic,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.KafkaResultTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}

	return &Worker{
		logger: logger,
		runner: runner,
		reader: reader,
		writer: writer,
		pause:  cfg.BatchPause,
	}
}

// ImportRequest is the message body on the request topic.
type ImportRequest struct {
	ItemID string `json:"item_id"`
	Brand  string `json:"brand,omitempty"`
}

func ParseRequest(value []byte) (ImportRequest, error) {
	var req ImportRequest
	if err := json.Unmarshal(value, &req); err != nil {
		return req, fmt.Errorf("failed to parse import request: %w", err)
	}
	req.ItemID = strings.TrimSpace(req.ItemID)
	if req.ItemID == "" {
		return req, errors.New("import request has no item_id")
	}
	return req, nil
}

// Start blocks until ctx is cancelled. Each message is committed only after
// its result has been published.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Worker started, listening for import requests...")

	for {
		message, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("Failed to read message: %v", err)
			continue
		}

		w.logger.Debug("Received message: %s", string(message.Value))

		processed := w.handle(ctx, message)

		if err := w.reader.CommitMessages(ctx, message); err != nil {
			w.logger.Error("Failed to commit offset %d: %v", message.Offset, err)
		}

		if processed && w.pause > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.pause):
			}
		}
	}
}

func (w *Worker) handle(ctx context.Context, message kafka.Message) bool {
	req, err := ParseRequest(message.Value)
	if err != nil {
		w.logger.Error("Dropping message at offset %d: %v", message.Offset, err)
		return false
	}

	res := w.runner.RunForBrand(ctx, req.Brand, req.ItemID)

	value, err := json.Marshal(res)
	if err != nil {
		w.logger.Error("Failed to marshal result for %s: %v", req.ItemID, err)
		return true
	}
	if err := w.writer.WriteMessages(ctx, kafka.Message{Key: []byte(req.ItemID), Value: value}); err != nil {
		w.logger.Error("Failed to publish result for %s: %v", req.ItemID, err)
	}
	return true
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	if err := w.reader.Close(); err != nil {
		w.logger.Warn("Failed to close reader: %v", err)
	}
	if err := w.writer.Close(); err != nil {
		w.logger.Warn("Failed to close writer: %v", err)
	}
}
