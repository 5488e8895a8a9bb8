package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	e "github.com/gartstein/professionals/internal/professional/errors"
	"github.com/gartstein/professionals/internal/professional/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// IngestHandler receives one profile record from the ingest feed.
type IngestHandler func(ctx context.Context, record models.ProfessionalInput) error

// Consumer feeds profile records published on the ingest topic into a handler.
// A record that fails transiently is retried in place; later records are not
// fetched until it is processed, rejected, or ctx ends.
type Consumer struct {
	reader     KafkaReader
	logger     *zap.Logger
	handler    IngestHandler
	done       chan struct{}
	newBackOff func() backoff.BackOff
}

func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	return newConsumer(kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   topic,
		Dialer:  kafka.DefaultDialer,
	}), logger)
}

func newConsumer(reader KafkaReader, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader: reader,
		logger:     logger.Named("kafka_consumer"),
		done:       make(chan struct{}),
		newBackOff: defaultBackOff,
	}
}

// defaultBackOff retries until the context ends.
func defaultBackOff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = 0
	return policy
}

func (c *Consumer) RegisterHandler(fn IngestHandler) {
	c.handler = fn
}

// Start consumes in the background until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	go c.run(ctx)
}

// Done is closed once the consume loop has returned.
func (c *Consumer) Done() <-chan struct{} {
	return c.done
}

func (c *Consumer) run(ctx context.Context) {
	defer close(c.done)
	fetchBackOff := backoff.WithContext(c.newBackOff(), ctx)
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			c.logger.Error("Failed to fetch message", zap.Error(err))
			wait := fetchBackOff.NextBackOff()
			if wait == backoff.Stop {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		fetchBackOff.Reset()

		if err := c.process(ctx, msg); err != nil {
			return
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("Failed to commit message",
				zap.Error(err),
				zap.Int64("offset", msg.Offset),
			)
		}
	}
}

// process handles msg until it is processed or permanently rejected. It only
// returns an error when ctx ends first, in which case msg must not be committed.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	return backoff.Retry(func() error {
		return c.handle(ctx, msg)
	}, backoff.WithContext(c.newBackOff(), ctx))
}

// handle returns nil when msg is done with: processed, or permanently
// rejected. A non-nil error is transient and the message is retried.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	var record models.ProfessionalInput
	if err := json.Unmarshal(msg.Value, &record); err != nil {
		c.logger.Warn("Failed to parse ingest record",
			zap.Error(err),
			zap.ByteString("value", msg.Value),
		)
		return nil
	}

	err := c.handler(ctx, record)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, e.ErrValidation), errors.Is(err, e.ErrInvalidInput):
		c.logger.Warn("Rejected ingest record",
			zap.Error(err),
			zap.Int64("offset", msg.Offset),
		)
		return nil
	default:
		c.logger.Error("Failed to handle ingest record",
			zap.Error(err),
			zap.Int64("offset", msg.Offset),
		)
		return err
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("Failed to close Kafka reader", zap.Error(err))
	}
}
