package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/nikmy/roombook/internal/ledger"
	"github.com/nikmy/roombook/pkg/errors"
	"github.com/nikmy/roombook/pkg/logger"
)

const (
	minFetchBackoff = 100 * time.Millisecond
	maxFetchBackoff = 5 * time.Second
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaConsumer(cfg Config, log logger.Logger) *kafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.Group,
		StartOffset:    kafka.LastOffset,
		QueueCapacity:  1024,
		IsolationLevel: kafka.ReadCommitted,
		MaxAttempts:    3,
	})

	return &kafkaConsumer{
		reader:     reader,
		logger:     log.With("kafka_consumer"),
		minBackoff: minFetchBackoff,
	}
}

type kafkaConsumer struct {
	reader     messageReader
	logger     logger.Logger
	minBackoff time.Duration
}

func decodeEvent(msg kafka.Message) (ledger.Event, error) {
	var e ledger.Event
	err := json.Unmarshal(msg.Value, &e)
	if err != nil {
		return ledger.Event{}, errors.WrapFailf(err, "decode event at offset %d", msg.Offset)
	}
	return e, nil
}

// HandleEvents feeds every event to consume until ctx is done. Messages
// that cannot be decoded are logged and committed.
func (c *kafkaConsumer) HandleEvents(ctx context.Context, consume func(ledger.Event)) {
	go c.run(ctx, consume)
}

func (c *kafkaConsumer) run(ctx context.Context, consume func(ledger.Event)) {
	var delay time.Duration
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			delay = nextBackoff(delay, c.minBackoff)
			c.logger.Error(errors.WrapFailf(err, "fetch message, retry in %s", delay))
			if !sleep(ctx, delay) {
				return
			}
			continue
		}
		delay = 0

		e, err := decodeEvent(msg)
		if err != nil {
			c.logger.Warn(err)
		} else {
			consume(e)
		}

		err = c.reader.CommitMessages(ctx, msg)
		if err != nil {
			c.logger.Error(errors.WrapFail(err, "commit message"))
		}
	}
}

// nextBackoff doubles prev, starting from floor and capped by maxFetchBackoff.
func nextBackoff(prev, floor time.Duration) time.Duration {
	if prev < floor {
		return floor
	}
	return min(2*prev, maxFetchBackoff)
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *kafkaConsumer) Close() error {
	return errors.WrapFail(c.reader.Close(), "close kafka reader")
}
