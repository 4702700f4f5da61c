package pubsub

//go:generate mockgen -source=producer.go -destination=mock_writer_test.go -package=pubsub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/nikmy/roombook/internal/ledger"
	"github.com/nikmy/roombook/pkg/errors"
	"github.com/nikmy/roombook/pkg/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaProducer(cfg Config, log logger.Logger) *kafkaProducer {
	p := &kafkaProducer{logger: log.With("kafka_producer")}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 50 * time.Millisecond
	}

	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: batchTimeout,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				p.logger.Error(errors.WrapFailf(err, "deliver %d event(s)", len(msgs)))
			}
		},
	}

	return p
}

// kafkaProducer publishes ledger events keyed by resource, so events of
// one resource stay ordered within a partition.
type kafkaProducer struct {
	writer messageWriter
	logger logger.Logger
}

func encodeEvent(e ledger.Event) (kafka.Message, error) {
	bytes, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, errors.WrapFail(err, "marshal event to json")
	}

	return kafka.Message{
		Key:   []byte(e.Booking.Resource),
		Value: bytes,
		Time:  e.At,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(e.Kind)},
		},
	}, nil
}

func (p *kafkaProducer) Publish(e ledger.Event) {
	msg, err := encodeEvent(e)
	if err != nil {
		p.logger.Error(err)
		return
	}

	// async writer returns immediately, delivery errors go to Completion
	err = p.writer.WriteMessages(context.Background(), msg)
	if err != nil {
		p.logger.Error(errors.WrapFailf(err, "publish %s event for %s", e.Kind, e.Booking.ID))
	}
}

func (p *kafkaProducer) Close() error {
	return errors.WrapFail(p.writer.Close(), "close kafka writer")
}
