package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/tgrieger/inkwell/internal/domain"
)

// Handler processes one decoded event
type Handler func(ctx context.Context, event domain.Event) error

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Consumer reads events and hands them to the handler with bounded
// retries. A message that keeps failing is routed to the dead-letter
// topic and committed, so one poison message never wedges the group.
type Consumer struct {
	reader      *kafka.Reader
	deadLetters messageWriter
	handler     Handler
	maxAttempts int
	baseBackoff time.Duration
	log         *logrus.Entry
}

func NewConsumer(brokers []string, topic, groupID, deadLetterTopic string, handler Handler) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        brokers,
			GroupID:        groupID,
			Topic:          topic,
			MinBytes:       10e3,
			MaxBytes:       10e6,
			MaxWait:        500 * time.Millisecond,
			StartOffset:    kafka.LastOffset,
			CommitInterval: 0, // commit explicitly after handling
		}),
		deadLetters: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        deadLetterTopic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
		handler:     handler,
		maxAttempts: 3,
		baseBackoff: time.Second,
		log:         logrus.WithField("component", "queue.consumer"),
	}
}

// Run consumes until the context is canceled
func (c *Consumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || err == io.EOF {
				return
			}
			c.log.WithError(err).Error("fetch message")
			time.Sleep(time.Second)
			continue
		}

		if err := c.process(ctx, msg); err != nil {
			// Dead-letter write failed; leave uncommitted for redelivery
			c.log.WithError(err).Error("dead-letter message")
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.WithError(err).Error("commit message")
		}
	}
}

// process attempts the handler up to maxAttempts times with exponential
// backoff, then routes the message to the dead-letter topic.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	var event domain.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.log.WithError(err).Warn("undecodable event, dead-lettering")
		return c.deadLetter(ctx, msg)
	}

	backoff := c.baseBackoff
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err := c.handler(ctx, event)
		if err == nil {
			return nil
		}

		c.log.WithError(err).WithFields(logrus.Fields{
			"event":   event.Type,
			"attempt": attempt,
		}).Warn("event handler failed")

		if attempt < c.maxAttempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}
	}

	return c.deadLetter(ctx, msg)
}

func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message) error {
	return c.deadLetters.WriteMessages(ctx, kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Time:  time.Now(),
	})
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
