package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgrieger/inkwell/internal/domain"
)

type captureWriter struct {
	messages []kafka.Message
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.messages = append(w.messages, msgs...)
	return nil
}

func newTestConsumer(handler Handler, deadLetters messageWriter) *Consumer {
	return &Consumer{
		deadLetters: deadLetters,
		handler:     handler,
		maxAttempts: 3,
		baseBackoff: time.Millisecond,
		log:         logrus.WithField("component", "queue.consumer"),
	}
}

func eventMessage(t *testing.T) kafka.Message {
	t.Helper()

	event := domain.NewEvent(domain.EventUserRegistered, uuid.New())
	value, err := json.Marshal(event)
	require.NoError(t, err)

	return kafka.Message{Key: []byte(event.UserID.String()), Value: value}
}

func TestConsumer_ProcessSucceedsFirstAttempt(t *testing.T) {
	dlq := &captureWriter{}
	attempts := 0

	consumer := newTestConsumer(func(context.Context, domain.Event) error {
		attempts++
		return nil
	}, dlq)

	require.NoError(t, consumer.process(context.Background(), eventMessage(t)))
	assert.Equal(t, 1, attempts)
	assert.Empty(t, dlq.messages)
}

func TestConsumer_ProcessRetriesThenSucceeds(t *testing.T) {
	dlq := &captureWriter{}
	attempts := 0

	consumer := newTestConsumer(func(context.Context, domain.Event) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient failure")
		}
		return nil
	}, dlq)

	require.NoError(t, consumer.process(context.Background(), eventMessage(t)))
	assert.Equal(t, 3, attempts)
	assert.Empty(t, dlq.messages)
}

func TestConsumer_ExhaustedRetriesDeadLetter(t *testing.T) {
	dlq := &captureWriter{}
	attempts := 0

	consumer := newTestConsumer(func(context.Context, domain.Event) error {
		attempts++
		return errors.New("permanent failure")
	}, dlq)

	msg := eventMessage(t)
	require.NoError(t, consumer.process(context.Background(), msg))

	assert.Equal(t, 3, attempts)
	require.Len(t, dlq.messages, 1)
	assert.Equal(t, msg.Key, dlq.messages[0].Key)
	assert.Equal(t, msg.Value, dlq.messages[0].Value)
}

func TestConsumer_UndecodableMessageDeadLetter(t *testing.T) {
	dlq := &captureWriter{}
	attempts := 0

	consumer := newTestConsumer(func(context.Context, domain.Event) error {
		attempts++
		return nil
	}, dlq)

	msg := kafka.Message{Value: []byte("not json")}
	require.NoError(t, consumer.process(context.Background(), msg))

	// Poison messages skip the handler entirely
	assert.Zero(t, attempts)
	require.Len(t, dlq.messages, 1)
	assert.Equal(t, msg.Value, dlq.messages[0].Value)
}

func TestConsumer_CanceledContextStopsRetrying(t *testing.T) {
	dlq := &captureWriter{}
	ctx, cancel := context.WithCancel(context.Background())

	consumer := newTestConsumer(func(context.Context, domain.Event) error {
		cancel()
		return errors.New("failure")
	}, dlq)

	err := consumer.process(ctx, eventMessage(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dlq.messages)
}
