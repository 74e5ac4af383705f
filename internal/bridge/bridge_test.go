package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return mqttQoS }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

func TestMQTTMessageHandler_PassesPayload(t *testing.T) {
	var got []byte
	handler := NewMQTTMessageHandler(func(_ context.Context, payload []byte) error {
		got = payload
		return nil
	}, zap.NewNop())

	handler(nil, &fakeMessage{topic: "rnsync/vitals/ingest", payload: []byte(`{"patientId":"p1"}`)})

	assert.Equal(t, `{"patientId":"p1"}`, string(got))
}

func TestMQTTMessageHandler_LogsFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	handler := NewMQTTMessageHandler(func(context.Context, []byte) error {
		return errors.New("metric is required")
	}, zap.New(core))

	handler(nil, &fakeMessage{topic: "rnsync/vitals/ingest"})

	entries := logs.FilterMessage("failed to ingest mqtt message").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "rnsync/vitals/ingest", entries[0].ContextMap()["topic"])
	}
}

func TestKafkaBridge_HandleEvent(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	var calls int
	b := &KafkaBridge{
		topic:  "rnsync-vitals-ingest",
		logger: zap.New(core),
		handler: func(_ context.Context, payload []byte) error {
			calls++
			if string(payload) == "bad" {
				return errors.New("invalid ingest message")
			}
			return nil
		},
	}
	topic := b.topic

	b.handleEvent(context.Background(), nil)
	b.handleEvent(context.Background(), &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Offset: 4},
		Value:          []byte(`{"patientId":"p1"}`),
	})
	b.handleEvent(context.Background(), &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Offset: 5},
		Value:          []byte("bad"),
	})
	b.handleEvent(context.Background(), kafka.NewError(kafka.ErrTransport, "broker down", false))

	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, logs.FilterMessage("failed to ingest kafka message").Len())
	assert.Equal(t, 1, logs.FilterMessage("kafka error").Len())
}
