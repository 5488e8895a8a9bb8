package events

import (
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type MockAMQPChannel struct {
	mock.Mock
}

func (m *MockAMQPChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, msg)
	return args.Error(0)
}

func (m *MockAMQPChannel) Close() error {
	return m.Called().Error(0)
}

func TestAMQPProducer_Publish(t *testing.T) {
	ch := new(MockAMQPChannel)
	producer := newAMQPProducer(ch, "professional_events", zaptest.NewLogger(t))
	event := createdEvent(5)

	ch.On("Publish", "professional_events", "professionals.professional_created", mock.MatchedBy(func(msg amqp.Publishing) bool {
		return msg.ContentType == "application/json" &&
			msg.MessageId == "5" &&
			string(msg.Body) == string(mustMarshal(event))
	})).Return(nil)

	producer.publish(event)
	ch.AssertExpectations(t)
}

func TestAMQPProducer_PublishError(t *testing.T) {
	ch := new(MockAMQPChannel)
	core, recorded := observer.New(zap.ErrorLevel)
	producer := newAMQPProducer(ch, "professional_events", zap.New(core))
	ch.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("channel closed"))

	producer.publish(createdEvent(5))

	assert.Equal(t, 1, recorded.FilterMessage("Failed to publish event").Len())
}

func TestAMQPProducer_EventLoopAndClose(t *testing.T) {
	ch := new(MockAMQPChannel)
	delivered := make(chan struct{})
	ch.On("Publish", mock.Anything, "professionals.professional_deleted", mock.Anything).
		Run(func(mock.Arguments) { close(delivered) }).
		Return(nil)
	ch.On("Close").Return(nil)
	producer := newAMQPProducer(ch, "professional_events", zaptest.NewLogger(t))
	go producer.eventLoop()

	ev := createdEvent(9)
	ev.Type = ProfessionalDeleted
	producer.Produce(ev)

	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("event was not published")
	}

	producer.Close()
	ch.AssertCalled(t, "Close")
}

func TestAMQPProducer_QueueFull(t *testing.T) {
	core, recorded := observer.New(zap.WarnLevel)
	producer := newAMQPProducer(new(MockAMQPChannel), "x", zap.New(core))
	producer.events = make(chan Event, 1)

	producer.Produce(createdEvent(1))
	producer.Produce(createdEvent(2))

	assert.Equal(t, 1, recorded.FilterMessage("AMQP producer queue full, dropping event").Len())
}
