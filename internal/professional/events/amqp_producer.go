package events

import (
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// RoutingPrefix prefixes the event type in AMQP routing keys.
const RoutingPrefix = "professionals."

type AMQPChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPProducer publishes events to a durable topic exchange.
type AMQPProducer struct {
	conn      *amqp.Connection
	channel   AMQPChannel
	exchange  string
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
}

func NewAMQPProducer(url, exchange string, logger *zap.Logger) (*AMQPProducer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("error dialling rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("error opening rabbitmq channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("error declaring exchange %q: %w", exchange, err)
	}

	p := newAMQPProducer(ch, exchange, logger)
	p.conn = conn
	go p.eventLoop()
	return p, nil
}

func newAMQPProducer(ch AMQPChannel, exchange string, logger *zap.Logger) *AMQPProducer {
	return &AMQPProducer{
		channel:   ch,
		exchange:  exchange,
		events:    make(chan Event, queueSize),
		logger:    logger.Named("amqp_producer"),
		closeChan: make(chan struct{}),
	}
}

func (p *AMQPProducer) Produce(event Event) {
	select {
	case p.events <- event:
	default:
		p.logger.Warn("AMQP producer queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("professional_id", event.Key()),
		)
	}
}

func (p *AMQPProducer) eventLoop() {
	for {
		select {
		case event := <-p.events:
			p.publish(event)
		case <-p.closeChan:
			return
		}
	}
}

func (p *AMQPProducer) publish(event Event) {
	body, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("professional_id", event.Key()),
		)
		return
	}
	err = p.channel.Publish(p.exchange, RoutingPrefix+string(event.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.Key(),
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
	if err != nil {
		p.logger.Error("Failed to publish event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("professional_id", event.Key()),
		)
	}
}

func (p *AMQPProducer) Close() {
	close(p.closeChan)
	if err := p.channel.Close(); err != nil {
		p.logger.Error("Failed to close AMQP channel", zap.Error(err))
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.logger.Error("Failed to close AMQP connection", zap.Error(err))
		}
	}
}
