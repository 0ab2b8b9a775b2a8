package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
)

type Publisher interface {
	PublishSubmissionGraded(ctx context.Context, event *models.SubmissionGradedEvent) error
	RoutingKey() string
	Close() error
}

// RabbitMQOptions describes where graded events go. With an empty
// QueueName only the exchange is declared and consumers bind their own
// queues.
type RabbitMQOptions struct {
	URL            string
	Exchange       string
	ExchangeType   string
	RoutingKey     string
	QueueName      string
	PublishTimeout time.Duration
}

func (o RabbitMQOptions) withDefaults() RabbitMQOptions {
	if o.ExchangeType == "" {
		o.ExchangeType = amqp091.ExchangeTopic
	}
	if o.RoutingKey == "" {
		o.RoutingKey = models.SubmissionGradedRoutingKey
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = 5 * time.Second
	}
	return o
}

type rabbitMQPublisher struct {
	opts   RabbitMQOptions
	dial   func(url string) (*amqp091.Connection, error)
	logger zerolog.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
	closed  chan *amqp091.Error
}

// NewRabbitMQPublisher connects and declares the topology up front so a
// misconfigured broker is reported at startup. A channel lost later is
// reopened on the next publish.
func NewRabbitMQPublisher(opts RabbitMQOptions, logger zerolog.Logger) (Publisher, error) {
	p := &rabbitMQPublisher{
		opts:   opts.withDefaults(),
		dial:   amqp091.Dial,
		logger: logger.With().Str("component", "events").Logger(),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *rabbitMQPublisher) connectLocked() error {
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := p.dial(p.opts.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		p.conn = conn
	}

	channel, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err := p.declare(channel); err != nil {
		channel.Close()
		return err
	}

	p.channel = channel
	p.closed = channel.NotifyClose(make(chan *amqp091.Error, 1))

	p.logger.Info().
		Str("exchange", p.opts.Exchange).
		Str("exchange_type", p.opts.ExchangeType).
		Str("queue", p.opts.QueueName).
		Str("routing_key", p.opts.RoutingKey).
		Msg("RabbitMQ channel ready")
	return nil
}

func (p *rabbitMQPublisher) declare(ch *amqp091.Channel) error {
	if err := ch.ExchangeDeclare(p.opts.Exchange, p.opts.ExchangeType, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %q: %w", p.opts.Exchange, err)
	}
	if p.opts.QueueName == "" {
		return nil
	}

	queue, err := ch.QueueDeclare(p.opts.QueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue %q: %w", p.opts.QueueName, err)
	}
	if err := ch.QueueBind(queue.Name, p.opts.RoutingKey, p.opts.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %q: %w", queue.Name, err)
	}
	return nil
}

// channelLocked returns a usable channel, reopening it when the broker
// closed the previous one.
func (p *rabbitMQPublisher) channelLocked() (*amqp091.Channel, error) {
	if p.channel != nil {
		select {
		case reason, ok := <-p.closed:
			if ok && reason != nil {
				p.logger.Warn().Str("reason", reason.Reason).Int("code", reason.Code).Msg("RabbitMQ channel closed, reopening")
			}
			p.channel = nil
		default:
			return p.channel, nil
		}
	}

	if err := p.connectLocked(); err != nil {
		return nil, err
	}
	return p.channel, nil
}

func (p *rabbitMQPublisher) PublishSubmissionGraded(ctx context.Context, event *models.SubmissionGradedEvent) error {
	msg, err := newGradedMessage(event, time.Now())
	if err != nil {
		return err
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.opts.PublishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	channel, err := p.channelLocked()
	if err != nil {
		return err
	}
	if err := channel.PublishWithContext(publishCtx, p.opts.Exchange, p.opts.RoutingKey, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish submission graded event: %w", err)
	}

	p.logger.Info().
		Str("message_id", msg.MessageId).
		Str("submission_id", event.SubmissionID.String()).
		Str("assignment_id", event.AssignmentID.String()).
		Msg("Submission graded event published")
	return nil
}

func newGradedMessage(event *models.SubmissionGradedEvent, now time.Time) (amqp091.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    uuid.NewString(),
		Type:         models.SubmissionGradedRoutingKey,
		AppId:        "edusmart-portal",
		Timestamp:    now.UTC(),
		Body:         body,
	}, nil
}

func (p *rabbitMQPublisher) RoutingKey() string {
	return p.opts.RoutingKey
}

func (p *rabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Error().Err(err).Msg("Failed to close RabbitMQ channel")
		}
		p.channel = nil
	}
	if p.conn != nil && !p.conn.IsClosed() {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("failed to close RabbitMQ connection: %w", err)
		}
	}
	return nil
}

// NoopPublisher drops events. It is used when RabbitMQ is disabled or
// unreachable at startup.
type NoopPublisher struct {
	logger zerolog.Logger
}

func NewNoopPublisher(logger zerolog.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) PublishSubmissionGraded(_ context.Context, event *models.SubmissionGradedEvent) error {
	p.logger.Debug().
		Str("submission_id", event.SubmissionID.String()).
		Msg("Event publishing disabled, dropping submission graded event")
	return nil
}

func (p *NoopPublisher) RoutingKey() string {
	return ""
}

func (p *NoopPublisher) Close() error {
	return nil
}
