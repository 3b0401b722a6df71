// Package events publishes domain events. The RabbitMQ publisher sends
// budget alerts to a topic exchange; Nop discards them when no broker is set.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/infra/resilience"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("finance-tracker/events")

const publishTimeout = 5 * time.Second

// AMQPPublisher implements port.EventPublisher on a RabbitMQ channel.
type AMQPPublisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	channel  *amqp.Channel
	exchange string
	guard    *resilience.Guard
	logger   *zap.Logger
}

// NewAMQPPublisher dials url and declares a durable topic exchange.
func NewAMQPPublisher(url, exchange string, cfg resilience.Config, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		guard:    resilience.NewGuard("amqp", cfg),
		logger:   logger,
	}, nil
}

// PublishBudgetAlert sends evt as persistent JSON routed by its status.
func (p *AMQPPublisher) PublishBudgetAlert(ctx context.Context, evt domain.BudgetAlertEvent) error {
	ctx, span := tracer.Start(ctx, "AMQPPublisher.PublishBudgetAlert")
	defer span.End()
	span.SetAttributes(
		attribute.String("routing_key", evt.RoutingKey()),
		attribute.Int64("budget_id", evt.BudgetID),
	)

	msg, err := Encode(evt)
	if err != nil {
		return err
	}

	err = p.guard.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()

		p.mu.Lock()
		defer p.mu.Unlock()
		return p.channel.PublishWithContext(ctx,
			p.exchange,       // exchange
			evt.RoutingKey(), // routing key
			false,            // mandatory
			false,            // immediate
			msg,
		)
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "amqp", Err: err}
	}

	p.logger.Debug("budget alert published",
		zap.String("exchange", p.exchange),
		zap.String("routing_key", evt.RoutingKey()),
		zap.Int64("user_id", evt.UserID),
	)
	return nil
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Encode builds the AMQP message for evt.
func Encode(evt domain.BudgetAlertEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal budget alert: %w", err)
	}
	ts := evt.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ts,
		Type:         "budget.alert",
		Body:         body,
	}, nil
}

// Nop discards every event.
type Nop struct{}

func (Nop) PublishBudgetAlert(context.Context, domain.BudgetAlertEvent) error { return nil }
func (Nop) Close() error                                                      { return nil }
