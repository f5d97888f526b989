package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Match lifecycle event types. They double as routing keys on the topic
// exchange.
const (
	TypeDuelStarted  = "duel.started"
	TypeDuelFinished = "duel.finished"
	TypeDuelCanceled = "duel.canceled"
)

// MatchEvent is the body published for every duel lifecycle change.
type MatchEvent struct {
	Type               string    `json:"type"`
	MatchID            string    `json:"match_id"`
	Player1ID          string    `json:"player1_id"`
	Player2ID          string    `json:"player2_id"`
	Player1Score       int       `json:"player1_score"`
	Player2Score       int       `json:"player2_score"`
	Player1RatingAfter *int      `json:"player1_rating_after,omitempty"`
	Player2RatingAfter *int      `json:"player2_rating_after,omitempty"`
	Reason             string    `json:"reason,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// Publisher sends match events to a RabbitMQ topic exchange. A publisher
// built with an empty URL is disabled and drops every event.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	enabled  bool
	logger   zerolog.Logger
}

// NewPublisher dials the broker and declares the exchange.
func NewPublisher(url, exchange string, logger zerolog.Logger) (*Publisher, error) {
	logger = logger.With().Str("component", "event_publisher").Logger()
	if exchange == "" {
		exchange = "duel.events"
	}
	if url == "" {
		logger.Warn().Msg("RabbitMQ URL is empty, event publishing is disabled")
		return &Publisher{exchange: exchange, logger: logger}, nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
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

	logger.Info().Str("exchange", exchange).Msg("event publisher initialized")
	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		enabled:  true,
		logger:   logger,
	}, nil
}

// Enabled reports whether events reach the broker.
func (p *Publisher) Enabled() bool {
	return p != nil && p.enabled
}

// Publish sends evt with its type as routing key.
func (p *Publisher) Publish(ctx context.Context, evt MatchEvent) error {
	if !p.Enabled() {
		return nil
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		evt.Type,   // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    evt.OccurredAt,
			Body:         body,
			Headers: amqp.Table{
				"event_type": evt.Type,
				"match_id":   evt.MatchID,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}

	p.logger.Debug().Str("type", evt.Type).Str("match_id", evt.MatchID).Msg("event published")
	return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	if !p.Enabled() {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.Close(); err != nil {
		p.logger.Warn().Err(err).Msg("close channel")
	}
	return p.conn.Close()
}
