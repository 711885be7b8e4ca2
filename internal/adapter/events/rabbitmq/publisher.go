package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"custodial-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const dialTimeout = 10 * time.Second

// TransactionEvent is the payload published when a ledger entry commits.
type TransactionEvent struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	WalletID      uuid.UUID       `json:"wallet_id"`
	Type          string          `json:"type"`
	Direction     string          `json:"direction"`
	Amount        string          `json:"amount"`
	Network       string          `json:"network"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Publisher implements ports.EventPublisher on a durable topic exchange.
type Publisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	log      zerolog.Logger
}

// NewPublisher dials RabbitMQ and declares the exchange. The dial has a
// bounded timeout so startup does not hang when the broker is down.
func NewPublisher(url, exchange string, log zerolog.Logger) (*Publisher, error) {
	conn, err := amqp091.DialConfig(url, amqp091.Config{Dial: amqp091.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, fmt.Errorf("dialing rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
	}

	log.Info().Str("exchange", exchange).Msg("RabbitMQ publisher ready")

	return &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		log:      log,
	}, nil
}

// PublishTransaction emits a transaction event with a routing key derived
// from the transaction type, e.g. "transaction.transfer.completed".
func (p *Publisher) PublishTransaction(ctx context.Context, ownerID uuid.UUID, txn *domain.Transaction) error {
	event := TransactionEvent{
		TransactionID: txn.ID,
		OwnerID:       ownerID,
		WalletID:      txn.WalletID,
		Type:          string(txn.Type),
		Direction:     string(txn.Direction),
		Amount:        txn.Amount.String(),
		Network:       string(txn.Network),
		Timestamp:     txn.CreatedAt,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal transaction event: %w", err)
	}

	routingKey := fmt.Sprintf("transaction.%s.%s", txn.Type, txn.Status)

	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp091.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("publish transaction event: %w", err)
	}

	p.log.Debug().
		Str("routing_key", routingKey).
		Str("transaction_id", txn.ID.String()).
		Msg("transaction event published")
	return nil
}

// Close shuts down the channel and connection.
func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// NoopPublisher satisfies ports.EventPublisher when messaging is disabled.
type NoopPublisher struct{}

// PublishTransaction drops the event.
func (NoopPublisher) PublishTransaction(ctx context.Context, ownerID uuid.UUID, txn *domain.Transaction) error {
	return nil
}
