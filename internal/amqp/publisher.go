// Package amqp forwards ledger events to a RabbitMQ topic exchange so that
// services outside this process can follow balance changes.
package amqp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/websocket"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	defaultQueueSize      = 256
	defaultPublishTimeout = 5 * time.Second
)

// channel is the subset of *amqp091.Channel the publisher uses
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type outgoing struct {
	workspaceID int32
	event       websocket.Event
}

// Publisher implements websocket.EventPublisher. Publish only enqueues; a single
// goroutine drains the queue so ledger requests never wait on the broker. Events
// are dropped, with a warning, while the queue is full.
type Publisher struct {
	conn     *amqp091.Connection
	ch       channel
	exchange string
	logger   zerolog.Logger
	timeout  time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan outgoing
	done   chan struct{}
}

var _ websocket.EventPublisher = (*Publisher)(nil)

// Dial connects to the broker and declares a durable topic exchange
func Dial(url, exchange string, logger zerolog.Logger) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	p := newPublisher(ch, exchange, logger)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string, logger zerolog.Logger) *Publisher {
	p := &Publisher{
		ch:       ch,
		exchange: exchange,
		logger:   logger.With().Str("component", "amqp_publisher").Logger(),
		timeout:  defaultPublishTimeout,
		queue:    make(chan outgoing, defaultQueueSize),
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish enqueues the event for delivery to the exchange
func (p *Publisher) Publish(workspaceID int32, event websocket.Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Warn().Str("event", event.Type).Msg("Publisher closed, event dropped")
		return
	}

	select {
	case p.queue <- outgoing{workspaceID: workspaceID, event: event}:
	default:
		p.logger.Warn().
			Int32("workspace_id", workspaceID).
			Str("event", event.Type).
			Msg("AMQP publish queue full, event dropped")
	}
}

func (p *Publisher) run() {
	defer close(p.done)
	for msg := range p.queue {
		if err := p.send(msg); err != nil {
			p.logger.Error().Err(err).
				Int32("workspace_id", msg.workspaceID).
				Str("event", msg.event.Type).
				Msg("Failed to publish ledger event")
		}
	}
}

func (p *Publisher) send(msg outgoing) error {
	publishing, err := buildPublishing(msg.workspaceID, msg.event)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	err = p.ch.PublishWithContext(ctx,
		p.exchange,            // exchange
		RoutingKey(msg.event), // routing key
		false,                 // mandatory
		false,                 // immediate
		publishing,
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	p.logger.Debug().
		Int32("workspace_id", msg.workspaceID).
		Str("routing_key", RoutingKey(msg.event)).
		Str("message_id", publishing.MessageId).
		Msg("Published ledger event")
	return nil
}

// Close flushes queued events and closes the channel and connection
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done

	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
