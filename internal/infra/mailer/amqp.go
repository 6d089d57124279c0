// Package mailer provides EmailSender adapters. The API never delivers
// mail itself: rendered reminders are handed to an external worker via
// a message queue, or just logged when no broker is configured.
package mailer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jardinchef/jardinchef-api/internal/domain"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPSender publishes outbound emails to a durable queue consumed by
// the mail worker.
type AMQPSender struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	queue   string
	replyTo string
	logger  *zap.Logger
}

// NewAMQPSender connects to the broker and declares the outbound queue.
func NewAMQPSender(amqpURL, queue, replyTo string, logger *zap.Logger) (*AMQPSender, error) {
	conn, err := amqp091.Dial(amqpURL)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := channel.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPSender{
		conn:    conn,
		channel: channel,
		queue:   queue,
		replyTo: replyTo,
		logger:  logger,
	}, nil
}

// outboundEmail is the queue message consumed by the mail worker.
type outboundEmail struct {
	MessageID string `json:"message_id"`
	To        string `json:"to"`
	ReplyTo   string `json:"reply_to,omitempty"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	QueuedAt  string `json:"queued_at"`
}

// Send publishes the message. A publish error means the hand-off
// failed; delivery outcomes beyond the queue are the worker's problem.
func (s *AMQPSender) Send(ctx context.Context, msg domain.EmailMessage) error {
	body, err := json.Marshal(outboundEmail{
		MessageID: uuid.New().String(),
		To:        msg.To,
		ReplyTo:   s.replyTo,
		Subject:   msg.Subject,
		Body:      msg.Body,
		QueuedAt:  time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	err = s.channel.PublishWithContext(ctx,
		"",      // default exchange
		s.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Body:         body,
		})
	if err != nil {
		s.logger.Error("mailer: publish failed",
			zap.String("queue", s.queue),
			zap.String("to", msg.To),
			zap.Error(err),
		)
		return &domain.ErrEmailTransport{To: msg.To, Err: err}
	}

	s.logger.Debug("mailer: email queued",
		zap.String("queue", s.queue),
		zap.String("to", msg.To),
	)
	return nil
}

// Close gracefully closes the channel and connection.
func (s *AMQPSender) Close() {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}
