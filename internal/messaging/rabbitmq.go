package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quizdeck/quizdeck-backend/internal/model"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// AttemptCompletedQueue carries finished attempt events for downstream
// consumers (notifications, analytics).
const AttemptCompletedQueue = "attempt_completed_queue"

// AttemptCompletedEvent is the wire format published per finished attempt.
type AttemptCompletedEvent struct {
	AttemptID  string    `json:"attempt_id"`
	QuizID     string    `json:"quiz_id"`
	UserID     int       `json:"user_id"`
	Score      float64   `json:"score"`
	MaxScore   float64   `json:"max_score"`
	Percentage float64   `json:"percentage"`
	Passed     bool      `json:"passed"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RabbitMQClient publishes quiz events to RabbitMQ on durable queues.
type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     zerolog.Logger
}

// NewRabbitMQClient connects to RabbitMQ and opens a channel.
func NewRabbitMQClient(url string, log zerolog.Logger) (*RabbitMQClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	return &RabbitMQClient{
		conn:    conn,
		channel: channel,
		log:     log.With().Str("component", "rabbitmq").Logger(),
	}, nil
}

// Close shuts down the channel and connection.
func (c *RabbitMQClient) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *RabbitMQClient) declareQueue(name string) (amqp.Queue, error) {
	return c.channel.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

func (c *RabbitMQClient) publish(ctx context.Context, queueName string, body []byte) error {
	if _, err := c.declareQueue(queueName); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	return c.channel.PublishWithContext(
		ctx,
		"",        // exchange
		queueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
}

// PublishAttemptCompleted publishes a finished attempt event.
func (c *RabbitMQClient) PublishAttemptCompleted(ctx context.Context, att *model.Attempt) error {
	event := AttemptCompletedEvent{
		AttemptID:  att.ID.String(),
		QuizID:     att.QuizID.String(),
		UserID:     att.UserID,
		Score:      att.Score,
		MaxScore:   att.MaxScore,
		Percentage: att.Percentage,
		Passed:     att.Passed,
		OccurredAt: time.Now(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := c.publish(ctx, AttemptCompletedQueue, body); err != nil {
		return err
	}
	c.log.Debug().Str("attempt_id", event.AttemptID).Msg("Published attempt completion")
	return nil
}
