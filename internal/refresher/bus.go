package refresher

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cburgosro9303/vortex-config/internal/log"
)

// RefreshEvent is the payload broadcast to every other config server
// replica when a watched label's commit changes, the Spring Cloud Bus
// equivalent of a RefreshRemoteApplicationEvent.
type RefreshEvent struct {
	Label      string    `json:"label"`
	Commit     string    `json:"commit"`
	OccurredAt time.Time `json:"occurredAt"`
}

// AMQPBus publishes RefreshEvents to a fanout exchange so every
// subscriber (other server replicas, client-side bus listeners) learns
// about a commit change without polling the HTTP API.
type AMQPBus struct {
	channel  *amqp.Channel
	exchange string
	logger   log.Logger
}

// NewAMQPBus declares exchange as a durable fanout exchange on conn and
// returns a publisher bound to it.
func NewAMQPBus(conn *amqp.Connection, exchange string, logger log.Logger) (*AMQPBus, error) {
	if logger == nil {
		logger = log.Nop{}
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, err
	}

	return &AMQPBus{channel: ch, exchange: exchange, logger: logger}, nil
}

// PublishRefresh broadcasts a RefreshEvent for label/commit.
func (b *AMQPBus) PublishRefresh(ctx context.Context, label, commit string) error {
	evt := RefreshEvent{Label: label, Commit: commit, OccurredAt: time.Now()}

	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	return b.channel.PublishWithContext(ctx, b.exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   evt.OccurredAt,
		Body:        body,
	})
}

// Close releases the underlying channel.
func (b *AMQPBus) Close() error { return b.channel.Close() }

var _ Bus = (*AMQPBus)(nil)
