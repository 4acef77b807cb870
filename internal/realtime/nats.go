package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSBus carries feed changes between API instances. Every instance
// subscribes and relays what it receives to its own hub, including its own
// publishes.
type NATSBus struct {
	conn    *nats.Conn
	subject string
}

func NewNATSBus(url, subject string) (*NATSBus, error) {
	conn, err := nats.Connect(url, nats.Name("acg-sessions-api"))
	if err != nil {
		return nil, fmt.Errorf("nats.Connect -> %w", err)
	}

	return &NATSBus{conn: conn, subject: subject}, nil
}

func (b *NATSBus) Publish(_ context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	zap.L().Debug("publishing change", zap.String("subject", b.subject), zap.Uint64("revision", change.Revision))

	if err = b.conn.Publish(b.subject, payload); err != nil {
		return fmt.Errorf("b.conn.Publish -> %w", err)
	}

	return nil
}

// Relay forwards every message on the subject to hub.
func (b *NATSBus) Relay(hub *Hub) error {
	_, err := b.conn.Subscribe(b.subject, func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if err := hub.Broadcast(ctx, msg.Data); err != nil {
			zap.L().Warn("dropping relayed change", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("b.conn.Subscribe -> %w", err)
	}

	return nil
}

func (b *NATSBus) Close() error {
	return b.conn.Drain()
}
