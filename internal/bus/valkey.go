// valkey.go provides the Valkey (Redis-compatible) client initialization
// and the pub/sub-backed Bus used to fan invalidations out to every
// server process.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectValkey creates a Valkey client and verifies the connection with a ping.
func ConnectValkey(host, port, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("valkey ping: %w", err)
	}

	slog.Info("valkey connected", "addr", fmt.Sprintf("%s:%s", host, port))
	return client, nil
}

// channelPrefix namespaces bus topics in the shared Valkey instance.
const channelPrefix = "themepress:bus:"

// ValkeyBus is a Bus carried over Valkey pub/sub. Messages published by
// any process are delivered to subscribed handlers in every process,
// including the publisher's own.
type ValkeyBus struct {
	client *redis.Client

	mu       sync.RWMutex
	handlers map[string][]Handler
	pubsub   *redis.PubSub
}

// NewValkeyBus creates a bus on an established client. Call Close when
// the process shuts down.
func NewValkeyBus(client *redis.Client) *ValkeyBus {
	return &ValkeyBus{
		client:   client,
		handlers: make(map[string][]Handler),
	}
}

// Publish sends a payload to all subscribers of topic across the fleet.
func (b *ValkeyBus) Publish(ctx context.Context, topic, payload string) error {
	if err := b.client.Publish(ctx, channelPrefix+topic, payload).Err(); err != nil {
		return fmt.Errorf("bus publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers a handler for a topic. The first subscription
// starts the receive loop; later ones attach additional channels to it.
func (b *ValkeyBus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	first := b.pubsub == nil
	b.handlers[topic] = append(b.handlers[topic], h)

	if first {
		b.pubsub = b.client.Subscribe(context.Background(), channelPrefix+topic)
		go b.receive()
		return
	}
	if err := b.pubsub.Subscribe(context.Background(), channelPrefix+topic); err != nil {
		slog.Warn("bus subscribe failed", "topic", topic, "error", err)
	}
}

// receive dispatches incoming messages until the pubsub is closed.
func (b *ValkeyBus) receive() {
	for msg := range b.pubsub.Channel() {
		topic := msg.Channel[len(channelPrefix):]

		b.mu.RLock()
		hs := make([]Handler, len(b.handlers[topic]))
		copy(hs, b.handlers[topic])
		b.mu.RUnlock()

		for _, h := range hs {
			h(msg.Payload)
		}
	}
}

// Close stops the receive loop. The underlying client is owned by the
// caller and stays open.
func (b *ValkeyBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pubsub != nil {
		return b.pubsub.Close()
	}
	return nil
}
