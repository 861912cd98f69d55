package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// KindAssetCreated is sent once a mint and its metadata exist.
	KindAssetCreated = "asset_created"
	// KindEditionMinted is sent once the single unit sits in a wallet's
	// holder account and the master edition is recorded.
	KindEditionMinted = "edition_minted"

	// DefaultChannel is the Redis channel events are published on.
	DefaultChannel = "editionmint:events"
)

// Message describes a notification payload.
type Message struct {
	Kind        string    `json:"kind"`
	Destination string    `json:"destination"`
	Mint        string    `json:"mint"`
	Signature   string    `json:"signature"`
	Body        string    `json:"body,omitempty"`
	SentAt      time.Time `json:"sent_at"`
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		"kind", message.Kind,
		"destination", message.Destination,
		"mint", message.Mint,
		"signature", message.Signature,
	)
	return nil
}

// RedisNotifier publishes notifications as JSON on a Redis channel.
type RedisNotifier struct {
	cache   *redis.Client
	channel string
}

// NewRedisNotifier publishes on channel, or DefaultChannel when empty.
func NewRedisNotifier(cache *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{cache: cache, channel: channel}
}

// Send publishes the message.
func (n *RedisNotifier) Send(ctx context.Context, message Message) error {
	if message.SentAt.IsZero() {
		message.SentAt = time.Now().UTC()
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := n.cache.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Fanout sends each message to every notifier and reports the first error.
type Fanout []Notifier

// Send implements Notifier.
func (f Fanout) Send(ctx context.Context, message Message) error {
	var first error
	for _, n := range f {
		if err := n.Send(ctx, message); err != nil && first == nil {
			first = err
		}
	}
	return first
}
