// Package flow provides the Redis-backed push-notification adapter.
package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	coreflow "github.com/timescope/featureset-api/internal/flow"
)

// channelPrefix namespaces per-user notification channels.
const channelPrefix = "flow:user:"

// ChannelFor returns the pub/sub channel carrying a user's notifications.
func ChannelFor(userID string) string {
	return channelPrefix + userID
}

// RedisEmitter publishes notification messages to the owning user's channel.
// Any process holding a live connection for that user subscribes to the same
// channel and forwards messages, so delivery works across instances.
type RedisEmitter struct {
	client redis.UniversalClient
}

var _ coreflow.Emitter = (*RedisEmitter)(nil)

// NewRedisEmitter constructs an emitter over an existing Redis client.
func NewRedisEmitter(client redis.UniversalClient) *RedisEmitter {
	return &RedisEmitter{client: client}
}

// Push publishes the message. A channel with no subscribers is not an error;
// the user simply has no live connection right now.
func (e *RedisEmitter) Push(ctx context.Context, userID string, msg coreflow.Message) error {
	if userID == "" {
		return errors.New("user id is required")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal flow message: %w", err)
	}

	if err := e.client.Publish(ctx, ChannelFor(userID), data).Err(); err != nil {
		return fmt.Errorf("publish flow message: %w", err)
	}
	return nil
}

// Subscribe opens a subscription to the user's channel and returns a Go
// channel of decoded messages. The subscription closes when ctx is done.
func (e *RedisEmitter) Subscribe(ctx context.Context, userID string) (<-chan coreflow.Message, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	sub := e.client.Subscribe(ctx, ChannelFor(userID))
	// Force the SUBSCRIBE round trip so a nonworking connection fails here,
	// not silently in the pump goroutine.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe flow channel: %w", err)
	}

	out := make(chan coreflow.Message)
	go func() {
		defer close(out)
		defer func() {
			_ = sub.Close()
		}()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-ch:
				if !ok {
					return
				}
				var msg coreflow.Message
				if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
