package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/logging"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/metrics"
)

const (
	Channel     = "licita:alerts"        // Pub/Sub channel for live alerts
	recentKey   = "licita:alerts:recent" // List of the latest alerts, newest first
	recentLimit = 100
	recentTTL   = 7 * 24 * time.Hour
)

// Hub publishes alerts over Redis Pub/Sub and keeps a short history so a
// dashboard that just connected can backfill.
type Hub struct {
	client *redis.Client
}

func NewHub(client *redis.Client) *Hub {
	return &Hub{client: client}
}

func (h *Hub) Publish(ctx context.Context, a Alert) (Alert, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(a)
	if err != nil {
		return a, fmt.Errorf("marshal alert: %w", err)
	}

	pipe := h.client.Pipeline()
	pipe.LPush(ctx, recentKey, data)
	pipe.LTrim(ctx, recentKey, 0, recentLimit-1)
	pipe.Expire(ctx, recentKey, recentTTL)
	pipe.Publish(ctx, Channel, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return a, fmt.Errorf("publish alert: %w", err)
	}

	metrics.RecordAlertPublished()
	return a, nil
}

// Recent returns up to n alerts, newest first.
func (h *Hub) Recent(ctx context.Context, n int) ([]Alert, error) {
	if n <= 0 || n > recentLimit {
		n = recentLimit
	}

	raw, err := h.client.LRange(ctx, recentKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("recent alerts: %w", err)
	}

	out := make([]Alert, 0, len(raw))
	for _, r := range raw {
		var a Alert
		if err := json.Unmarshal([]byte(r), &a); err != nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// Subscribe returns a channel of alerts that is closed when ctx ends. The
// subscription is confirmed before Subscribe returns, so nothing published
// afterwards is missed.
func (h *Hub) Subscribe(ctx context.Context) (<-chan Alert, error) {
	sub := h.client.Subscribe(ctx, Channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe alerts: %w", err)
	}

	out := make(chan Alert, 16)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var a Alert
				if err := json.Unmarshal([]byte(msg.Payload), &a); err != nil {
					logging.NewLogger(ctx).LogWarnf("alerts_subscribe", "drop malformed alert: %v", err)
					continue
				}
				select {
				case out <- a:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (h *Hub) Ping(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}
