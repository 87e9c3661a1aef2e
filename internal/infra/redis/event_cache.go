package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// EventCache remembers provider event ids that were already reconciled so
// repeat deliveries can be answered without touching Postgres. Losing the
// cache is safe: the guarded status update in the payments table still
// refuses double application.
type EventCache struct {
	client RedisClient
	ttl    time.Duration
	log    *zerolog.Logger
}

func NewEventCache(client RedisClient, ttl time.Duration, logger *zerolog.Logger) *EventCache {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	l := logger.With().Str("component", "EventCache").Logger()
	return &EventCache{client: client, ttl: ttl, log: &l}
}

func eventKey(provider, eventID string) string {
	return "webhook_event:" + provider + ":" + eventID
}

func (c *EventCache) Seen(ctx context.Context, provider, eventID string) bool {
	_, err := c.client.Get(ctx, eventKey(provider, eventID))
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn().Err(err).Str("event_id", eventID).Msg("event cache lookup failed, falling through to database")
		}
		return false
	}
	return true
}

func (c *EventCache) MarkSeen(ctx context.Context, provider, eventID string) {
	if err := c.client.Set(ctx, eventKey(provider, eventID), "1", c.ttl); err != nil {
		c.log.Warn().Err(err).Str("event_id", eventID).Msg("failed to record processed event")
	}
}
