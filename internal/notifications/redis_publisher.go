package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"supportmatch/internal/models"
	"supportmatch/internal/services"
	"supportmatch/internal/utils"
	"supportmatch/pkg/cache"
	"supportmatch/pkg/logger"
)

func matchChannel(serviceID string) string {
	return utils.MatchChannelPrefix + serviceID
}

// RedisPublisher broadcasts events to every instance through pub/sub.
type RedisPublisher struct {
	cache *cache.RedisCache
}

func NewRedisPublisher(c *cache.RedisCache) *RedisPublisher {
	return &RedisPublisher{cache: c}
}

func (p *RedisPublisher) PublishMatchEvent(ctx context.Context, event *models.MatchEvent) error {
	if err := p.cache.Publish(ctx, matchChannel(event.ServiceID), event); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

// RedisRelay subscribes to every service channel and hands events to a local
// publisher, normally the websocket one.
type RedisRelay struct {
	cache  *cache.RedisCache
	target services.EventPublisher
	logger *logger.Logger
}

func NewRedisRelay(c *cache.RedisCache, target services.EventPublisher, log *logger.Logger) *RedisRelay {
	return &RedisRelay{cache: c, target: target, logger: log}
}

// Run blocks until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.cache.PSubscribe(ctx, utils.MatchChannelPattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", utils.MatchChannelPattern, err)
	}
	r.logger.WithField("pattern", utils.MatchChannelPattern).Info("Relaying match events from redis")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(ctx, msg.Channel, msg.Payload)
		}
	}
}

func (r *RedisRelay) handle(ctx context.Context, channel, payload string) {
	var event models.MatchEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		r.logger.WithError(err).WithField("channel", channel).Warn("Dropping malformed match event")
		return
	}
	if event.ServiceID == "" {
		event.ServiceID = strings.TrimPrefix(channel, utils.MatchChannelPrefix)
	}
	if err := r.target.PublishMatchEvent(ctx, &event); err != nil {
		r.logger.WithMatchID(event.MatchID).WithError(err).Warn("Failed to relay match event")
	}
}
