package services

import (
	"context"
	"time"

	"supportmatch/internal/models"
	"supportmatch/internal/utils"
	"supportmatch/pkg/cache"
	"supportmatch/pkg/logger"
)

// Locker serialises work on a key across goroutines or instances.
// Implemented by cache.RedisCache and cache.LocalLocker.
type Locker interface {
	Lock(ctx context.Context, key string, expiration time.Duration) (*cache.DistributedLock, error)
	Unlock(ctx context.Context, lock *cache.DistributedLock) error
}

// EventPublisher delivers match change events to realtime subscribers.
type EventPublisher interface {
	PublishMatchEvent(ctx context.Context, event *models.MatchEvent) error
}

type nopPublisher struct{}

func (nopPublisher) PublishMatchEvent(context.Context, *models.MatchEvent) error { return nil }

// NopPublisher drops every event.
func NopPublisher() EventPublisher { return nopPublisher{} }

func reportLockKey(reportID string) string {
	return utils.ReportLockPrefix + reportID
}

// publishAll runs after commit; delivery failures never undo a committed change.
func publishAll(ctx context.Context, publisher EventPublisher, log *logger.Logger, events []*models.MatchEvent) {
	for _, event := range events {
		if err := publisher.PublishMatchEvent(ctx, event); err != nil {
			log.WithMatchID(event.MatchID).WithError(err).
				WithField("event", string(event.Type)).
				WithField("outcome", utils.EventNotificationDropped).
				Warn("Failed to publish match event")
		}
	}
}

func matchEvents(eventType models.MatchEventType, matches []*models.Match) []*models.MatchEvent {
	events := make([]*models.MatchEvent, 0, len(matches))
	for _, m := range matches {
		events = append(events, models.NewMatchEvent(eventType, m))
	}
	return events
}

// Actor is the authenticated caller, if any.
type Actor struct {
	UserID   string
	UserType string
}

func (a Actor) IsAdmin() bool {
	return a.UserType == utils.UserTypeAdmin
}

func (a Actor) IsAnonymous() bool {
	return a.UserID == ""
}
