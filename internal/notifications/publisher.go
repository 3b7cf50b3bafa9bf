// Package notifications delivers match change events to realtime subscribers.
package notifications

import (
	"context"
	"errors"

	"supportmatch/internal/models"
	"supportmatch/internal/services"
)

// MultiPublisher fans an event out to every publisher. One failing sink does
// not stop delivery to the others.
type MultiPublisher struct {
	publishers []services.EventPublisher
}

func NewMultiPublisher(publishers ...services.EventPublisher) *MultiPublisher {
	nonNil := make([]services.EventPublisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			nonNil = append(nonNil, p)
		}
	}
	return &MultiPublisher{publishers: nonNil}
}

func (m *MultiPublisher) PublishMatchEvent(ctx context.Context, event *models.MatchEvent) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.PublishMatchEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiPublisher) Len() int {
	return len(m.publishers)
}
