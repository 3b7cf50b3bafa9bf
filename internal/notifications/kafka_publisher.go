package notifications

import (
	"context"

	"supportmatch/internal/models"
	"supportmatch/pkg/stream"
)

// KafkaPublisher appends events to the match topic keyed by service id, so a
// service's events stay ordered within one partition.
type KafkaPublisher struct {
	producer *stream.Producer
}

func NewKafkaPublisher(producer *stream.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) PublishMatchEvent(ctx context.Context, event *models.MatchEvent) error {
	return p.producer.PublishJSON(ctx, event.ServiceID, event, map[string]string{
		"event_type": string(event.Type),
		"report_id":  event.ReportID,
	})
}
