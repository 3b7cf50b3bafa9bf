package models

import (
	"time"
)

type MatchStatusType string

const (
	MatchStatusPending  MatchStatusType = "pending"
	MatchStatusAccepted MatchStatusType = "accepted"
	MatchStatusDeclined MatchStatusType = "declined"
	MatchStatusExpired  MatchStatusType = "expired"
)

// IsTerminal reports whether no further transition is allowed out of the status.
func (s MatchStatusType) IsTerminal() bool {
	return s != MatchStatusPending
}

func (s MatchStatusType) IsValid() bool {
	switch s {
	case MatchStatusPending, MatchStatusAccepted, MatchStatusDeclined, MatchStatusExpired:
		return true
	}
	return false
}

type ScoreBreakdown struct {
	TagOverlap float64  `json:"tag_overlap" bson:"tag_overlap"`
	Urgency    float64  `json:"urgency" bson:"urgency"`
	Proximity  float64  `json:"proximity" bson:"proximity"`
	DistanceKM *float64 `json:"distance_km,omitempty" bson:"distance_km,omitempty"`
}

type Match struct {
	ID              string          `json:"id" bson:"_id"`
	ReportID        string          `json:"report_id" bson:"report_id"`
	ServiceID       string          `json:"service_id" bson:"service_id"`
	ProviderID      string          `json:"provider_id" bson:"provider_id"`
	MatchScore      float64         `json:"match_score" bson:"match_score"`
	MatchStatusType MatchStatusType `json:"match_status_type" bson:"match_status_type"`
	Description     string          `json:"description" bson:"description"`
	Breakdown       ScoreBreakdown  `json:"score_breakdown" bson:"score_breakdown"`
	CreatedAt       time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" bson:"updated_at"`
	RespondedAt     *time.Time      `json:"responded_at,omitempty" bson:"responded_at,omitempty"`
}

type MatchEventType string

const (
	MatchEventCreated MatchEventType = "match.created"
	MatchEventUpdated MatchEventType = "match.updated"
)

// MatchEvent is emitted for every insert or update of a match.
type MatchEvent struct {
	Type       MatchEventType  `json:"type"`
	MatchID    string          `json:"match_id"`
	ReportID   string          `json:"report_id"`
	ServiceID  string          `json:"service_id"`
	ProviderID string          `json:"provider_id"`
	Status     MatchStatusType `json:"match_status_type"`
	Score      float64         `json:"match_score"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func NewMatchEvent(eventType MatchEventType, match *Match) *MatchEvent {
	return &MatchEvent{
		Type:       eventType,
		MatchID:    match.ID,
		ReportID:   match.ReportID,
		ServiceID:  match.ServiceID,
		ProviderID: match.ProviderID,
		Status:     match.MatchStatusType,
		Score:      match.MatchScore,
		OccurredAt: time.Now().UTC(),
	}
}
