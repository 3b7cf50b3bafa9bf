package models

import (
	"time"
)

type Urgency string
type ReportMatchStatus string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"

	ReportMatchStatusPending   ReportMatchStatus = "pending"
	ReportMatchStatusMatched   ReportMatchStatus = "matched"
	ReportMatchStatusUnmatched ReportMatchStatus = "unmatched"
)

// Rank orders urgencies from 1 (low) to 4 (critical). Unknown values rank 0.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyLow:
		return 1
	case UrgencyMedium:
		return 2
	case UrgencyHigh:
		return 3
	case UrgencyCritical:
		return 4
	default:
		return 0
	}
}

func (u Urgency) IsUrgent() bool {
	return u.Rank() >= UrgencyHigh.Rank()
}

type Report struct {
	ID                  string            `json:"report_id" bson:"_id"`
	UserID              *string           `json:"user_id" bson:"user_id"`
	FirstName           string            `json:"first_name" bson:"first_name"`
	LastName            *string           `json:"last_name,omitempty" bson:"last_name,omitempty"`
	Email               string            `json:"email,omitempty" bson:"email,omitempty"`
	Phone               *string           `json:"phone,omitempty" bson:"phone,omitempty"`
	TypeOfIncident      string            `json:"type_of_incident" bson:"type_of_incident"`
	IncidentDescription string            `json:"incident_description" bson:"incident_description"`
	Urgency             Urgency           `json:"urgency" bson:"urgency"`
	RequiredServices    []string          `json:"required_services" bson:"required_services"`
	Latitude            *float64          `json:"latitude" bson:"latitude"`
	Longitude           *float64          `json:"longitude" bson:"longitude"`
	Consent             bool              `json:"consent" bson:"consent"`
	ContactPreference   string            `json:"contact_preference" bson:"contact_preference"`
	SubmissionTimestamp time.Time         `json:"submission_timestamp" bson:"submission_timestamp"`
	IsMatched           bool              `json:"ismatched" bson:"ismatched"`
	MatchStatus         ReportMatchStatus `json:"match_status" bson:"match_status"`
	MatchVersion        int64             `json:"-" bson:"match_version"`
	CreatedAt           time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at" bson:"updated_at"`
}

// Coordinates returns the report location when both latitude and longitude are present.
func (r *Report) Coordinates() (lat, lng float64, ok bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return 0, 0, false
	}
	return *r.Latitude, *r.Longitude, true
}

func (r *Report) IsAnonymous() bool {
	return r.UserID == nil || *r.UserID == ""
}

func (r *Report) IsOwnedBy(userID string) bool {
	return !r.IsAnonymous() && *r.UserID == userID
}
