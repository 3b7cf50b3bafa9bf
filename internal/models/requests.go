package models

import (
	"time"
)

// ReportSubmission is the payload accepted at the submission boundary.
type ReportSubmission struct {
	FirstName           string     `json:"first_name" validate:"omitempty,max=100"`
	LastName            string     `json:"last_name" validate:"omitempty,max=100"`
	Email               string     `json:"email" validate:"omitempty,email"`
	Phone               string     `json:"phone" validate:"omitempty,max=32,phone_number"`
	TypeOfIncident      string     `json:"type_of_incident" validate:"required,max=100"`
	IncidentDescription string     `json:"incident_description" validate:"required,max=5000"`
	Urgency             string     `json:"urgency" validate:"required,oneof=low medium high critical"`
	RequiredServices    []string   `json:"required_services" validate:"required,min=1,max=20,dive,service_tag"`
	Consent             *bool      `json:"consent" validate:"required"`
	ContactPreference   string     `json:"contact_preference" validate:"required,oneof=email phone none"`
	Latitude            *float64   `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude           *float64   `json:"longitude" validate:"omitempty,min=-180,max=180"`
	SubmissionTimestamp *time.Time `json:"submission_timestamp" validate:"omitempty,past_date"`
}

type SupportServiceRequest struct {
	Name               string   `json:"name" validate:"required,max=200"`
	ServiceTypes       []string `json:"service_types" validate:"required,min=1,max=20,dive,service_tag"`
	Latitude           *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude          *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	CoverageAreaRadius float64  `json:"coverage_area_radius" validate:"gte=0,lte=20000"`
	Availability       string   `json:"availability" validate:"omitempty,oneof=always available limited unavailable"`
	Helpline           string   `json:"helpline" validate:"omitempty,max=32,phone_number"`
	Email              string   `json:"email" validate:"omitempty,email"`
	PhoneNumber        string   `json:"phone_number" validate:"omitempty,max=32,phone_number"`
	Website            string   `json:"website" validate:"omitempty,url"`
}

type AcceptMatchRequest struct {
	AppointmentDate *time.Time `json:"appointment_date"`
	Notes           string     `json:"notes" validate:"omitempty,max=1000"`
}

type AppointmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=completed cancelled"`
}

// MatchResult summarises a matching run.
type MatchResult struct {
	ReportID string            `json:"report_id"`
	Status   ReportMatchStatus `json:"match_status"`
	Matches  []*Match          `json:"matches"`
	Expired  int               `json:"expired"`
}
