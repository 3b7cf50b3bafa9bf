package models

import (
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

type Appointment struct {
	ID              string            `json:"id" bson:"_id"`
	MatchID         string            `json:"match_id" bson:"match_id"`
	ReportID        string            `json:"report_id" bson:"report_id"`
	ServiceID       string            `json:"service_id" bson:"service_id"`
	ProfessionalID  string            `json:"professional_id" bson:"professional_id"`
	SurvivorID      *string           `json:"survivor_id" bson:"survivor_id"`
	AppointmentDate time.Time         `json:"appointment_date" bson:"appointment_date"`
	Status          AppointmentStatus `json:"status" bson:"status"`
	Notes           string            `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" bson:"updated_at"`
}

func (a *Appointment) HasParticipant(userID string) bool {
	if userID == "" {
		return false
	}
	if a.ProfessionalID == userID {
		return true
	}
	return a.SurvivorID != nil && *a.SurvivorID == userID
}
