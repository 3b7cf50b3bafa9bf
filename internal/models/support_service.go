package models

import (
	"time"
)

type Availability string

const (
	// AvailabilityAlways marks a high-availability (24/7) service.
	AvailabilityAlways      Availability = "always"
	AvailabilityAvailable   Availability = "available"
	AvailabilityLimited     Availability = "limited"
	AvailabilityUnavailable Availability = "unavailable"
)

func (a Availability) IsHighAvailability() bool {
	return a == AvailabilityAlways
}

type SupportService struct {
	ID                 string       `json:"id" bson:"_id"`
	UserID             string       `json:"user_id" bson:"user_id"`
	Name               string       `json:"name" bson:"name"`
	ServiceTypes       []string     `json:"service_types" bson:"service_types"`
	Location           *GeoPoint    `json:"location,omitempty" bson:"location,omitempty"`
	CoverageAreaRadius float64      `json:"coverage_area_radius" bson:"coverage_area_radius"` // kilometers
	Availability       Availability `json:"availability" bson:"availability"`
	Helpline           string       `json:"helpline,omitempty" bson:"helpline,omitempty"`
	Email              string       `json:"email,omitempty" bson:"email,omitempty"`
	PhoneNumber        string       `json:"phone_number,omitempty" bson:"phone_number,omitempty"`
	Website            string       `json:"website,omitempty" bson:"website,omitempty"`
	CreatedAt          time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at" bson:"updated_at"`
}

func (s *SupportService) IsOwnedBy(userID string) bool {
	return userID != "" && s.UserID == userID
}
