package utils

import "time"

// Application Constants
const (
	AppName    = "SupportMatch"
	AppVersion = "1.0.0"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Matching
	DefaultTopK             = 3
	DefaultMinScore         = 0.0
	DefaultNeutralProximity = 0.5
	DefaultMatchLockTTL     = 30 * time.Second
	DefaultMatchLockWait    = 10 * time.Second
	DefaultMatchRetries     = 3
	DefaultSweepInterval    = 15 * time.Minute
	DefaultAppointmentLead  = 48 * time.Hour
)

// User types carried in auth claims
const (
	UserTypeSurvivor     = "survivor"
	UserTypeProfessional = "professional"
	UserTypeNGO          = "ngo"
	UserTypeAdmin        = "admin"
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrForbidden        = "forbidden"
	ErrValidationFailed = "validation failed"
)

// Event Types
const (
	EventReportSubmitted     = "report_submitted"
	EventReportMatched       = "report_matched"
	EventReportUnmatched     = "report_unmatched"
	EventMatchAccepted       = "match_accepted"
	EventMatchDeclined       = "match_declined"
	EventMatchExpired        = "match_expired"
	EventAppointmentCreated  = "appointment_created"
	EventAppointmentUpdated  = "appointment_updated"
	EventMatchingFailed      = "matching_failed"
	EventNotificationDropped = "notification_dropped"
)

// Realtime rooms and channels
const (
	MatchChannelPrefix  = "matches:service:"
	MatchChannelPattern = "matches:service:*"
	ReportLockPrefix    = "report:"
)

// Geographic Constants
const (
	EarthRadiusKM = 6371.0
)
