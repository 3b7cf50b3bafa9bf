package services

import "errors"

// Engine error taxonomy. Handlers map these onto HTTP statuses with errors.Is.
var (
	ErrValidation             = errors.New("validation failed")
	ErrReportNotFound         = errors.New("report not found")
	ErrServiceNotFound        = errors.New("support service not found")
	ErrMatchNotFound          = errors.New("match not found")
	ErrAppointmentNotFound    = errors.New("appointment not found")
	ErrCatalogUnavailable     = errors.New("service catalog unavailable")
	ErrMatchPersistenceFailed = errors.New("match persistence failed")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrForbidden              = errors.New("forbidden")
	ErrAppointmentConflict    = errors.New("appointment already exists for match")
	ErrLockUnavailable        = errors.New("report is being matched, try again later")
)
