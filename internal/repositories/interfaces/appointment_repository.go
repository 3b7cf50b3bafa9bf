package interfaces

import (
	"context"
	"time"

	"supportmatch/internal/models"
	"supportmatch/internal/utils"
)

type AppointmentRepository interface {
	// Create yields ErrDuplicate if an appointment already exists for the match.
	Create(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	GetByMatchID(ctx context.Context, matchID string) (*models.Appointment, error)
	GetByParticipant(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Appointment, int64, error)
	TransitionStatus(ctx context.Context, id string, from, to models.AppointmentStatus, at time.Time) (*models.Appointment, error)
}
