package memory

import (
	"context"
	"time"

	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"
	"supportmatch/internal/utils"

	"github.com/google/uuid"
)

type appointmentRepository struct {
	store *Store
}

func NewAppointmentRepository(store *Store) interfaces.AppointmentRepository {
	return &appointmentRepository{store: store}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	return r.store.run(ctx, func() error {
		for _, existing := range r.store.appointments {
			if existing.MatchID == appointment.MatchID {
				return interfaces.ErrDuplicate
			}
		}
		if appointment.ID == "" {
			appointment.ID = uuid.NewString()
		}
		if _, exists := r.store.appointments[appointment.ID]; exists {
			return interfaces.ErrDuplicate
		}
		stamp(&appointment.CreatedAt, &appointment.UpdatedAt)
		r.store.appointments[appointment.ID] = cloneAppointment(appointment)
		return nil
	})
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	var out *models.Appointment
	err := r.store.run(ctx, func() error {
		a, ok := r.store.appointments[id]
		if !ok {
			return interfaces.ErrNotFound
		}
		out = cloneAppointment(a)
		return nil
	})
	return out, err
}

func (r *appointmentRepository) GetByMatchID(ctx context.Context, matchID string) (*models.Appointment, error) {
	var out *models.Appointment
	err := r.store.run(ctx, func() error {
		for _, a := range r.store.appointments {
			if a.MatchID == matchID {
				out = cloneAppointment(a)
				return nil
			}
		}
		return interfaces.ErrNotFound
	})
	return out, err
}

func (r *appointmentRepository) GetByParticipant(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Appointment, int64, error) {
	var (
		out   []*models.Appointment
		total int64
	)
	err := r.store.run(ctx, func() error {
		var items []*models.Appointment
		for _, a := range r.store.appointments {
			if a.HasParticipant(userID) {
				items = append(items, cloneAppointment(a))
			}
		}
		out, total = paginate(items, params, appointmentSortKey, func(a *models.Appointment) string { return a.ID })
		return nil
	})
	return out, total, err
}

func (r *appointmentRepository) TransitionStatus(ctx context.Context, id string, from, to models.AppointmentStatus, at time.Time) (*models.Appointment, error) {
	var out *models.Appointment
	err := r.store.run(ctx, func() error {
		current, ok := r.store.appointments[id]
		if !ok {
			return interfaces.ErrNotFound
		}
		if current.Status != from {
			return interfaces.ErrConflict
		}
		updated := cloneAppointment(current)
		updated.Status = to
		updated.UpdatedAt = at
		r.store.appointments[id] = updated
		out = cloneAppointment(updated)
		return nil
	})
	return out, err
}

func appointmentSortKey(a *models.Appointment, column string) float64 {
	switch column {
	case "appointment_date":
		return timeKey(a.AppointmentDate)
	case "updated_at":
		return timeKey(a.UpdatedAt)
	default:
		return timeKey(a.CreatedAt)
	}
}
