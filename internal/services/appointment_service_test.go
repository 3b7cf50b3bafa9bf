package services

import (
	"context"
	"errors"
	"testing"

	"supportmatch/internal/models"
)

func acceptedAppointment(t *testing.T, f *fixture) *models.Appointment {
	t.Helper()
	match := pendingMatch(t, f, "survivor-1")
	_, appointment, err := f.matchService().Accept(context.Background(), match.ID, "prov-a", nil)
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	return appointment
}

func TestAppointmentStatusTransitions(t *testing.T) {
	f := newFixture(t)
	appointment := acceptedAppointment(t, f)
	svc := NewAppointmentService(f.appointments, f.log)
	ctx := context.Background()

	if _, err := svc.UpdateStatus(ctx, appointment.ID, "stranger", models.AppointmentStatusCompleted); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger UpdateStatus() error = %v, want ErrForbidden", err)
	}
	if _, err := svc.UpdateStatus(ctx, appointment.ID, "prov-a", models.AppointmentStatusScheduled); !errors.Is(err, ErrValidation) {
		t.Fatalf("UpdateStatus(scheduled) error = %v, want ErrValidation", err)
	}

	updated, err := svc.UpdateStatus(ctx, appointment.ID, "survivor-1", models.AppointmentStatusCancelled)
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if updated.Status != models.AppointmentStatusCancelled {
		t.Errorf("Status = %s, want cancelled", updated.Status)
	}

	if _, err := svc.UpdateStatus(ctx, appointment.ID, "prov-a", models.AppointmentStatusCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("UpdateStatus(terminal) error = %v, want ErrInvalidTransition", err)
	}
}

func TestAppointmentVisibility(t *testing.T) {
	f := newFixture(t)
	appointment := acceptedAppointment(t, f)
	svc := NewAppointmentService(f.appointments, f.log)
	ctx := context.Background()

	for _, user := range []string{"prov-a", "survivor-1"} {
		list, total, err := svc.ListForParticipant(ctx, user, nil)
		if err != nil || total != 1 || list[0].ID != appointment.ID {
			t.Errorf("ListForParticipant(%s) = %v, %d, %v", user, list, total, err)
		}
		if _, err := svc.GetAppointment(ctx, appointment.ID, user); err != nil {
			t.Errorf("GetAppointment(%s) error = %v", user, err)
		}
	}
	if _, err := svc.GetAppointment(ctx, appointment.ID, "stranger"); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger GetAppointment() error = %v, want ErrForbidden", err)
	}
	if _, err := svc.GetAppointment(ctx, "missing", "prov-a"); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("GetAppointment(missing) error = %v, want ErrAppointmentNotFound", err)
	}
}
