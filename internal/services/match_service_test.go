package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"supportmatch/internal/models"
	"supportmatch/internal/utils"
)

// pendingMatch seeds one service and one report and runs matching.
func pendingMatch(t *testing.T, f *fixture, survivor string) *models.Match {
	t.Helper()
	f.addService(t, "svc-a", "prov-a", []string{"counseling"}, models.AvailabilityAvailable, nil, 0)
	report := f.addReport(t, survivor, []string{"counseling"}, models.UrgencyHigh)
	result, err := f.matcher().MatchReport(context.Background(), report.ID)
	if err != nil || len(result.Matches) != 1 {
		t.Fatalf("MatchReport() = %+v, %v", result, err)
	}
	f.publisher.reset()
	return result.Matches[0]
}

func TestAcceptProvisionsAppointment(t *testing.T) {
	f := newFixture(t)
	match := pendingMatch(t, f, "survivor-1")

	before := time.Now().UTC()
	accepted, appointment, err := f.matchService().Accept(context.Background(), match.ID, "prov-a", nil)
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	if accepted.MatchStatusType != models.MatchStatusAccepted || accepted.RespondedAt == nil {
		t.Errorf("accepted match = %+v", accepted)
	}
	if appointment.MatchID != match.ID || appointment.Status != models.AppointmentStatusScheduled {
		t.Errorf("appointment = %+v", appointment)
	}
	if appointment.ProfessionalID != "prov-a" {
		t.Errorf("ProfessionalID = %s, want prov-a", appointment.ProfessionalID)
	}
	if appointment.SurvivorID == nil || *appointment.SurvivorID != "survivor-1" {
		t.Errorf("SurvivorID = %v, want survivor-1", appointment.SurvivorID)
	}
	wantDate := before.Add(f.config.AppointmentDefaultLead)
	if d := appointment.AppointmentDate.Sub(wantDate); d < 0 || d > time.Minute {
		t.Errorf("AppointmentDate = %v, want about %v", appointment.AppointmentDate, wantDate)
	}

	stored, err := f.appointments.GetByMatchID(context.Background(), match.ID)
	if err != nil || stored.ID != appointment.ID {
		t.Errorf("GetByMatchID() = %+v, %v", stored, err)
	}
	if f.publisher.count(models.MatchEventUpdated) != 1 {
		t.Errorf("updated events = %d, want 1", f.publisher.count(models.MatchEventUpdated))
	}
}

func TestAcceptUsesRequestedDate(t *testing.T) {
	f := newFixture(t)
	match := pendingMatch(t, f, "")

	date := time.Date(2030, 3, 1, 9, 30, 0, 0, time.UTC)
	_, appointment, err := f.matchService().Accept(context.Background(), match.ID, "prov-a",
		&models.AcceptMatchRequest{AppointmentDate: &date, Notes: "ground floor"})
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if !appointment.AppointmentDate.Equal(date) || appointment.Notes != "ground floor" {
		t.Errorf("appointment = %+v", appointment)
	}
	if appointment.SurvivorID != nil {
		t.Errorf("anonymous report produced SurvivorID %v", *appointment.SurvivorID)
	}
}

func TestMatchStateMachine(t *testing.T) {
	ctx := context.Background()

	t.Run("accept twice", func(t *testing.T) {
		f := newFixture(t)
		match := pendingMatch(t, f, "")
		svc := f.matchService()
		if _, _, err := svc.Accept(ctx, match.ID, "prov-a", nil); err != nil {
			t.Fatalf("first Accept() error = %v", err)
		}
		if _, _, err := svc.Accept(ctx, match.ID, "prov-a", nil); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("second Accept() error = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("decline after accept", func(t *testing.T) {
		f := newFixture(t)
		match := pendingMatch(t, f, "")
		svc := f.matchService()
		if _, _, err := svc.Accept(ctx, match.ID, "prov-a", nil); err != nil {
			t.Fatalf("Accept() error = %v", err)
		}
		if _, err := svc.Decline(ctx, match.ID, "prov-a"); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("Decline() error = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("accept after decline", func(t *testing.T) {
		f := newFixture(t)
		match := pendingMatch(t, f, "")
		svc := f.matchService()
		declined, err := svc.Decline(ctx, match.ID, "prov-a")
		if err != nil {
			t.Fatalf("Decline() error = %v", err)
		}
		if declined.MatchStatusType != models.MatchStatusDeclined {
			t.Errorf("status = %s, want declined", declined.MatchStatusType)
		}
		if _, _, err := svc.Accept(ctx, match.ID, "prov-a", nil); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("Accept() error = %v, want ErrInvalidTransition", err)
		}
		if _, err := f.appointments.GetByMatchID(ctx, match.ID); err == nil {
			t.Error("declined match has an appointment")
		}
	})

	t.Run("accept expired", func(t *testing.T) {
		f := newFixture(t)
		match := pendingMatch(t, f, "")
		if _, err := f.matcher().MatchReport(ctx, match.ReportID); err != nil {
			t.Fatalf("rerun error = %v", err)
		}
		if _, _, err := f.matchService().Accept(ctx, match.ID, "prov-a", nil); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("Accept(expired) error = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("not the owner", func(t *testing.T) {
		f := newFixture(t)
		match := pendingMatch(t, f, "")
		if _, _, err := f.matchService().Accept(ctx, match.ID, "someone-else", nil); !errors.Is(err, ErrForbidden) {
			t.Fatalf("Accept() error = %v, want ErrForbidden", err)
		}
		if _, err := f.matchService().Decline(ctx, match.ID, "someone-else"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("Decline() error = %v, want ErrForbidden", err)
		}
		stored, _ := f.matches.GetByID(ctx, match.ID)
		if stored.MatchStatusType != models.MatchStatusPending {
			t.Errorf("status = %s, want pending", stored.MatchStatusType)
		}
	})

	t.Run("unknown match", func(t *testing.T) {
		f := newFixture(t)
		if _, _, err := f.matchService().Accept(ctx, "nope", "prov-a", nil); !errors.Is(err, ErrMatchNotFound) {
			t.Fatalf("Accept() error = %v, want ErrMatchNotFound", err)
		}
	})
}

func TestAcceptRollsBackWhenProvisioningFails(t *testing.T) {
	f := newFixture(t)
	match := pendingMatch(t, f, "")
	f.appointments = failingAppointmentRepo{f.appointments}

	if _, _, err := f.matchService().Accept(context.Background(), match.ID, "prov-a", nil); err == nil {
		t.Fatal("Accept() succeeded with a failing appointment store")
	}

	stored, err := f.matches.GetByID(context.Background(), match.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.MatchStatusType != models.MatchStatusPending || stored.RespondedAt != nil {
		t.Errorf("match left as %+v, want pending", stored)
	}
	if len(f.publisher.events) != 0 {
		t.Errorf("published %d events for a failed accept", len(f.publisher.events))
	}
}

func TestConcurrentAcceptSingleWinner(t *testing.T) {
	f := newFixture(t)
	match := pendingMatch(t, f, "survivor-1")
	svc := f.matchService()

	const callers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Accept(context.Background(), match.ID, "prov-a", nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrAppointmentConflict):
			default:
				t.Errorf("unexpected Accept() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("successes = %d, want 1", successes)
	}
	appointments, total, err := f.appointments.GetByParticipant(context.Background(), "prov-a", utils.DefaultPagination())
	if err != nil {
		t.Fatalf("GetByParticipant() error = %v", err)
	}
	if total != 1 || len(appointments) != 1 {
		t.Errorf("appointments = %d, want 1", total)
	}
}

func TestProvisionPreconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("pending match", func(t *testing.T) {
		f := newFixture(t)
		match := pendingMatch(t, f, "")
		if _, err := f.provisioner().Provision(ctx, match.ID, ProvisionOptions{}); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("Provision() error = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("second appointment", func(t *testing.T) {
		f := newFixture(t)
		match := pendingMatch(t, f, "")
		if _, _, err := f.matchService().Accept(ctx, match.ID, "prov-a", nil); err != nil {
			t.Fatalf("Accept() error = %v", err)
		}
		if _, err := f.provisioner().Provision(ctx, match.ID, ProvisionOptions{}); !errors.Is(err, ErrAppointmentConflict) {
			t.Fatalf("Provision() error = %v, want ErrAppointmentConflict", err)
		}
	})

	t.Run("missing match", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.provisioner().Provision(ctx, "nope", ProvisionOptions{}); !errors.Is(err, ErrMatchNotFound) {
			t.Fatalf("Provision() error = %v, want ErrMatchNotFound", err)
		}
	})
}

func TestGetMatchAccess(t *testing.T) {
	f := newFixture(t)
	match := pendingMatch(t, f, "survivor-1")
	svc := f.matchService()
	ctx := context.Background()

	for _, user := range []string{"prov-a", "survivor-1"} {
		if _, err := svc.GetMatch(ctx, match.ID, user); err != nil {
			t.Errorf("GetMatch(%s) error = %v", user, err)
		}
	}
	if _, err := svc.GetMatch(ctx, match.ID, "stranger"); !errors.Is(err, ErrForbidden) {
		t.Errorf("GetMatch(stranger) error = %v, want ErrForbidden", err)
	}
}

func TestListForProvider(t *testing.T) {
	f := newFixture(t)
	match := pendingMatch(t, f, "")
	f.addService(t, "svc-other", "prov-b", []string{"counseling"}, models.AvailabilityAvailable, nil, 0)
	svc := f.matchService()
	ctx := context.Background()

	list, total, err := svc.ListForProvider(ctx, "prov-a", "", utils.DefaultPagination())
	if err != nil {
		t.Fatalf("ListForProvider() error = %v", err)
	}
	if total != 1 || list[0].ID != match.ID {
		t.Errorf("list = %+v (total %d)", list, total)
	}

	_, total, err = svc.ListForProvider(ctx, "prov-a", models.MatchStatusAccepted, utils.DefaultPagination())
	if err != nil || total != 0 {
		t.Errorf("accepted filter = %d, %v; want 0", total, err)
	}

	if _, _, err := svc.ListForProvider(ctx, "prov-a", "bogus", nil); !errors.Is(err, ErrValidation) {
		t.Errorf("bogus status error = %v, want ErrValidation", err)
	}

	list, total, err = svc.ListForProvider(ctx, "nobody", "", nil)
	if err != nil || total != 0 || len(list) != 0 {
		t.Errorf("provider without services = %v, %d, %v", list, total, err)
	}
}

func TestDeclineUpdatesReportState(t *testing.T) {
	ctx := context.Background()

	t.Run("last live match", func(t *testing.T) {
		f := newFixture(t)
		match := pendingMatch(t, f, "survivor-1")
		if _, err := f.matchService().Decline(ctx, match.ID, "prov-a"); err != nil {
			t.Fatalf("Decline() error = %v", err)
		}
		stored := f.getReport(t, match.ReportID)
		if stored.IsMatched || stored.MatchStatus != models.ReportMatchStatusUnmatched {
			t.Errorf("report state = (%v, %s), want (false, unmatched)", stored.IsMatched, stored.MatchStatus)
		}
	})

	t.Run("other match still pending", func(t *testing.T) {
		f := newFixture(t)
		f.addService(t, "svc-a", "prov-a", []string{"counseling"}, models.AvailabilityAvailable, nil, 0)
		f.addService(t, "svc-b", "prov-b", []string{"counseling"}, models.AvailabilityAvailable, nil, 0)
		report := f.addReport(t, "", []string{"counseling"}, models.UrgencyMedium)
		result, err := f.matcher().MatchReport(ctx, report.ID)
		if err != nil || len(result.Matches) != 2 {
			t.Fatalf("MatchReport() = %+v, %v", result, err)
		}

		first := result.Matches[0]
		if _, err := f.matchService().Decline(ctx, first.ID, first.ProviderID); err != nil {
			t.Fatalf("Decline() error = %v", err)
		}
		stored := f.getReport(t, report.ID)
		if !stored.IsMatched || stored.MatchStatus != models.ReportMatchStatusMatched {
			t.Errorf("report state = (%v, %s), want (true, matched)", stored.IsMatched, stored.MatchStatus)
		}
	})
}

func TestAcceptBumpsReportVersion(t *testing.T) {
	f := newFixture(t)
	match := pendingMatch(t, f, "")
	before := f.getReport(t, match.ReportID).MatchVersion

	if _, _, err := f.matchService().Accept(context.Background(), match.ID, "prov-a", nil); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	stored := f.getReport(t, match.ReportID)
	if stored.MatchVersion != before+1 {
		t.Errorf("MatchVersion = %d, want %d", stored.MatchVersion, before+1)
	}
	if !stored.IsMatched || stored.MatchStatus != models.ReportMatchStatusMatched {
		t.Errorf("report state = (%v, %s), want (true, matched)", stored.IsMatched, stored.MatchStatus)
	}
}
