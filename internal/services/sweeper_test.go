package services

import (
	"context"
	"testing"
	"time"

	"supportmatch/internal/models"
)

func newSweeper(f *fixture, now time.Time) *PendingSweeper {
	s := NewPendingSweeper(f.config, f.reports, f.matches, f.store, f.locker, f.publisher, f.log)
	s.now = func() time.Time { return now }
	return s
}

func TestSweeperDisabledByDefault(t *testing.T) {
	f := newFixture(t)
	if newSweeper(f, time.Now()).Enabled() {
		t.Fatal("sweeper enabled without a pending TTL")
	}
}

func TestSweepExpiresStaleMatches(t *testing.T) {
	f := newFixture(t)
	f.config.PendingTTL = time.Hour
	f.addService(t, "svc-a", "prov-a", []string{"counseling"}, models.AvailabilityAvailable, nil, 0)
	f.addService(t, "svc-b", "prov-b", []string{"counseling"}, models.AvailabilityAvailable, nil, 0)
	report := f.addReport(t, "", []string{"counseling"}, models.UrgencyLow)
	ctx := context.Background()

	if _, err := f.matcher().MatchReport(ctx, report.ID); err != nil {
		t.Fatalf("MatchReport() error = %v", err)
	}
	f.publisher.reset()

	// Nothing is stale yet.
	if n, err := newSweeper(f, time.Now().UTC()).SweepOnce(ctx); err != nil || n != 0 {
		t.Fatalf("early SweepOnce() = %d, %v; want 0", n, err)
	}

	n, err := newSweeper(f, time.Now().UTC().Add(2*time.Hour)).SweepOnce(ctx)
	if err != nil {
		t.Fatalf("SweepOnce() error = %v", err)
	}
	if n != 2 {
		t.Errorf("expired = %d, want 2", n)
	}
	if got := f.publisher.count(models.MatchEventUpdated); got != 2 {
		t.Errorf("updated events = %d, want 2", got)
	}

	stored := f.getReport(t, report.ID)
	if stored.IsMatched || stored.MatchStatus != models.ReportMatchStatusUnmatched {
		t.Errorf("report = (%v, %s), want unmatched", stored.IsMatched, stored.MatchStatus)
	}
}

func TestSweepKeepsReportWithAcceptedMatch(t *testing.T) {
	f := newFixture(t)
	f.config.PendingTTL = time.Hour
	f.addService(t, "svc-a", "prov-a", []string{"counseling"}, models.AvailabilityAvailable, nil, 0)
	f.addService(t, "svc-b", "prov-b", []string{"counseling"}, models.AvailabilityAvailable, nil, 0)
	report := f.addReport(t, "", []string{"counseling"}, models.UrgencyLow)
	ctx := context.Background()

	result, err := f.matcher().MatchReport(ctx, report.ID)
	if err != nil {
		t.Fatalf("MatchReport() error = %v", err)
	}
	if _, _, err := f.matchService().Accept(ctx, result.Matches[0].ID, result.Matches[0].ProviderID, nil); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	n, err := newSweeper(f, time.Now().UTC().Add(2*time.Hour)).SweepOnce(ctx)
	if err != nil || n != 1 {
		t.Fatalf("SweepOnce() = %d, %v; want 1", n, err)
	}
	if stored := f.getReport(t, report.ID); stored.MatchStatus != models.ReportMatchStatusMatched {
		t.Errorf("MatchStatus = %s, want matched", stored.MatchStatus)
	}
}

func TestSweeperRunStopsWithContext(t *testing.T) {
	f := newFixture(t)
	f.config.PendingTTL = time.Hour
	f.config.SweepInterval = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		newSweeper(f, time.Now()).Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
