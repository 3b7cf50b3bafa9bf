package services

import (
	"context"

	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"

	"github.com/samber/lo"
)

// liveMatch reports whether m still holds a provider's attention.
func liveMatch(m *models.Match) bool {
	return m.MatchStatusType == models.MatchStatusPending || m.MatchStatusType == models.MatchStatusAccepted
}

// syncReportState recomputes the report's matched flag from its current
// matches and writes it with a version bump. Must run inside the caller's
// transaction so the bump fences off any ranking pass that read the report
// before this change.
func syncReportState(ctx context.Context, reportRepo interfaces.ReportRepository, matchRepo interfaces.MatchRepository, reportID string) error {
	matches, err := matchRepo.GetByReport(ctx, reportID)
	if err != nil {
		return err
	}
	report, err := reportRepo.GetByID(ctx, reportID)
	if err != nil {
		return err
	}

	live := lo.ContainsBy(matches, liveMatch)
	status := models.ReportMatchStatusUnmatched
	if live {
		status = models.ReportMatchStatusMatched
	}
	return reportRepo.UpdateMatchState(ctx, reportID, report.MatchVersion, live, status)
}
