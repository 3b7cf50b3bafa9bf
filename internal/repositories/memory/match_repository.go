package memory

import (
	"context"
	"sort"
	"time"

	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"
	"supportmatch/internal/utils"

	"github.com/google/uuid"
)

type matchRepository struct {
	store *Store
}

func NewMatchRepository(store *Store) interfaces.MatchRepository {
	return &matchRepository{store: store}
}

func pairKey(reportID, serviceID string) string {
	return reportID + "|" + serviceID
}

// CreateMany is all-or-nothing on its own: every match is checked against the
// active-pair constraint before any is stored.
func (r *matchRepository) CreateMany(ctx context.Context, matches []*models.Match) error {
	return r.store.run(ctx, func() error {
		active := make(map[string]bool)
		for _, m := range r.store.matches {
			if m.MatchStatusType == models.MatchStatusPending {
				active[pairKey(m.ReportID, m.ServiceID)] = true
			}
		}

		for _, m := range matches {
			if m.ID == "" {
				m.ID = uuid.NewString()
			}
			if _, exists := r.store.matches[m.ID]; exists {
				return interfaces.ErrDuplicate
			}
			if m.MatchStatusType == "" {
				m.MatchStatusType = models.MatchStatusPending
			}
			if m.MatchStatusType == models.MatchStatusPending {
				key := pairKey(m.ReportID, m.ServiceID)
				if active[key] {
					return interfaces.ErrDuplicate
				}
				active[key] = true
			}
		}

		for _, m := range matches {
			stamp(&m.CreatedAt, &m.UpdatedAt)
			r.store.matches[m.ID] = cloneMatch(m)
		}
		return nil
	})
}

func (r *matchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	var out *models.Match
	err := r.store.run(ctx, func() error {
		m, ok := r.store.matches[id]
		if !ok {
			return interfaces.ErrNotFound
		}
		out = cloneMatch(m)
		return nil
	})
	return out, err
}

func (r *matchRepository) GetByReport(ctx context.Context, reportID string) ([]*models.Match, error) {
	var out []*models.Match
	err := r.store.run(ctx, func() error {
		for _, m := range r.store.matches {
			if m.ReportID == reportID {
				out = append(out, cloneMatch(m))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchScore != out[j].MatchScore {
			return out[i].MatchScore > out[j].MatchScore
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *matchRepository) List(ctx context.Context, filter interfaces.MatchFilter, params *utils.PaginationParams) ([]*models.Match, int64, error) {
	services := make(map[string]bool, len(filter.ServiceIDs))
	for _, id := range filter.ServiceIDs {
		services[id] = true
	}

	var (
		out   []*models.Match
		total int64
	)
	err := r.store.run(ctx, func() error {
		var items []*models.Match
		for _, m := range r.store.matches {
			if !services[m.ServiceID] {
				continue
			}
			if filter.Status != "" && m.MatchStatusType != filter.Status {
				continue
			}
			items = append(items, cloneMatch(m))
		}
		out, total = paginate(items, params, matchSortKey, func(m *models.Match) string { return m.ID })
		return nil
	})
	return out, total, err
}

func (r *matchRepository) ExpireActiveByReport(ctx context.Context, reportID string, at time.Time) ([]*models.Match, error) {
	var expired []*models.Match
	err := r.store.run(ctx, func() error {
		for id, m := range r.store.matches {
			if m.ReportID != reportID || m.MatchStatusType != models.MatchStatusPending {
				continue
			}
			updated := cloneMatch(m)
			updated.MatchStatusType = models.MatchStatusExpired
			updated.UpdatedAt = at
			r.store.matches[id] = updated
			expired = append(expired, cloneMatch(updated))
		}
		return nil
	})
	sort.Slice(expired, func(i, j int) bool { return expired[i].ID < expired[j].ID })
	return expired, err
}

func (r *matchRepository) TransitionStatus(ctx context.Context, id string, from, to models.MatchStatusType, at time.Time) (*models.Match, error) {
	var out *models.Match
	err := r.store.run(ctx, func() error {
		current, ok := r.store.matches[id]
		if !ok {
			return interfaces.ErrNotFound
		}
		if current.MatchStatusType != from {
			return interfaces.ErrConflict
		}

		updated := cloneMatch(current)
		updated.MatchStatusType = to
		updated.UpdatedAt = at
		if to == models.MatchStatusAccepted || to == models.MatchStatusDeclined {
			responded := at
			updated.RespondedAt = &responded
		}
		r.store.matches[id] = updated
		out = cloneMatch(updated)
		return nil
	})
	return out, err
}

func (r *matchRepository) GetStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*models.Match, error) {
	var out []*models.Match
	err := r.store.run(ctx, func() error {
		for _, m := range r.store.matches {
			if m.MatchStatusType == models.MatchStatusPending && m.CreatedAt.Before(cutoff) {
				out = append(out, cloneMatch(m))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func matchSortKey(m *models.Match, column string) float64 {
	switch column {
	case "match_score":
		return m.MatchScore
	case "updated_at":
		return timeKey(m.UpdatedAt)
	default:
		return timeKey(m.CreatedAt)
	}
}
