package postgres

import (
	"context"
	"fmt"
	"time"

	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"
	"supportmatch/internal/utils"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type matchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) interfaces.MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) CreateMany(ctx context.Context, matches []*models.Match) error {
	if len(matches) == 0 {
		return nil
	}

	now := time.Now().UTC()
	recs := lo.Map(matches, func(m *models.Match, _ int) *matchRecord {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.MatchStatusType == "" {
			m.MatchStatusType = models.MatchStatusPending
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		m.UpdatedAt = now
		return newMatchRecord(m)
	})

	if err := conn(ctx, r.db).Omit(clause.Associations).Create(&recs).Error; err != nil {
		return translateError("failed to create matches", err)
	}
	return nil
}

func (r *matchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	var rec matchRecord
	if err := conn(ctx, r.db).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, translateError("failed to get match", err)
	}
	return rec.toModel(), nil
}

func (r *matchRepository) GetByReport(ctx context.Context, reportID string) ([]*models.Match, error) {
	return r.find(conn(ctx, r.db).Where("report_id = ?", reportID).Order("match_score desc").Order("id"))
}

func (r *matchRepository) List(ctx context.Context, filter interfaces.MatchFilter, params *utils.PaginationParams) ([]*models.Match, int64, error) {
	if params == nil {
		params = utils.DefaultPagination()
	}
	if len(filter.ServiceIDs) == 0 {
		return []*models.Match{}, 0, nil
	}

	query := conn(ctx, r.db).Model(&matchRecord{}).Where("service_id IN ?", filter.ServiceIDs)
	if filter.Status != "" {
		query = query.Where("match_status_type = ?", string(filter.Status))
	}
	// Count and Find each need their own statement.
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count matches: %w", err)
	}

	matches, err := r.find(query.Order(orderBy(params, "created_at", "updated_at", "match_score")).Order("id").Offset(params.GetSkip()).Limit(params.GetLimit()))
	if err != nil {
		return nil, 0, err
	}
	return matches, total, nil
}

func (r *matchRepository) ExpireActiveByReport(ctx context.Context, reportID string, at time.Time) ([]*models.Match, error) {
	var recs []matchRecord
	err := conn(ctx, r.db).Model(&recs).
		Clauses(clause.Returning{}).
		Where("report_id = ? AND match_status_type = ?", reportID, string(models.MatchStatusPending)).
		Updates(map[string]interface{}{
			"match_status_type": string(models.MatchStatusExpired),
			"updated_at":        at,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to expire matches: %w", err)
	}

	expired := make([]*models.Match, 0, len(recs))
	for i := range recs {
		expired = append(expired, recs[i].toModel())
	}
	return expired, nil
}

func (r *matchRepository) TransitionStatus(ctx context.Context, id string, from, to models.MatchStatusType, at time.Time) (*models.Match, error) {
	updates := map[string]interface{}{
		"match_status_type": string(to),
		"updated_at":        at,
	}
	if to == models.MatchStatusAccepted || to == models.MatchStatusDeclined {
		updates["responded_at"] = at
	}

	db := conn(ctx, r.db)
	var recs []matchRecord
	result := db.Model(&recs).
		Clauses(clause.Returning{}).
		Where("id = ? AND match_status_type = ?", id, string(from)).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to transition match: %w", result.Error)
	}
	if result.RowsAffected == 0 || len(recs) == 0 {
		return nil, conflictOrNotFound(db, &matchRecord{}, id)
	}
	return recs[0].toModel(), nil
}

func (r *matchRepository) GetStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*models.Match, error) {
	query := conn(ctx, r.db).
		Where("match_status_type = ? AND created_at < ?", string(models.MatchStatusPending), cutoff).
		Order("created_at").Order("id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	return r.find(query)
}

func (r *matchRepository) find(query *gorm.DB) ([]*models.Match, error) {
	var recs []matchRecord
	if err := query.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to find matches: %w", err)
	}

	matches := make([]*models.Match, 0, len(recs))
	for i := range recs {
		matches = append(matches, recs[i].toModel())
	}
	return matches, nil
}
