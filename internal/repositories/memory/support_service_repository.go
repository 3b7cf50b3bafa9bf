package memory

import (
	"context"
	"sort"

	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type supportServiceRepository struct {
	store *Store
}

func NewSupportServiceRepository(store *Store) interfaces.SupportServiceRepository {
	return &supportServiceRepository{store: store}
}

func (r *supportServiceRepository) Create(ctx context.Context, service *models.SupportService) error {
	return r.store.run(ctx, func() error {
		if service.ID == "" {
			service.ID = uuid.NewString()
		}
		if _, exists := r.store.services[service.ID]; exists {
			return interfaces.ErrDuplicate
		}
		stamp(&service.CreatedAt, &service.UpdatedAt)
		r.store.services[service.ID] = cloneService(service)
		return nil
	})
}

func (r *supportServiceRepository) GetByID(ctx context.Context, id string) (*models.SupportService, error) {
	var out *models.SupportService
	err := r.store.run(ctx, func() error {
		service, ok := r.store.services[id]
		if !ok {
			return interfaces.ErrNotFound
		}
		out = cloneService(service)
		return nil
	})
	return out, err
}

func (r *supportServiceRepository) GetByOwner(ctx context.Context, userID string) ([]*models.SupportService, error) {
	return r.filter(ctx, func(s *models.SupportService) bool {
		return s.IsOwnedBy(userID)
	})
}

func (r *supportServiceRepository) FindByServiceTypes(ctx context.Context, serviceTypes []string) ([]*models.SupportService, error) {
	if len(serviceTypes) == 0 {
		return []*models.SupportService{}, nil
	}
	return r.filter(ctx, func(s *models.SupportService) bool {
		return len(lo.Intersect(s.ServiceTypes, serviceTypes)) > 0
	})
}

func (r *supportServiceRepository) filter(ctx context.Context, keep func(*models.SupportService) bool) ([]*models.SupportService, error) {
	var out []*models.SupportService
	err := r.store.run(ctx, func() error {
		selected := lo.Filter(lo.Values(r.store.services), func(s *models.SupportService, _ int) bool {
			return keep(s)
		})
		out = lo.Map(selected, func(s *models.SupportService, _ int) *models.SupportService {
			return cloneService(s)
		})
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}
