package notifications

import (
	"context"
	"testing"

	"supportmatch/internal/models"
	"supportmatch/internal/repositories/memory"
	"supportmatch/internal/utils"
)

func TestServiceRoomResolver(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSupportServiceRepository(memory.NewStore())
	for _, s := range []*models.SupportService{
		{ID: "svc-a", UserID: "ngo-1", Name: "A", ServiceTypes: []string{"counseling"}},
		{ID: "svc-b", UserID: "ngo-1", Name: "B", ServiceTypes: []string{"shelter"}},
		{ID: "svc-c", UserID: "ngo-2", Name: "C", ServiceTypes: []string{"shelter"}},
	} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create(%s) error = %v", s.ID, err)
		}
	}

	resolve := ServiceRoomResolver(repo)

	rooms, err := resolve(ctx, "ngo-1", utils.UserTypeNGO)
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if len(rooms) != 2 || rooms[0] != "service_svc-a" || rooms[1] != "service_svc-b" {
		t.Errorf("rooms = %v, want [service_svc-a service_svc-b]", rooms)
	}

	rooms, err = resolve(ctx, "ngo-2", utils.UserTypeSurvivor)
	if err != nil || len(rooms) != 0 {
		t.Errorf("survivor rooms = %v, %v; want none", rooms, err)
	}
}
