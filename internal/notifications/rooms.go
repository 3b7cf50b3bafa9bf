package notifications

import (
	"context"
	"fmt"

	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"
	"supportmatch/internal/utils"
	"supportmatch/pkg/websocket"

	"github.com/samber/lo"
)

// ServiceRoomResolver subscribes providers to the rooms of every service they
// own. Survivors only get their user room, which the hub adds itself.
func ServiceRoomResolver(serviceRepo interfaces.SupportServiceRepository) websocket.RoomResolver {
	return func(ctx context.Context, userID, userType string) ([]string, error) {
		if userType != utils.UserTypeProfessional && userType != utils.UserTypeNGO && userType != utils.UserTypeAdmin {
			return nil, nil
		}
		owned, err := serviceRepo.GetByOwner(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load owned services: %w", err)
		}
		return lo.Map(owned, func(s *models.SupportService, _ int) string {
			return websocket.ServiceRoom(s.ID)
		}), nil
	}
}
