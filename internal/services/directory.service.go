package services

import (
	"context"

	"cleanops/internal/models"
	"cleanops/internal/repositories"
	"cleanops/internal/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DirectoryService answers the staffing checks shared by task and work order
// creation.
type DirectoryService struct {
	directory repositories.DirectoryRepository
}

func NewDirectoryService(directory repositories.DirectoryRepository) *DirectoryService {
	return &DirectoryService{directory: directory}
}

// RequireWorkers checks that every id is an active user holding role. field
// names the request field reported on a validation failure.
func (s *DirectoryService) RequireWorkers(
	ctx context.Context,
	tx *gorm.DB,
	field string,
	ids []uuid.UUID,
	role types.Role,
) error {
	users, err := s.directory.GetUsers(ctx, tx, ids)
	if err != nil {
		return err
	}

	byID := make(map[uuid.UUID]*models.User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}

	for _, id := range ids {
		user, ok := byID[id]
		if !ok {
			return types.NotFound(string(role), id)
		}
		if user.Role != role {
			return types.Validation(field, "%s is not a %s", user.FullName(), role)
		}
		if !user.IsActive() {
			return types.Validation(field, "%s %s is no longer active", role, user.FullName())
		}
	}

	return nil
}

// RequireRooms checks that every room exists and belongs to the location.
func (s *DirectoryService) RequireRooms(
	ctx context.Context,
	tx *gorm.DB,
	field string,
	locationID uuid.UUID,
	ids []uuid.UUID,
) ([]*models.Room, error) {
	rooms := make([]*models.Room, 0, len(ids))
	for _, id := range ids {
		room, err := s.directory.GetRoom(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if room.LocationID != locationID {
			return nil, types.Validation(field, "room %s does not belong to location %s", room.Name, locationID)
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}
