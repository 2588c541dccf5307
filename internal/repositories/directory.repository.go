package repositories

import (
	"context"
	"errors"

	. "cleanops/internal/models"
	"cleanops/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DirectoryRepository reads people and places. Writes exist for seeding only.
type DirectoryRepository interface {
	GetUser(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error)
	GetUsers(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*User, error)
	GetLocation(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Location, error)
	GetRoom(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Room, error)
	CreateUser(ctx context.Context, tx *gorm.DB, user *User) error
	CreateLocation(ctx context.Context, tx *gorm.DB, location *Location) error
	CreateRoom(ctx context.Context, tx *gorm.DB, room *Room) error
}

type directoryRepository struct{}

func NewDirectoryRepository() DirectoryRepository {
	return &directoryRepository{}
}

func (r *directoryRepository) GetUser(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*User, error) {
	log := logger.New("directoryRepository").TraceFromContext(ctx).Function("GetUser")

	user, err := gorm.G[*User](tx).Where("id = ?", id).First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("user", id)
		}
		return nil, log.Err("failed to get user", err, "userID", id)
	}

	return user, nil
}

func (r *directoryRepository) GetUsers(
	ctx context.Context,
	tx *gorm.DB,
	ids []uuid.UUID,
) ([]*User, error) {
	log := logger.New("directoryRepository").TraceFromContext(ctx).Function("GetUsers")

	if len(ids) == 0 {
		return []*User{}, nil
	}

	users, err := gorm.G[*User](tx).Where("id IN ?", ids).Find(ctx)
	if err != nil {
		return nil, log.Err("failed to get users", err, "count", len(ids))
	}

	return users, nil
}

func (r *directoryRepository) GetLocation(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Location, error) {
	log := logger.New("directoryRepository").TraceFromContext(ctx).Function("GetLocation")

	location, err := gorm.G[*Location](tx).Where("id = ?", id).First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("location", id)
		}
		return nil, log.Err("failed to get location", err, "locationID", id)
	}

	return location, nil
}

func (r *directoryRepository) GetRoom(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Room, error) {
	log := logger.New("directoryRepository").TraceFromContext(ctx).Function("GetRoom")

	room, err := gorm.G[*Room](tx).
		Preload("Details", nil).
		Where("id = ?", id).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("room", id)
		}
		return nil, log.Err("failed to get room", err, "roomID", id)
	}

	return room, nil
}

func (r *directoryRepository) CreateUser(ctx context.Context, tx *gorm.DB, user *User) error {
	log := logger.New("directoryRepository").TraceFromContext(ctx).Function("CreateUser")

	if err := gorm.G[User](tx).Create(ctx, user); err != nil {
		return log.Err("failed to create user", err, "role", user.Role)
	}

	return nil
}

func (r *directoryRepository) CreateLocation(
	ctx context.Context,
	tx *gorm.DB,
	location *Location,
) error {
	log := logger.New("directoryRepository").TraceFromContext(ctx).Function("CreateLocation")

	if err := gorm.G[Location](tx).Create(ctx, location); err != nil {
		return log.Err("failed to create location", err, "name", location.Name)
	}

	return nil
}

// CreateRoom inserts the room together with its detail catalogue.
func (r *directoryRepository) CreateRoom(ctx context.Context, tx *gorm.DB, room *Room) error {
	log := logger.New("directoryRepository").TraceFromContext(ctx).Function("CreateRoom")

	if err := gorm.G[Room](tx).Create(ctx, room); err != nil {
		return log.Err("failed to create room", err, "name", room.Name)
	}

	return nil
}
