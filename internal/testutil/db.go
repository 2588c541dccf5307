// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"cleanops/internal/database"
	"cleanops/internal/models"
	"cleanops/internal/repositories"
	"cleanops/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB opens a private in-memory SQLite database with every table migrated.
// The pool holds a single connection so concurrent transactions serialise.
func NewDB(t *testing.T) database.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gormDB, err := gorm.Open(sqlite.Open(dsn), database.GormConfig())
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db := database.NewWithGorm(gormDB)
	require.NoError(t, db.MigrateModels())

	return db
}

// Fixture is a location with one room and a staffed roster.
type Fixture struct {
	Location   models.Location
	Room       models.Room
	Admin      models.User
	Manager    models.User
	Supervisor models.User
	Inspector  models.User
	Cleaner    models.User
	Cleaner2   models.User
}

func Seed(t *testing.T, db database.DB) Fixture {
	t.Helper()

	directory := repositories.NewDirectoryRepository()
	ctx := context.Background()

	f := Fixture{Location: models.Location{Name: "North Plant"}}
	require.NoError(t, directory.CreateLocation(ctx, db.SQL, &f.Location))

	f.Room = models.Room{
		LocationID: f.Location.ID,
		Name:       "Line 1",
		Details: []models.RoomDetail{
			{Name: "Conveyor"},
			{Name: "Floor"},
		},
	}
	require.NoError(t, directory.CreateRoom(ctx, db.SQL, &f.Room))

	f.Admin = CreateUser(t, db, "Ada", types.RoleAdmin)
	f.Manager = CreateUser(t, db, "Mona", types.RoleManager)
	f.Supervisor = CreateUser(t, db, "Sam", types.RoleSupervisor)
	f.Inspector = CreateUser(t, db, "Ivy", types.RoleInspector)
	f.Cleaner = CreateUser(t, db, "Cal", types.RoleCleaner)
	f.Cleaner2 = CreateUser(t, db, "Cleo", types.RoleCleaner)

	return f
}

func CreateUser(t *testing.T, db database.DB, name string, role types.Role) models.User {
	t.Helper()

	user := models.User{FirstName: name, Role: role}
	err := repositories.NewDirectoryRepository().CreateUser(context.Background(), db.SQL, &user)
	require.NoError(t, err)
	return user
}

func CreateItem(t *testing.T, db database.DB, name string, quantity string) models.CleaningItem {
	t.Helper()

	item := models.CleaningItem{Name: name, Quantity: decimal.RequireFromString(quantity)}
	require.NoError(t, db.SQL.Create(&item).Error)
	return item
}

// Quantity reads the stored stock level of an item.
func Quantity(t *testing.T, db database.DB, itemID uuid.UUID) decimal.Decimal {
	t.Helper()

	var item models.CleaningItem
	require.NoError(t, db.SQL.First(&item, "id = ?", itemID).Error)
	return item.Quantity
}

func ActorFor(user models.User) types.Actor {
	return types.Actor{ID: user.ID, Role: user.Role}
}

// Notifications records notifications instead of delivering them.
type Notifications struct {
	mu   sync.Mutex
	sent []types.Notification
}

func (n *Notifications) Notify(_ context.Context, notification types.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
}

func (n *Notifications) Sent() []types.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]types.Notification(nil), n.sent...)
}

func (n *Notifications) For(recipient uuid.UUID) []types.Notification {
	var out []types.Notification
	for _, notification := range n.Sent() {
		if notification.RecipientID == recipient {
			out = append(out, notification)
		}
	}
	return out
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now.UTC()}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
