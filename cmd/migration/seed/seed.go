// Package seed loads the directory and inventory catalogue used by local and
// staging environments.
package seed

import (
	"fmt"
	"os"
	"strings"

	"cleanops/config"
	"cleanops/internal/models"
	"cleanops/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type Catalogue struct {
	Locations []LocationEntry `yaml:"locations"`
	Users     []UserEntry     `yaml:"users"`
	Items     []ItemEntry     `yaml:"items"`
}

type LocationEntry struct {
	Name  string      `yaml:"name"`
	Rooms []RoomEntry `yaml:"rooms"`
}

type RoomEntry struct {
	Name    string   `yaml:"name"`
	Details []string `yaml:"details"`
}

type UserEntry struct {
	FirstName string     `yaml:"firstName"`
	LastName  string     `yaml:"lastName"`
	Email     string     `yaml:"email"`
	Role      types.Role `yaml:"role"`
}

type ItemEntry struct {
	Name     string                  `yaml:"name"`
	Quantity string                  `yaml:"quantity"`
	Unit     string                  `yaml:"unit"`
	Kind     models.CleaningItemKind `yaml:"kind"`
}

func Load(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalogue, error) {
	var catalogue Catalogue
	if err := yaml.Unmarshal(data, &catalogue); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	if err := catalogue.validate(); err != nil {
		return nil, err
	}
	return &catalogue, nil
}

func (c *Catalogue) validate() error {
	for _, location := range c.Locations {
		if strings.TrimSpace(location.Name) == "" {
			return fmt.Errorf("location name is required")
		}
		for _, room := range location.Rooms {
			if strings.TrimSpace(room.Name) == "" {
				return fmt.Errorf("room name is required in %s", location.Name)
			}
		}
	}
	for _, user := range c.Users {
		if strings.TrimSpace(user.FirstName) == "" {
			return fmt.Errorf("user first name is required")
		}
		if !user.Role.Valid() {
			return fmt.Errorf("user %s has unknown role %q", user.FirstName, user.Role)
		}
	}
	for _, item := range c.Items {
		quantity, err := decimal.NewFromString(item.Quantity)
		if err != nil {
			return fmt.Errorf("item %s has invalid quantity %q", item.Name, item.Quantity)
		}
		if quantity.IsNegative() {
			return fmt.Errorf("item %s has negative quantity", item.Name)
		}
		if item.Kind != "" && !item.Kind.Valid() {
			return fmt.Errorf("item %s has unknown kind %q", item.Name, item.Kind)
		}
	}
	return nil
}

func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("Seed")

	catalogue, err := Load(config.SeedFile)
	if err != nil {
		return log.Err("failed to load catalogue", err, "path", config.SeedFile)
	}

	return Apply(db, catalogue, log)
}

// Apply writes the catalogue. Rows already present by name are left alone so
// the command can be re-run.
func Apply(db *gorm.DB, catalogue *Catalogue, log logger.Logger) error {
	log = log.Function("Apply")

	return db.Transaction(func(tx *gorm.DB) error {
		for _, entry := range catalogue.Locations {
			if err := seedLocation(tx, entry); err != nil {
				return log.Err("failed to seed location", err, "location", entry.Name)
			}
		}

		for _, entry := range catalogue.Users {
			if err := seedUser(tx, entry); err != nil {
				return log.Err("failed to seed user", err, "user", entry.FirstName)
			}
		}

		for _, entry := range catalogue.Items {
			if err := seedItem(tx, entry); err != nil {
				return log.Err("failed to seed item", err, "item", entry.Name)
			}
		}

		log.Info(
			"Seeded catalogue",
			"locations", len(catalogue.Locations),
			"users", len(catalogue.Users),
			"items", len(catalogue.Items),
		)
		return nil
	})
}

func seedLocation(tx *gorm.DB, entry LocationEntry) error {
	location := models.Location{Name: entry.Name}
	if err := tx.Where("name = ?", entry.Name).FirstOrCreate(&location).Error; err != nil {
		return err
	}

	for _, roomEntry := range entry.Rooms {
		room := models.Room{LocationID: location.ID, Name: roomEntry.Name}
		err := tx.Where("location_id = ? AND name = ?", location.ID, roomEntry.Name).
			FirstOrCreate(&room).Error
		if err != nil {
			return err
		}

		for _, name := range roomEntry.Details {
			detail := models.RoomDetail{RoomID: room.ID, Name: name}
			err := tx.Where("room_id = ? AND name = ?", room.ID, name).FirstOrCreate(&detail).Error
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func seedUser(tx *gorm.DB, entry UserEntry) error {
	user := models.User{
		FirstName: entry.FirstName,
		LastName:  entry.LastName,
		Role:      entry.Role,
	}
	query := tx.Where("first_name = ? AND role = ?", entry.FirstName, entry.Role)
	if entry.Email != "" {
		email := entry.Email
		user.Email = &email
		query = tx.Where("email = ?", email)
	}
	return query.FirstOrCreate(&user).Error
}

func seedItem(tx *gorm.DB, entry ItemEntry) error {
	item := models.CleaningItem{
		Name:     entry.Name,
		Quantity: decimal.RequireFromString(entry.Quantity),
		Unit:     entry.Unit,
		Kind:     entry.Kind,
	}
	return tx.Where("name = ?", entry.Name).FirstOrCreate(&item).Error
}
