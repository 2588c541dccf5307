package seed

import (
	"testing"

	"cleanops/internal/models"
	"cleanops/internal/testutil"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_BundledCatalogue(t *testing.T) {
	catalogue, err := Load("catalogue.yaml")
	require.NoError(t, err)

	assert.NotEmpty(t, catalogue.Locations)
	assert.NotEmpty(t, catalogue.Users)
	assert.NotEmpty(t, catalogue.Items)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown role", "users:\n  - firstName: Zed\n    role: janitor\n"},
		{"missing first name", "users:\n  - role: cleaner\n"},
		{"bad quantity", "items:\n  - name: Mop\n    quantity: lots\n"},
		{"negative quantity", "items:\n  - name: Mop\n    quantity: \"-1\"\n"},
		{"unknown kind", "items:\n  - name: Mop\n    quantity: \"1\"\n    kind: gadget\n"},
		{"unnamed room", "locations:\n  - name: Plant\n    rooms:\n      - details: [Floor]\n"},
		{"malformed", "locations: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestApply_IsRepeatable(t *testing.T) {
	db := testutil.NewDB(t)
	log := logger.New("seedTest")

	catalogue, err := Parse([]byte(`
locations:
  - name: Plant
    rooms:
      - name: Line 1
        details: [Conveyor, Floor]
users:
  - firstName: Ivy
    email: ivy@example.com
    role: inspector
items:
  - name: Degreaser
    quantity: "7.5"
    unit: litre
`))
	require.NoError(t, err)

	require.NoError(t, Apply(db.SQL, catalogue, log))
	require.NoError(t, Apply(db.SQL, catalogue, log))

	var locations, rooms, details, users, items int64
	require.NoError(t, db.SQL.Model(&models.Location{}).Count(&locations).Error)
	require.NoError(t, db.SQL.Model(&models.Room{}).Count(&rooms).Error)
	require.NoError(t, db.SQL.Model(&models.RoomDetail{}).Count(&details).Error)
	require.NoError(t, db.SQL.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.SQL.Model(&models.CleaningItem{}).Count(&items).Error)

	assert.Equal(t, int64(1), locations)
	assert.Equal(t, int64(1), rooms)
	assert.Equal(t, int64(2), details)
	assert.Equal(t, int64(1), users)
	assert.Equal(t, int64(1), items)

	var item models.CleaningItem
	require.NoError(t, db.SQL.First(&item, "name = ?", "Degreaser").Error)
	assert.True(t, decimal.RequireFromString("7.5").Equal(item.Quantity))
	assert.Equal(t, models.CleaningItemKindConsumable, item.Kind)
}
