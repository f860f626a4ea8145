// internal/services/services_test.go
package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/stockcount/internal/config"
	"github.com/javajoker/stockcount/internal/database"
	"github.com/javajoker/stockcount/internal/models"
	"github.com/javajoker/stockcount/internal/utils"
)

// fixture is a small, fully seeded inventory world.
type fixture struct {
	db  *gorm.DB
	cfg *config.Config

	admin   *models.User
	manager *models.User
	leader  *models.User

	main   *models.Warehouse
	remote *models.Warehouse

	unit    *models.MeasurementUnit
	box     *models.MeasurementUnit
	product *models.Product
	flag    *models.FeatureFlag
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Environment: "test",
		JWT:         config.JWTConfig{SecretKey: "services-test", AccessTokenTTL: 1},
		Storage:     config.StorageConfig{LocalPath: t.TempDir(), ReportsPrefix: "reports"},
		Inventory:   config.InventoryConfig{AllowedCreationDays: 3, MaxSessionsPerMonth: 3},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	f := &fixture{db: db, cfg: testConfig(t)}

	f.main = &models.Warehouse{Code: "WH-001", Description: "Main", Status: models.WarehouseStatusActive}
	f.remote = &models.Warehouse{Code: "WH-002", Description: "Remote", Status: models.WarehouseStatusActive}
	require.NoError(t, db.Create(f.main).Error)
	require.NoError(t, db.Create(f.remote).Error)

	f.admin = f.createUser(t, "admin@test.local", "Admin", models.RoleAdmin)
	f.manager = f.createUser(t, "manager@test.local", "Manager", models.RoleWarehouseManager, *f.main)
	f.leader = f.createUser(t, "leader@test.local", "Leader", models.RoleProcessLeader, *f.main)

	f.unit = &models.MeasurementUnit{Name: "Unit", Abbreviation: "UND", IsActive: true}
	f.box = &models.MeasurementUnit{Name: "Box", Abbreviation: "BOX", IsActive: true}
	require.NoError(t, db.Create(f.unit).Error)
	require.NoError(t, db.Create(f.box).Error)

	f.product = &models.Product{
		Code:             "SKU-001",
		Description:      "Box of 12",
		ConversionFactor: decimal.NewFromInt(12),
		InventoryUnitID:  f.unit.ID,
		PackagingUnitID:  f.box.ID,
	}
	require.NoError(t, db.Create(f.product).Error)

	f.flag = &models.FeatureFlag{Key: models.FlagInventoryDateRestriction, Enabled: true}
	require.NoError(t, db.Create(f.flag).Error)

	return f
}

func (f *fixture) createUser(t *testing.T, email, name string, role models.UserRole, warehouses ...models.Warehouse) *models.User {
	t.Helper()
	user := &models.User{
		Identification: email,
		Name:           name,
		Email:          email,
		Role:           role,
		IsActive:       true,
		Warehouses:     warehouses,
	}
	require.NoError(t, user.SetPassword("password123"))
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func principalOf(u *models.User) utils.Principal {
	return utils.Principal{UserID: u.ID, Role: string(u.Role), Warehouses: u.WarehouseIDs()}
}

// inventory returns an InventoryService whose clock reads now.
func (f *fixture) inventory(t *testing.T, now time.Time) *InventoryService {
	t.Helper()
	storage, err := NewStorageService(f.cfg)
	require.NoError(t, err)
	s := NewInventoryService(f.db, f.cfg, NewFeatureFlagService(f.db), storage)
	s.now = func() time.Time { return now }
	return s
}

func businessKey(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	be, ok := AsBusinessError(err)
	require.True(t, ok, "expected a business error, got %v", err)
	return be.Key
}
