package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/oilmart/internal/config"
	"github.com/example/oilmart/internal/database"
	"github.com/example/oilmart/internal/models"
)

// newTestDB opens a private in-memory database with the same error
// translation the production connection uses. A single connection keeps
// sqlite's per-connection memory store stable across the pool.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(conn))
	return conn
}

func testConfig() *config.Config {
	return &config.Config{
		AppName:              "oilmart-test",
		AppEnv:               "test",
		JWTSecret:            "test-secret",
		TokenExpires:         time.Hour,
		OrderNumberPrefix:    "OM",
		TrackingNumberPrefix: "OIL",
		AdminUsername:        "admin",
		AdminEmail:           "admin@oilmart.local",
		AdminPassword:        "admin123",
	}
}

func money(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return d
}

// seedProduct inserts a product directly, bypassing SKU generation. age
// staggers created_at so ordering assertions stay deterministic.
func seedProduct(t *testing.T, db *gorm.DB, name, brand string, oilType models.OilType, price string, stock int, age time.Duration) models.Product {
	t.Helper()

	product := models.Product{
		Name:  name,
		Brand: brand,
		Type:  oilType,
		Price: money(t, price),
		Stock: stock,
	}
	product.CreatedAt = time.Now().Add(-age)
	require.NoError(t, db.Create(&product).Error)
	return product
}

func seedUser(t *testing.T, db *gorm.DB, email, name, phone string) models.User {
	t.Helper()

	user := models.User{Email: email, Name: name, Phone: phone}
	require.NoError(t, db.Create(&user).Error)
	return user
}
