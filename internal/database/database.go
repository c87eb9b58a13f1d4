package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/oilmart/internal/models"
)

// Connect opens the application database, creating it first when it does not
// exist yet, and applies the schema. Error translation is enabled so callers
// can match gorm.ErrDuplicatedKey regardless of the driver.
func Connect(dsn string) (*gorm.DB, error) {
	if err := createDatabaseIfMissing(dsn); err != nil {
		return nil, fmt.Errorf("ensure database: %w", err)
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	zap.L().Info("database ready")
	return conn, nil
}

// Migrate applies the schema for every persisted model. Tests call it
// directly against their own connections.
func Migrate(conn *gorm.DB) error {
	for _, model := range []interface{}{
		&models.User{},
		&models.Product{},
		&models.Favorite{},
		&models.Order{},
		&models.OrderItem{},
		&models.Admin{},
	} {
		if err := conn.AutoMigrate(model); err != nil {
			return err
		}
	}
	return nil
}

// createDatabaseIfMissing connects to the server's maintenance database and
// issues CREATE DATABASE when the DSN's target does not exist. DSNs that are
// not postgres URLs are left to the driver as-is.
func createDatabaseIfMissing(dsn string) error {
	target, master, err := splitDSN(dsn)
	if err != nil || target == "" {
		return err
	}

	admin, err := sql.Open("postgres", master)
	if err != nil {
		return err
	}
	defer admin.Close()

	var exists bool
	row := admin.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", target)
	if err := row.Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}

	if _, err := admin.Exec("CREATE DATABASE " + pq.QuoteIdentifier(target)); err != nil {
		return err
	}

	zap.S().Infow("created database", "name", target)
	return nil
}

// splitDSN extracts the target database name from a postgres URL and
// rewrites the URL to point at the maintenance database.
func splitDSN(dsn string) (target, master string, err error) {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return "", "", nil
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return "", "", err
	}

	target = strings.TrimPrefix(parsed.Path, "/")
	parsed.Path = "/postgres"
	return target, parsed.String(), nil
}
