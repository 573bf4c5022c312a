package infrastructures

import (
	"fmt"
	"os"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/stagepass/giftcard-core/internal/app/models"
)

func NewDatabase() *gorm.DB {
	dsn := os.Getenv("DATABASE_URL")
	if Config != nil {
		dsn = Config.DATABASE_URL
	}
	db, err := Open(dsn)
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	if err := Migrate(db); err != nil {
		logrus.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

// Open opens a GORM connection for the given DSN. Postgres DSNs get the
// Postgres driver; everything else (file paths, :memory:) opens as SQLite,
// which is what local development and tests use.
func Open(dsn string) (*gorm.DB, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, fmt.Errorf("database: empty dsn")
	}

	if isPostgresDSN(trimmed) {
		return gorm.Open(postgres.Open(trimmed), &gorm.Config{})
	}

	db, err := gorm.Open(sqlite.Open(trimmed), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	// An in-memory SQLite database exists per connection; cap the pool at
	// one so every session sees the same data.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func isPostgresDSN(dsn string) bool {
	lower := strings.ToLower(dsn)
	return strings.HasPrefix(lower, "postgres://") ||
		strings.HasPrefix(lower, "postgresql://") ||
		strings.Contains(lower, "host=") ||
		strings.Contains(lower, "dbname=")
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GiftCard{},
		&models.LedgerEntry{},
		&models.AuditLog{},
	)
}

// SupportsRowLocking reports whether the dialect understands
// SELECT ... FOR UPDATE. SQLite serializes writers on its own.
func SupportsRowLocking(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}
