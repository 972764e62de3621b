package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"videotube_backend/internal/config"
)

func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("connected to postgres", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
	return db, nil
}

// Migrate creates the users table. Username and email carry unique
// constraints so concurrent registrations cannot both succeed.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	timestamp := "DATETIME"
	if db.DriverName() == "postgres" {
		timestamp = "TIMESTAMPTZ"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL UNIQUE,
			full_name     TEXT NOT NULL,
			avatar        TEXT NOT NULL,
			cover_image   TEXT NOT NULL DEFAULT '',
			password      TEXT NOT NULL,
			refresh_token TEXT,
			created_at    ` + timestamp + ` NOT NULL,
			updated_at    ` + timestamp + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate users table: %w", err)
		}
	}
	return nil
}
