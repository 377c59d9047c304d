package database

import (
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/tup-vms/vms-backend/internal/database/migrations"
)

// Migrate applies the embedded goose migrations.
func Migrate(db DB) error {
	pg, ok := db.(*PostgresDB)
	if !ok {
		return fmt.Errorf("migrations require a postgres connection")
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(pg.DB.DB, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
