package store

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrate runs every pending up migration in src against driver. An
// already current schema is not an error. A dirty schema is reported with
// its version so an operator can force it after a manual fix.
func Migrate(src fs.FS, dbName string, driver database.Driver) error {
	source, err := iofs.New(src, ".")
	if err != nil {
		return fmt.Errorf("migrate %s: open source: %w", dbName, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, dbName, driver)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", dbName, err)
	}

	err = m.Up()
	var dirty migrate.ErrDirty
	switch {
	case err == nil, errors.Is(err, migrate.ErrNoChange):
		return nil
	case errors.As(err, &dirty):
		return fmt.Errorf("migrate %s: schema dirty at version %d", dbName, dirty.Version)
	default:
		return fmt.Errorf("migrate %s: %w", dbName, err)
	}
}
