package sqlite

import (
	"github.com/golang-migrate/migrate/v4/database/sqlite"

	"github.com/aussiebroadwan/sessiond/internal/auth/store"
	"github.com/aussiebroadwan/sessiond/internal/auth/store/drivers/sqlite/migrations"
)

// ApplyMigrations brings the users and auth_tokens schema up to date. It is
// run on every start, before the store hands out transactions.
func (s *Store) ApplyMigrations() error {
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return err
	}
	return store.Migrate(migrations.Migrations, "sqlite", driver)
}
