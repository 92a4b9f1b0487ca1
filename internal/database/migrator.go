package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/deppfellow/go-users-api/internal/model"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/pkg/errors"
)

// The PostgreSQL schema is versioned SQL embedded in the binary.
//
//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the schema up to date.
//
// PostgreSQL runs the embedded tern migrations on a connection borrowed
// from the pool; the version is tracked in schema_version. MySQL and
// SQLite derive the schema from the gorm model.
func (db *Database) Migrate(ctx context.Context) error {
	if db.Pool == nil {
		if err := db.ORM.WithContext(ctx).AutoMigrate(&model.User{}); err != nil {
			return errors.Wrap(err, "auto-migrating schema")
		}
		db.log.Info().Str("driver", db.driver).Msg("database schema auto-migrated")
		return nil
	}

	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring migration connection: %w", err)
	}
	defer conn.Release()

	m, err := tern.NewMigrator(ctx, conn.Conn(), "schema_version")
	if err != nil {
		return fmt.Errorf("constructing database migrator: %w", err)
	}

	subtree, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("retrieving database migrations subtree: %w", err)
	}

	if err := m.LoadMigrations(subtree); err != nil {
		return fmt.Errorf("loading database migrations: %w", err)
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("retrieving current database migration version: %w", err)
	}

	if err := m.Migrate(ctx); err != nil {
		return err
	}

	if from == int32(len(m.Migrations)) {
		db.log.Info().Msgf("database schema up to date, version %d", len(m.Migrations))
	} else {
		db.log.Info().Msgf("migrated database schema, from %d to %d", from, len(m.Migrations))
	}
	return nil
}
