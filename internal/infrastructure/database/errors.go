package database

import "errors"

var (
	// ErrNoPath is returned by Open when Config.Path is empty.
	ErrNoPath = errors.New("database: path is required")

	// ErrNothingToRollback is returned by Rollback when no migration has
	// been applied.
	ErrNothingToRollback = errors.New("database: no applied migrations")

	// ErrNoDownScript is returned by Rollback when the latest migration
	// ships without a .down.sql file.
	ErrNoDownScript = errors.New("database: migration has no down script")

	// ErrUnknownMigration is returned when the database records a version
	// that the migration source does not contain.
	ErrUnknownMigration = errors.New("database: applied migration missing from source")
)
