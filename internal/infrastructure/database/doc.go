// Package database opens the SQLite file that holds the meterlink catalog
// (memory map rows and measurement point bindings) and manages its schema.
//
// Open configures the pool for SQLite's single writer, with WAL journaling
// and a busy timeout from config. Schema changes are versioned SQL scripts
// read from Source, which the migrations package fills from an embedded
// directory:
//
//	import _ "github.com/nerrad567/meterlink/migrations"
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if _, err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// The service migrates up on every start. `meterlink migrate status` and
// `meterlink migrate down` expose MigrationStatus and Rollback to operators.
package database
