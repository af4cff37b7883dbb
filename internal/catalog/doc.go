// Package catalog holds the configured measurement points and the register
// memory map, persisted in SQLite and loaded once at startup into an
// immutable Snapshot.
//
// The Snapshot is the read-only context handed to every scheduled job. It is
// never mutated after Load returns; there is no hot reload.
//
// Seeding:
//
//	repo := catalog.NewSQLiteRepository(db.DB)
//	if err := catalog.ImportCSV(ctx, repo, "./seed"); err != nil { ... }
//	snap, err := catalog.Load(ctx, repo)
//
// ImportCSV reads gems_3500_memory_map.csv, gems.csv, gas.csv, heat.csv,
// iaq.csv and ccm.csv from the directory when they exist. Rows are upserted
// by primary key, so importing the same files twice is harmless.
package catalog
