// Package migration applies versioned SQL files to a SQLite database.
//
// Files are named {version}_{description}.sql (for example
// "001_initial_schema.sql") and are read from an fs.FS, normally an embedded
// directory. Each file runs in its own transaction and is recorded in the
// schema_migrations table so it is never applied twice.
//
//	manager := migration.NewManager(migration.NewScanner(), migration.NewExecutor(db), files, ".", logger)
//	if err := manager.Run(ctx); err != nil {
//		return err
//	}
package migration
