// Package database provides SQLite connectivity for the blescan node.
//
// The node keeps a single small database holding the provisioned
// configuration record. This package opens it, applies the embedded schema
// migrations and exposes a health check.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are forward-only files named YYYYMMDD_HHMMSS_name.up.sql.
package database
