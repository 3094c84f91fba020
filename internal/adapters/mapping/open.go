package mapping

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg Config) (ports.MappingStore, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("mapping config: %w", err)
	}
	if cfg.Driver == "dynamodb" {
		return OpenDynamoStore(ctx, cfg.Region, cfg.Table)
	}
	return OpenSQL(ctx, cfg)
}

// OpenSQL opens a SQL-backed store; the admin commands need its concrete type.
func OpenSQL(ctx context.Context, cfg Config) (*SQLStore, error) {
	db, err := OpenDB(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return NewSQLStore(db, cfg.Table), nil
}

// OpenDB opens and pings a database handle for the sqlite or postgres driver.
func OpenDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if driver != "sqlite" && driver != "postgres" {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}
