package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// buildDSN creates a PostgreSQL connection string
func buildDSN(host string, port int, user, password, dbname, sslmode string) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode,
	)
}

func driverName(d string) (string, error) {
	switch d {
	case DriverPostgres:
		return "postgres", nil // lib/pq
	case DriverSQLite:
		return "sqlite", nil // modernc
	default:
		return "", fmt.Errorf("unsupported database driver: %q", d)
	}
}

// Dialect maps the configured driver to the ent dialect name.
func Dialect(d string) string {
	if d == DriverSQLite {
		return dialect.SQLite
	}
	return dialect.Postgres
}

func openSQLDB(cfg Config) (*sql.DB, error) {
	name, err := driverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(name, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// sqlite serializes writers; one connection avoids SQLITE_BUSY under load.
		conn.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			conn.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			conn.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetimeMin > 0 {
			conn.SetConnMaxLifetime(cfg.ConnMaxLifetime())
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

// Open returns an ent SQL driver for cfg.
func Open(cfg Config) (*entsql.Driver, error) {
	db, err := openSQLDB(cfg)
	if err != nil {
		return nil, err
	}
	return entsql.OpenDB(Dialect(cfg.Driver), db), nil
}

// OpenMemory opens a private in-memory sqlite database.
func OpenMemory(name string) (*entsql.Driver, error) {
	db, err := sql.Open("sqlite", MemoryDSN(name))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return entsql.OpenDB(dialect.SQLite, db), nil
}
