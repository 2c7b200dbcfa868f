package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Alijeyrad/surveybot/config"
)

// InitializeDatabases creates the configured PostgreSQL databases if they
// don't exist. It connects to the default 'postgres' database to create the
// others. sqlite files are created on first open, so this is a no-op there.
func InitializeDatabases(cfg *config.Config) error {
	if cfg.Database.Driver == DriverSQLite {
		return nil
	}

	names := cfg.Server.Databases
	if len(names) == 0 {
		names = []string{cfg.Database.DBName}
	}

	postgresConfig := Config{
		Driver:   DriverPostgres,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   "postgres",
		SSLMode:  cfg.Database.SSLMode,
	}

	conn, err := openSQLDB(postgresConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres database: %w", err)
	}
	defer conn.Close()

	for _, dbName := range names {
		if err := createDatabaseIfNotExists(conn, dbName); err != nil {
			return fmt.Errorf("failed to create database %q: %w", dbName, err)
		}
	}

	return nil
}

// createDatabaseIfNotExists creates a database if it doesn't already exist
func createDatabaseIfNotExists(conn *sql.DB, dbName string) error {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`
	err := conn.QueryRowContext(context.Background(), query, dbName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}

	if exists {
		return nil
	}

	createQuery := fmt.Sprintf("CREATE DATABASE %s", dbName)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = conn.ExecContext(ctx, createQuery)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	return nil
}
