package database

import (
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgreSQLClient is the direct-connection alternative to PostgREST for
// deployments that point at the listings database itself.
type PostgreSQLClient struct {
	DB *sqlx.DB
}

// NewPostgreSQLClient connects using MLS_DATABASE_URL.
func NewPostgreSQLClient() (*PostgreSQLClient, error) {
	dsn := os.Getenv("MLS_DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("MLS_DATABASE_URL environment variable is not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to listings database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging listings database: %w", err)
	}

	return &PostgreSQLClient{DB: db}, nil
}

// Close closes the underlying pool.
func (pc *PostgreSQLClient) Close() error {
	if pc.DB != nil {
		return pc.DB.Close()
	}
	return nil
}

// HealthCheck pings the database.
func (pc *PostgreSQLClient) HealthCheck() error {
	if pc.DB == nil {
		return fmt.Errorf("PostgreSQL client is not initialized")
	}
	return pc.DB.Ping()
}
