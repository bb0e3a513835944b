package database

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// IsPostgresURI reports whether uri should be handled by the Postgres backend.
func IsPostgresURI(uri string) bool {
	return strings.HasPrefix(uri, "postgres://") || strings.HasPrefix(uri, "postgresql://")
}

// ConnectPostgres opens a pooled connection, pings it and creates the tables.
func ConnectPostgres(ctx context.Context, postgresURI string, log *slog.Logger) (*sql.DB, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("✅ connected to PostgreSQL")

	if err := InitPostgresTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("✅ PostgreSQL tables initialized")
	return db, nil
}

// postgresSchema holds the tables for names and feedback. name_key is the
// case-folded name; its unique index is what makes concurrent creates safe.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS names (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		name_key TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS feedback (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		rating INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_names_name_key ON names(name_key)`,
	`CREATE INDEX IF NOT EXISTS idx_names_created_at ON names(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback(created_at)`,
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables(ctx context.Context, db *sql.DB) error {
	for _, query := range postgresSchema {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}
