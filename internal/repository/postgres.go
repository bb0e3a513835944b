package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AnshRaj112/namewall-backend/internal/database"
	"github.com/AnshRaj112/namewall-backend/internal/models"
)

// PostgresNames stores names in the "names" table.
type PostgresNames struct {
	db    *sql.DB
	newID func() uuid.UUID
}

func NewPostgresNames(db *sql.DB) *PostgresNames {
	return &PostgresNames{db: db, newID: uuid.New}
}

func (p *PostgresNames) ListNames(ctx context.Context) ([]models.NameEntry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM names
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, database.Wrap("list names", err, database.IsNetError)
	}
	defer rows.Close()

	entries := make([]models.NameEntry, 0)
	for rows.Next() {
		var e models.NameEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.CreatedAt); err != nil {
			return nil, database.Wrap("list names", err, database.IsNetError)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Wrap("list names", err, database.IsNetError)
	}
	return entries, nil
}

// FindOrCreateName inserts unless name_key is taken, in which case the
// existing row is returned. ON CONFLICT makes this a single atomic step.
func (p *PostgresNames) FindOrCreateName(ctx context.Context, entry models.NameEntry) (models.NameEntry, bool, error) {
	key := entry.Key()

	stored := models.NameEntry{}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO names (id, name, name_key, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name_key) DO NOTHING
		RETURNING id, name, created_at
	`, p.newID(), entry.Name, key, entry.CreatedAt.Truncate(time.Microsecond)).Scan(&stored.ID, &stored.Name, &stored.CreatedAt)
	if err == nil {
		stored.CreatedAt = stored.CreatedAt.UTC()
		return stored, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.NameEntry{}, false, database.Wrap("insert name", err, database.IsNetError)
	}

	err = p.db.QueryRowContext(ctx, `
		SELECT id, name, created_at
		FROM names
		WHERE name_key = $1
	`, key).Scan(&stored.ID, &stored.Name, &stored.CreatedAt)
	if err != nil {
		return models.NameEntry{}, false, database.Wrap("find name", err, database.IsNetError)
	}
	stored.CreatedAt = stored.CreatedAt.UTC()
	return stored, false, nil
}

// PostgresFeedback stores feedback in the "feedback" table.
type PostgresFeedback struct {
	db    *sql.DB
	newID func() uuid.UUID
}

func NewPostgresFeedback(db *sql.DB) *PostgresFeedback {
	return &PostgresFeedback{db: db, newID: uuid.New}
}

func (p *PostgresFeedback) InsertFeedback(ctx context.Context, entry models.FeedbackEntry) (models.FeedbackEntry, error) {
	entry.ID = p.newID().String()
	entry.CreatedAt = entry.CreatedAt.Truncate(time.Microsecond)

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO feedback (id, name, email, message, rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.Name, entry.Email, entry.Message, int(entry.Rating), entry.CreatedAt)
	if err != nil {
		return models.FeedbackEntry{}, database.Wrap("insert feedback", err, database.IsNetError)
	}
	return entry, nil
}

// ListFeedback returns all feedback, newest first.
func (p *PostgresFeedback) ListFeedback(ctx context.Context) ([]models.FeedbackEntry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, email, message, rating, created_at
		FROM feedback
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, database.Wrap("list feedback", err, database.IsNetError)
	}
	defer rows.Close()

	entries := make([]models.FeedbackEntry, 0)
	for rows.Next() {
		var (
			e      models.FeedbackEntry
			rating int
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.Message, &rating, &e.CreatedAt); err != nil {
			return nil, database.Wrap("list feedback", err, database.IsNetError)
		}
		e.Rating = models.Rating(rating)
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Wrap("list feedback", err, database.IsNetError)
	}
	return entries, nil
}
