// Package repository holds the storage backends behind the name registry and
// feedback sink.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/AnshRaj112/namewall-backend/internal/database"
	"github.com/AnshRaj112/namewall-backend/internal/logger"
	"github.com/AnshRaj112/namewall-backend/internal/models"
)

// NameStore matches services.NameRepository.
type NameStore interface {
	ListNames(ctx context.Context) ([]models.NameEntry, error)
	FindOrCreateName(ctx context.Context, entry models.NameEntry) (models.NameEntry, bool, error)
}

// FeedbackStore matches services.FeedbackRepository.
type FeedbackStore interface {
	InsertFeedback(ctx context.Context, entry models.FeedbackEntry) (models.FeedbackEntry, error)
	ListFeedback(ctx context.Context) ([]models.FeedbackEntry, error)
}

// Backend is one connected storage implementation.
type Backend struct {
	Kind     string
	Names    NameStore
	Feedback FeedbackStore
	Close    func() error
}

// Open connects the backend matching the URL scheme.
func Open(ctx context.Context, url string, log *slog.Logger) (*Backend, error) {
	switch {
	case database.IsMongoURI(url):
		client, db, err := database.ConnectMongo(ctx, url, logger.Module(log, "mongo"))
		if err != nil {
			return nil, err
		}
		if err := EnsureMongoIndexes(ctx, db); err != nil {
			_ = database.DisconnectMongo(client)
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		return &Backend{
			Kind:     "mongodb",
			Names:    NewMongoNames(db.Collection(NamesCollection)),
			Feedback: NewMongoFeedback(db.Collection(FeedbackCollection)),
			Close:    func() error { return database.DisconnectMongo(client) },
		}, nil

	case database.IsPostgresURI(url):
		db, err := database.ConnectPostgres(ctx, url, logger.Module(log, "postgres"))
		if err != nil {
			return nil, err
		}
		return &Backend{
			Kind:     "postgres",
			Names:    NewPostgresNames(db),
			Feedback: NewPostgresFeedback(db),
			Close:    db.Close,
		}, nil
	}
	return nil, unsupported(url)
}

// Supported returns an error for URLs no backend can open.
func Supported(url string) error {
	if database.IsMongoURI(url) || database.IsPostgresURI(url) {
		return nil
	}
	return unsupported(url)
}

func unsupported(url string) error {
	return fmt.Errorf("unsupported storage url scheme: %q", schemeOf(url))
}

func schemeOf(url string) string {
	if i := strings.Index(url, "://"); i >= 0 {
		return url[:i]
	}
	return ""
}

// Store stands in for the backend until the connection supervisor attaches
// one. Before that every call fails with database.ErrStorageUnavailable.
type Store struct {
	backend atomic.Pointer[Backend]
}

func NewStore() *Store {
	return &Store{}
}

// Attach makes b the live backend.
func (s *Store) Attach(b *Backend) {
	s.backend.Store(b)
}

// Ready reports whether a backend is attached.
func (s *Store) Ready() bool {
	return s.backend.Load() != nil
}

// Close closes the attached backend, if any.
func (s *Store) Close() error {
	b := s.backend.Swap(nil)
	if b == nil || b.Close == nil {
		return nil
	}
	return b.Close()
}

func (s *Store) ListNames(ctx context.Context) ([]models.NameEntry, error) {
	b := s.backend.Load()
	if b == nil {
		return nil, database.Unavailable("list names")
	}
	return b.Names.ListNames(ctx)
}

func (s *Store) FindOrCreateName(ctx context.Context, entry models.NameEntry) (models.NameEntry, bool, error) {
	b := s.backend.Load()
	if b == nil {
		return models.NameEntry{}, false, database.Unavailable("create name")
	}
	return b.Names.FindOrCreateName(ctx, entry)
}

func (s *Store) InsertFeedback(ctx context.Context, entry models.FeedbackEntry) (models.FeedbackEntry, error) {
	b := s.backend.Load()
	if b == nil {
		return models.FeedbackEntry{}, database.Unavailable("insert feedback")
	}
	return b.Feedback.InsertFeedback(ctx, entry)
}

func (s *Store) ListFeedback(ctx context.Context) ([]models.FeedbackEntry, error) {
	b := s.backend.Load()
	if b == nil {
		return nil, database.Unavailable("list feedback")
	}
	return b.Feedback.ListFeedback(ctx)
}
