package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/AnshRaj112/namewall-backend/internal/logger"
	"github.com/AnshRaj112/namewall-backend/internal/metrics"
	"github.com/AnshRaj112/namewall-backend/internal/models"
)

// FeedbackRepository persists feedback. ListFeedback returns newest first.
type FeedbackRepository interface {
	InsertFeedback(ctx context.Context, entry models.FeedbackEntry) (models.FeedbackEntry, error)
	ListFeedback(ctx context.Context) ([]models.FeedbackEntry, error)
}

// FeedbackSink is append-only: identical submissions are stored separately.
type FeedbackSink struct {
	repo    FeedbackRepository
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

func NewFeedbackSink(repo FeedbackRepository, m *metrics.Metrics, l *slog.Logger) *FeedbackSink {
	return &FeedbackSink{
		repo:    repo,
		metrics: m,
		log:     logger.Module(l, "feedback"),
		now:     time.Now,
	}
}

// Submit stamps and stores entry. Fields are stored as received.
func (s *FeedbackSink) Submit(ctx context.Context, entry models.FeedbackEntry) (models.FeedbackEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	entry.ID = ""
	entry.CreatedAt = s.now().UTC()

	stored, err := s.repo.InsertFeedback(ctx, entry)
	if err != nil {
		s.metrics.StorageError("submit feedback")
		s.log.Error("saving feedback failed", "error", err)
		return models.FeedbackEntry{}, err
	}
	s.metrics.FeedbackSubmitted()
	return stored, nil
}

// List returns all feedback, newest first.
func (s *FeedbackSink) List(ctx context.Context) ([]models.FeedbackEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	entries, err := s.repo.ListFeedback(ctx)
	if err != nil {
		s.metrics.StorageError("list feedback")
		s.log.Error("fetching feedback failed", "error", err)
		return nil, err
	}
	if entries == nil {
		entries = []models.FeedbackEntry{}
	}
	return entries, nil
}
