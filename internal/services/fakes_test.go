package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/AnshRaj112/namewall-backend/internal/database"
	"github.com/AnshRaj112/namewall-backend/internal/models"
)

// memoryNames mimics a store with a case-insensitive unique key.
type memoryNames struct {
	mu      sync.Mutex
	entries []models.NameEntry
	nextID  int
	err     error
}

func (m *memoryNames) ListNames(ctx context.Context) ([]models.NameEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.NameEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *memoryNames) FindOrCreateName(ctx context.Context, entry models.NameEntry) (models.NameEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.NameEntry{}, false, m.err
	}
	var found *models.NameEntry
	for i := range m.entries {
		e := &m.entries[i]
		if e.Key() == entry.Key() && (found == nil || e.CreatedAt.Before(found.CreatedAt)) {
			found = e
		}
	}
	if found != nil {
		return *found, false, nil
	}
	m.nextID++
	entry.ID = fmt.Sprintf("id-%03d", m.nextID)
	m.entries = append(m.entries, entry)
	return entry, true, nil
}

// insertRaw bypasses the uniqueness check, like a direct database write.
func (m *memoryNames) insertRaw(e models.NameEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

func (m *memoryNames) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type memoryFeedback struct {
	mu      sync.Mutex
	entries []models.FeedbackEntry
	err     error
}

func (m *memoryFeedback) InsertFeedback(ctx context.Context, e models.FeedbackEntry) (models.FeedbackEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.FeedbackEntry{}, m.err
	}
	e.ID = fmt.Sprintf("fb-%d", len(m.entries)+1)
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *memoryFeedback) ListFeedback(ctx context.Context) ([]models.FeedbackEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.FeedbackEntry, 0, len(m.entries))
	for i := len(m.entries) - 1; i >= 0; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

type recordingPublisher struct {
	mu    sync.Mutex
	names []models.NameEntry
}

func (p *recordingPublisher) PublishName(ctx context.Context, e models.NameEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names = append(p.names, e)
	return nil
}

var errDown = database.Unavailable("list names")

// pausingNames holds the first ListNames call after it has read its snapshot
// until release is closed.
type pausingNames struct {
	*memoryNames
	once    sync.Once
	paused  chan struct{}
	release chan struct{}
}

func newPausingNames() *pausingNames {
	return &pausingNames{
		memoryNames: &memoryNames{},
		paused:      make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (p *pausingNames) ListNames(ctx context.Context) ([]models.NameEntry, error) {
	entries, err := p.memoryNames.ListNames(ctx)
	p.once.Do(func() {
		close(p.paused)
		<-p.release
	})
	return entries, err
}
