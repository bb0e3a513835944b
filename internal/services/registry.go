package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/AnshRaj112/namewall-backend/internal/database"
	"github.com/AnshRaj112/namewall-backend/internal/logger"
	"github.com/AnshRaj112/namewall-backend/internal/metrics"
	"github.com/AnshRaj112/namewall-backend/internal/models"
)

// storageTimeout bounds every repository call made by the services.
const storageTimeout = 5 * time.Second

// NameRepository persists name entries.
//
// FindOrCreateName must return the existing entry whose name matches
// entry.Name case-insensitively, or insert entry. The bool reports an insert.
type NameRepository interface {
	ListNames(ctx context.Context) ([]models.NameEntry, error)
	FindOrCreateName(ctx context.Context, entry models.NameEntry) (models.NameEntry, bool, error)
}

// NamePublisher is told about every newly inserted name.
type NamePublisher interface {
	PublishName(ctx context.Context, entry models.NameEntry) error
}

// NameRegistry owns the shared name collection.
type NameRegistry struct {
	repo      NameRepository
	cache     Cache
	cacheTTL  time.Duration
	// cacheMu orders list cache fills against invalidations. cacheGen is
	// bumped by every insert; a List only fills the cache if no insert
	// happened since it started reading.
	cacheMu   sync.Mutex
	cacheGen  uint64
	publisher NamePublisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time
}

type RegistryOption func(*NameRegistry)

// WithCache caches the deduplicated list for ttl.
func WithCache(c Cache, ttl time.Duration) RegistryOption {
	return func(r *NameRegistry) {
		r.cache = c
		r.cacheTTL = ttl
	}
}

func WithPublisher(p NamePublisher) RegistryOption {
	return func(r *NameRegistry) { r.publisher = p }
}

func WithMetrics(m *metrics.Metrics) RegistryOption {
	return func(r *NameRegistry) { r.metrics = m }
}

func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *NameRegistry) { r.log = logger.Module(l, "registry") }
}

// WithClock replaces time.Now for creation timestamps.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *NameRegistry) { r.now = now }
}

func NewNameRegistry(repo NameRepository, opts ...RegistryOption) *NameRegistry {
	r := &NameRegistry{
		repo: repo,
		log:  logger.Module(nil, "registry"),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns every registered name, oldest first, one entry per
// case-insensitive name.
func (r *NameRegistry) List(ctx context.Context) ([]models.NameEntry, error) {
	if r.cache != nil {
		var cached []models.NameEntry
		hit, err := r.cache.Get(ctx, namesListCacheKey, &cached)
		switch {
		case err != nil:
			r.metrics.CacheLookup("error")
			r.log.Warn("name list cache read failed", "error", err)
		case hit:
			r.metrics.CacheLookup("hit")
			return cached, nil
		default:
			r.metrics.CacheLookup("miss")
		}
	}

	gen := r.generation()

	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	entries, err := r.repo.ListNames(ctx)
	if err != nil {
		r.storageFailed("list names", err)
		return nil, err
	}
	entries = DedupNames(entries)

	if r.cache != nil {
		r.fillCache(ctx, gen, entries)
	}
	return entries, nil
}

func (r *NameRegistry) generation() uint64 {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	return r.cacheGen
}

// fillCache stores entries unless a name was inserted after gen was read,
// in which case entries may predate it.
func (r *NameRegistry) fillCache(ctx context.Context, gen uint64, entries []models.NameEntry) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	if r.cacheGen != gen {
		return
	}
	if err := r.cache.Set(ctx, namesListCacheKey, entries, r.cacheTTL); err != nil {
		r.log.Warn("name list cache write failed", "error", err)
	}
}

func (r *NameRegistry) invalidateCache(ctx context.Context) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	r.cacheGen++
	if err := r.cache.Delete(ctx, namesListCacheKey); err != nil {
		r.log.Warn("name list cache invalidation failed", "error", err)
	}
}

// Create registers name unless a case-insensitive match exists, in which case
// the existing entry is returned untouched. No validation is applied: empty
// and arbitrarily long names are stored as given.
func (r *NameRegistry) Create(ctx context.Context, name string) (models.NameEntry, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	entry := models.NameEntry{
		Name:      name,
		CreatedAt: r.now().UTC(),
	}
	stored, created, err := r.repo.FindOrCreateName(ctx, entry)
	if err != nil {
		r.storageFailed("create name", err)
		return models.NameEntry{}, false, err
	}

	if !created {
		r.metrics.NameExisting()
		return stored, false, nil
	}

	r.metrics.NameCreated()
	r.log.Info("name registered", "id", stored.ID, "name", stored.Name)

	if r.cache != nil {
		r.invalidateCache(ctx)
	}
	if r.publisher != nil {
		if err := r.publisher.PublishName(ctx, stored); err != nil {
			r.log.Warn("publishing new name failed", "id", stored.ID, "error", err)
		}
	}
	return stored, true, nil
}

func (r *NameRegistry) storageFailed(op string, err error) {
	r.metrics.StorageError(op)
	r.log.Error("storage operation failed", "op", op, "unavailable", errors.Is(err, database.ErrStorageUnavailable), "error", err)
}

// DedupNames orders entries oldest first and keeps only the first entry for
// each case-insensitive name. Entries created at the same instant are ordered
// by ID. The input slice is not modified.
func DedupNames(entries []models.NameEntry) []models.NameEntry {
	sorted := make([]models.NameEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	seen := make(map[string]struct{}, len(sorted))
	out := make([]models.NameEntry, 0, len(sorted))
	for _, e := range sorted {
		key := e.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}
