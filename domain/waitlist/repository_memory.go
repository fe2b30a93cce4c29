package waitlist

import (
	"context"
	"sync"
	"time"

	"github.com/wayfarermaps/landing/internal/models"
	apperrors "github.com/wayfarermaps/landing/pkg/errors"
)

// memoryWaitlistRepository backs the waitlist when no database is configured.
// Signups arrive concurrently, so every access goes through the mutex.
// Entries are copied on the way in and out; callers never share memory with
// the store.
type memoryWaitlistRepository struct {
	mu      sync.RWMutex
	entries []*models.WaitlistEntry
	byEmail map[string]struct{}
	nextID  uint
}

func NewMemoryWaitlistRepository() WaitlistRepository {
	return &memoryWaitlistRepository{
		byEmail: make(map[string]struct{}),
	}
}

func (r *memoryWaitlistRepository) CreateEntry(ctx context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[entry.Email]; exists {
		return nil, apperrors.NewConflictError("waitlist entry with this email already exists", nil)
	}

	r.nextID++
	now := time.Now().UTC()

	stored := *entry
	stored.ID = r.nextID
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.entries = append(r.entries, &stored)
	r.byEmail[stored.Email] = struct{}{}

	result := stored
	return &result, nil
}

func (r *memoryWaitlistRepository) ListEntries(ctx context.Context, offset, limit int) ([]*models.WaitlistEntry, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := int64(len(r.entries))

	if offset < 0 {
		offset = 0
	}
	if offset >= len(r.entries) || limit <= 0 {
		return []*models.WaitlistEntry{}, total, nil
	}

	end := offset + limit
	if end > len(r.entries) {
		end = len(r.entries)
	}

	page := make([]*models.WaitlistEntry, 0, end-offset)
	for _, entry := range r.entries[offset:end] {
		copied := *entry
		page = append(page, &copied)
	}

	return page, total, nil
}

func (r *memoryWaitlistRepository) CountByVariant(ctx context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int64)
	for _, entry := range r.entries {
		counts[entry.Variant]++
	}

	return counts, nil
}

func (r *memoryWaitlistRepository) GetAllEntries(ctx context.Context) ([]*models.WaitlistEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*models.WaitlistEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		copied := *entry
		entries = append(entries, &copied)
	}

	return entries, nil
}

func (r *memoryWaitlistRepository) DeleteEntry(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, entry := range r.entries {
		if entry.ID == id {
			delete(r.byEmail, entry.Email)
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}

	return apperrors.NewNotFoundError("waitlist entry not found", nil)
}
