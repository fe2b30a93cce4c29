package waitlist

import (
	"context"
	"errors"

	"github.com/wayfarermaps/landing/internal/models"
	apperrors "github.com/wayfarermaps/landing/pkg/errors"
	"gorm.io/gorm"
)

type WaitlistRepository interface {
	// CreateEntry persists a new waitlist entry.
	CreateEntry(ctx context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error)
	// ListEntries returns a page of entries in signup order plus the total count.
	ListEntries(ctx context.Context, offset, limit int) ([]*models.WaitlistEntry, int64, error)
	// CountByVariant returns entry counts grouped by experiment variant.
	CountByVariant(ctx context.Context) (map[string]int64, error)
	// GetAllEntries returns all waitlist entries in signup order.
	GetAllEntries(ctx context.Context) ([]*models.WaitlistEntry, error)
	// DeleteEntry removes a waitlist entry by its ID.
	DeleteEntry(ctx context.Context, id uint) error
}

// NewRepository picks the store: the database when one is configured,
// otherwise the in-memory fallback that loses entries on restart.
func NewRepository(db *gorm.DB) WaitlistRepository {
	if db == nil {
		return NewMemoryWaitlistRepository()
	}
	return NewWaitlistRepository(db)
}

type waitlistRepository struct {
	db *gorm.DB
}

func NewWaitlistRepository(db *gorm.DB) WaitlistRepository {
	return &waitlistRepository{db: db}
}

func (wr *waitlistRepository) CreateEntry(ctx context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error) {
	if err := wr.db.WithContext(ctx).Create(entry).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.NewConflictError("waitlist entry with this email already exists", err)
		}
		return nil, apperrors.NewDatabaseError("unable to create waitlist entry", err)
	}

	return entry, nil
}

func (wr *waitlistRepository) ListEntries(ctx context.Context, offset, limit int) ([]*models.WaitlistEntry, int64, error) {
	var total int64

	if err := wr.db.WithContext(ctx).Model(&models.WaitlistEntry{}).Count(&total).Error; err != nil {
		return nil, 0, apperrors.NewDatabaseError("unable to count waitlist entries", err)
	}

	var entries []*models.WaitlistEntry

	if err := wr.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, 0, apperrors.NewDatabaseError("unable to fetch waitlist entries", err)
	}

	return entries, total, nil
}

func (wr *waitlistRepository) CountByVariant(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Variant string
		Count   int64
	}

	if err := wr.db.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Select("variant, COUNT(*) AS count").
		Group("variant").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.NewDatabaseError("unable to count entries by variant", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Variant] = row.Count
	}

	return counts, nil
}

func (wr *waitlistRepository) GetAllEntries(ctx context.Context) ([]*models.WaitlistEntry, error) {
	var entries []*models.WaitlistEntry

	if err := wr.db.WithContext(ctx).Order("id ASC").Find(&entries).Error; err != nil {
		return nil, apperrors.NewDatabaseError("unable to fetch waitlist entries", err)
	}

	return entries, nil
}

func (wr *waitlistRepository) DeleteEntry(ctx context.Context, id uint) error {
	result := wr.db.WithContext(ctx).Delete(&models.WaitlistEntry{}, id)

	if result.Error != nil {
		return apperrors.NewDatabaseError("unable to delete waitlist entry", result.Error)
	}

	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("waitlist entry not found", nil)
	}

	return nil
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || apperrors.IsDuplicateKeyError(err)
}
