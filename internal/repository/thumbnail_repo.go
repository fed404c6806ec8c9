package repository

import (
	"context"
	"errors"

	"github.com/timmy/thumblify/internal/domain"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a record does not exist or is not visible to
// the requesting owner.
var ErrNotFound = errors.New("record not found")

// ThumbnailRepository handles thumbnail data operations.
type ThumbnailRepository struct {
	db *gorm.DB
}

// NewThumbnailRepository creates a new ThumbnailRepository bound to db.
func NewThumbnailRepository(db *gorm.DB) *ThumbnailRepository {
	return &ThumbnailRepository{db: db}
}

// Create inserts a new thumbnail record. The insert is durable once this
// returns, so polling clients observe the pending record immediately.
func (r *ThumbnailRepository) Create(ctx context.Context, thumbnail *domain.Thumbnail) error {
	return r.db.WithContext(ctx).Create(thumbnail).Error
}

// Update persists all fields of an existing thumbnail record.
func (r *ThumbnailRepository) Update(ctx context.Context, thumbnail *domain.Thumbnail) error {
	return r.db.WithContext(ctx).Save(thumbnail).Error
}

// GetByID retrieves a thumbnail by its ID regardless of owner.
func (r *ThumbnailRepository) GetByID(ctx context.Context, id string) (*domain.Thumbnail, error) {
	var thumbnail domain.Thumbnail
	if err := r.db.WithContext(ctx).First(&thumbnail, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &thumbnail, nil
}

// GetByOwner retrieves the thumbnail matching both id and owner. A record
// owned by someone else is reported as not found, never as forbidden.
func (r *ThumbnailRepository) GetByOwner(ctx context.Context, userID, id string) (*domain.Thumbnail, error) {
	var thumbnail domain.Thumbnail
	if err := r.db.WithContext(ctx).First(&thumbnail, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &thumbnail, nil
}

// ListByOwner retrieves all thumbnails for a user, newest first.
func (r *ThumbnailRepository) ListByOwner(ctx context.Context, userID string) ([]domain.Thumbnail, error) {
	var thumbnails []domain.Thumbnail
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&thumbnails).Error; err != nil {
		return nil, err
	}
	return thumbnails, nil
}

// DeleteByOwner removes the thumbnail matching both id and owner and returns
// the deleted record. Returns ErrNotFound when no row matches.
func (r *ThumbnailRepository) DeleteByOwner(ctx context.Context, userID, id string) (*domain.Thumbnail, error) {
	thumbnail, err := r.GetByOwner(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	result := r.db.WithContext(ctx).Delete(&domain.Thumbnail{}, "id = ? AND user_id = ?", id, userID)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return thumbnail, nil
}

// CountByOwner counts all thumbnails belonging to a user.
func (r *ThumbnailRepository) CountByOwner(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&domain.Thumbnail{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
