package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmy/thumblify/internal/auth"
	"github.com/timmy/thumblify/internal/domain"
	"github.com/timmy/thumblify/internal/logger"
	"github.com/timmy/thumblify/internal/repository"
	"github.com/timmy/thumblify/internal/storage"
)

// ErrThumbnailNotFound is returned when a record does not exist or belongs to
// another owner. The two cases are deliberately indistinguishable so the API
// never confirms a record's existence to a non-owner.
var ErrThumbnailNotFound = errors.New("thumbnail not found")

// ThumbnailService provides owner-scoped listing, lookup, and deletion.
type ThumbnailService struct {
	store   ThumbnailStore
	objects storage.ObjectStorage
}

// NewThumbnailService creates a ThumbnailService. objects may be nil, in
// which case deletion skips object-store cleanup.
func NewThumbnailService(store ThumbnailStore, objects storage.ObjectStorage) *ThumbnailService {
	return &ThumbnailService{store: store, objects: objects}
}

// List returns all thumbnails owned by the user, newest first, with every
// optional field normalized to a typed default. Pure read: calling it twice
// without intervening mutation yields identical output.
func (s *ThumbnailService) List(ctx context.Context, user auth.CurrentUser) ([]domain.Thumbnail, error) {
	if !user.Valid() {
		return nil, errors.New("user not authenticated")
	}

	thumbnails, err := s.store.ListByOwner(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list thumbnails: %w", err)
	}

	normalized := make([]domain.Thumbnail, len(thumbnails))
	for i, t := range thumbnails {
		normalized[i] = t.Normalized()
	}
	return normalized, nil
}

// GetByID returns the user's thumbnail with the given id, or
// ErrThumbnailNotFound when no owned record matches.
func (s *ThumbnailService) GetByID(ctx context.Context, user auth.CurrentUser, id string) (*domain.Thumbnail, error) {
	if !user.Valid() {
		return nil, errors.New("user not authenticated")
	}

	thumbnail, err := s.store.GetByOwner(ctx, user.ID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrThumbnailNotFound
		}
		return nil, fmt.Errorf("failed to get thumbnail: %w", err)
	}

	normalized := thumbnail.Normalized()
	return &normalized, nil
}

// Delete removes the user's thumbnail with the given id and cleans up the
// stored image on a best-effort basis. Non-owned and missing records both
// return ErrThumbnailNotFound.
func (s *ThumbnailService) Delete(ctx context.Context, user auth.CurrentUser, id string) error {
	if !user.Valid() {
		return errors.New("user not authenticated")
	}

	deleted, err := s.store.DeleteByOwner(ctx, user.ID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrThumbnailNotFound
		}
		return fmt.Errorf("failed to delete thumbnail: %w", err)
	}

	// The stored object is unreachable once the record is gone; losing the
	// cleanup only leaks storage, so failures are logged and swallowed.
	if s.objects != nil && deleted.ImageURL != "" {
		key := objectKey(deleted.ID, ImageInfo{Format: deleted.Format})
		if err := s.objects.Delete(ctx, key); err != nil {
			logger.CtxWarn(ctx, "Failed to delete stored image: key=%s, err=%v", key, err)
		}
	}

	logger.CtxInfo(ctx, "Thumbnail deleted: thumbnail_id=%s", id)
	return nil
}
