package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/thumblify/internal/auth"
	"github.com/timmy/thumblify/internal/domain"
	"github.com/timmy/thumblify/internal/logger"
	"github.com/timmy/thumblify/internal/provider"
	"github.com/timmy/thumblify/internal/storage"
)

// ThumbnailStore is the persistence contract the services need from the
// record store.
type ThumbnailStore interface {
	Create(ctx context.Context, thumbnail *domain.Thumbnail) error
	Update(ctx context.Context, thumbnail *domain.Thumbnail) error
	GetByID(ctx context.Context, id string) (*domain.Thumbnail, error)
	GetByOwner(ctx context.Context, userID, id string) (*domain.Thumbnail, error)
	ListByOwner(ctx context.Context, userID string) ([]domain.Thumbnail, error)
	DeleteByOwner(ctx context.Context, userID, id string) (*domain.Thumbnail, error)
}

// GenerateInput carries the validated fields of a generation request.
type GenerateInput struct {
	Title       string
	Prompt      string
	Style       string
	AspectRatio string
	ColorScheme string
	TextOverlay bool
}

// GenerateConfig bounds the generation pipeline.
type GenerateConfig struct {
	// MinImageBytes is the smallest provider payload considered plausible.
	MinImageBytes int

	// Retry governs upload attempts against the object store.
	Retry storage.RetryPolicy
}

// GenerateService orchestrates the generation pipeline: create a pending
// record, call the provider, validate the payload, upload with retry, and
// reconcile the stored record. Every exit path leaves the record with the
// generating flag cleared.
type GenerateService struct {
	store     ThumbnailStore
	generator provider.Generator
	objects   storage.ObjectStorage
	cfg       GenerateConfig
}

// NewGenerateService creates the generation orchestrator.
func NewGenerateService(store ThumbnailStore, generator provider.Generator, objects storage.ObjectStorage, cfg GenerateConfig) *GenerateService {
	if cfg.MinImageBytes <= 0 {
		cfg.MinImageBytes = 1000
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = storage.DefaultRetryPolicy()
	}
	return &GenerateService{
		store:     store,
		generator: generator,
		objects:   objects,
		cfg:       cfg,
	}
}

// Generate runs one generation request end to end and returns the persisted
// record. Failures after the pending record exists come back as
// *GenerationError carrying the record in its terminal failed state.
func (s *GenerateService) Generate(ctx context.Context, user auth.CurrentUser, in GenerateInput) (*domain.Thumbnail, error) {
	if !user.Valid() {
		return nil, &GenerationError{Kind: KindAuth, Message: "User not authenticated"}
	}
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	prompt := BuildPrompt(in)

	// Once started, a generation runs to completion or failure; there is no
	// cancellation mechanism. Detach from the caller's context so a client
	// disconnect cannot cancel the writes that reconcile the record (the
	// deferred cleanup below must never fail with context canceled). Logger
	// fields survive the detach.
	ctx = context.WithoutCancel(ctx)

	// The pending record must be durably visible before any external call,
	// so polling clients see it even if generation fails later.
	rec := &domain.Thumbnail{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		Title:        in.Title,
		UserPrompt:   in.Prompt,
		PromptUsed:   prompt,
		Style:        in.Style,
		AspectRatio:  in.AspectRatio,
		ColorScheme:  in.ColorScheme,
		TextOverlay:  in.TextOverlay,
		ImageURL:     "",
		IsGenerating: true,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, &GenerationError{Kind: KindInternal, Message: "Failed to create thumbnail record", Err: err}
	}

	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldThumbnailID: rec.ID,
		logger.FieldUserID:      user.ID,
	})

	// Catch-all: whatever escapes below, the record must not stay generating.
	finalized := false
	defer func() {
		if finalized {
			return
		}
		cleared := rec.WithFailed()
		if err := s.store.Update(ctx, &cleared); err != nil {
			logger.CtxError(ctx, "Failed to clear generating flag on exit: %v", err)
		}
	}()

	// fail marks the record terminally failed, persists it, and wraps the
	// cause. The failed record rides along so the client can render it.
	fail := func(kind ErrorKind, msg string, cause error) error {
		failed := rec.WithFailed()
		if err := s.store.Update(ctx, &failed); err != nil {
			logger.CtxError(ctx, "Failed to persist failed state: %v", err)
		} else {
			*rec = failed
			finalized = true
		}
		return &GenerationError{Kind: kind, Message: msg, Thumbnail: rec, Err: cause}
	}

	logger.CtxInfo(ctx, "Calling image provider: prompt_len=%d", len(prompt))
	start := time.Now()

	imageData, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, s.classifyProviderError(fail, err)
	}

	logger.With(logger.Fields{
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
		logger.FieldSize:       len(imageData),
	}).Info(ctx, "Provider returned image data")

	if len(imageData) == 0 {
		return nil, fail(KindProviderEmpty, "Received empty image data from provider", nil)
	}
	if len(imageData) < s.cfg.MinImageBytes {
		return nil, fail(KindProviderCorrupt, "Generated image data appears to be corrupted (too small)", nil)
	}

	info := sniffImage(imageData)

	if s.objects == nil {
		return nil, fail(KindStorageConfig, "Object storage is not configured", nil)
	}

	key := objectKey(rec.ID, info)
	attempts, err := storage.UploadWithRetry(ctx, s.objects, key, imageData, info.ContentType(), s.cfg.Retry)
	if err != nil {
		return nil, fail(KindStorageUpload,
			fmt.Sprintf("Upload failed after %d attempts. Please check your storage configuration and network connection.", attempts), err)
	}

	ready := rec.WithReady(s.objects.GetURL(key), info.Width, info.Height, info.Format)
	if err := s.store.Update(ctx, &ready); err != nil {
		return nil, fail(KindInternal, "Failed to save thumbnail", err)
	}
	*rec = ready
	finalized = true

	// Re-read the persisted record; guards against write-then-read
	// inconsistency in the backing store.
	saved, err := s.store.GetByID(ctx, rec.ID)
	if err != nil {
		return nil, &GenerationError{Kind: KindInternal, Message: "Failed to retrieve saved thumbnail", Thumbnail: rec, Err: err}
	}

	logger.CtxInfo(ctx, "Thumbnail generated: image_url=%s, attempts=%d", saved.ImageURL, attempts)
	return saved, nil
}

// classifyProviderError maps a provider failure onto the error taxonomy and
// records the terminal state via fail.
func (s *GenerateService) classifyProviderError(fail func(ErrorKind, string, error) error, err error) error {
	var perr *provider.Error
	if !errors.As(err, &perr) {
		return fail(KindProviderFailed, "Image generation failed", err)
	}

	switch perr.StatusCode {
	case 401, 403:
		return fail(KindProviderAuth, "Invalid or unauthorized image provider API key", err)
	case 429:
		return fail(KindProviderRateLimited, "Rate limit exceeded. Please try again later.", err)
	case 400:
		msg := "Invalid request"
		if perr.Detail != "" {
			msg = "Invalid request: " + perr.Detail
		}
		return fail(KindProviderBadRequest, msg, err)
	case 402:
		return fail(KindProviderQuota, "Insufficient credits. Please check your provider account balance.", err)
	default:
		msg := "Image generation failed"
		if perr.Detail != "" {
			msg = perr.Detail
		}
		return fail(KindProviderFailed, msg, err)
	}
}

// validateInput normalizes defaults and rejects out-of-enum values before a
// record is created.
func validateInput(in *GenerateInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return &GenerationError{Kind: KindValidation, Message: "Title is required"}
	}
	if len(in.Title) > domain.MaxTitleLength {
		return &GenerationError{Kind: KindValidation, Message: fmt.Sprintf("Title must be at most %d characters", domain.MaxTitleLength)}
	}
	if !domain.ValidStyle(in.Style) {
		return &GenerationError{Kind: KindValidation, Message: fmt.Sprintf("Unknown style %q", in.Style)}
	}
	if in.AspectRatio == "" {
		in.AspectRatio = domain.AspectRatioWide
	}
	if !domain.ValidAspectRatio(in.AspectRatio) {
		return &GenerationError{Kind: KindValidation, Message: fmt.Sprintf("Unknown aspect ratio %q", in.AspectRatio)}
	}
	if in.ColorScheme != "" && !ValidColorScheme(in.ColorScheme) {
		return &GenerationError{Kind: KindValidation, Message: fmt.Sprintf("Unknown color scheme %q", in.ColorScheme)}
	}
	return nil
}

// objectKey builds the storage key for a record's image. Deterministic from
// the record, so deletion can reconstruct it.
func objectKey(id string, info ImageInfo) string {
	return fmt.Sprintf("thumbnails/%s.%s", id, info.Extension())
}
