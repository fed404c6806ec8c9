package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/timmy/thumblify/internal/auth"
	"github.com/timmy/thumblify/internal/domain"
	"github.com/timmy/thumblify/internal/provider"
	"github.com/timmy/thumblify/internal/repository"
	"github.com/timmy/thumblify/internal/storage"
)

// fakeStore is an in-memory ThumbnailStore.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]domain.Thumbnail
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]domain.Thumbnail)}
}

func (s *fakeStore) Create(_ context.Context, t *domain.Thumbnail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[t.ID] = *t
	return nil
}

func (s *fakeStore) Update(_ context.Context, t *domain.Thumbnail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[t.ID]; !ok {
		return repository.ErrNotFound
	}
	s.records[t.ID] = *t
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*domain.Thumbnail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (s *fakeStore) GetByOwner(_ context.Context, userID, id string) (*domain.Thumbnail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok || rec.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (s *fakeStore) ListByOwner(_ context.Context, userID string) ([]domain.Thumbnail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Thumbnail
	for _, rec := range s.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteByOwner(_ context.Context, userID, id string) (*domain.Thumbnail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok || rec.UserID != userID {
		return nil, repository.ErrNotFound
	}
	delete(s.records, id)
	return &rec, nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *fakeStore) only(t *testing.T) domain.Thumbnail {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) != 1 {
		t.Fatalf("expected exactly 1 record, got %d", len(s.records))
	}
	for _, rec := range s.records {
		return rec
	}
	panic("unreachable")
}

// fakeGenerator returns fixed bytes or a fixed error.
type fakeGenerator struct {
	data []byte
	err  error
}

func (g *fakeGenerator) Generate(context.Context, string) ([]byte, error) {
	return g.data, g.err
}

// fakeObjects is an ObjectStorage that fails the first failures uploads and
// succeeds afterwards.
type fakeObjects struct {
	failures int
	uploads  int
	deleted  []string
}

func (f *fakeObjects) EnsureBucket(context.Context) error { return nil }

func (f *fakeObjects) Upload(_ context.Context, _ string, _ io.Reader, _ int64, _ string) error {
	f.uploads++
	if f.uploads <= f.failures {
		return fmt.Errorf("simulated upload failure %d", f.uploads)
	}
	return nil
}

func (f *fakeObjects) GetURL(key string) string {
	return "https://cdn.test/" + key
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjects) Exists(context.Context, string) (bool, error) { return false, nil }

func noSleepPolicy() storage.RetryPolicy {
	policy := storage.DefaultRetryPolicy()
	return policy.WithSleep(func(time.Duration) {})
}

func validImageData() []byte {
	return bytes.Repeat([]byte{0xAB}, 2048)
}

func validInput() GenerateInput {
	return GenerateInput{
		Title:       "10 Tips",
		Prompt:      "no text",
		Style:       domain.StyleMinimalist,
		AspectRatio: domain.AspectRatioSquare,
		ColorScheme: "ocean",
	}
}

var testUser = auth.CurrentUser{ID: "user-1"}

func TestGenerateSuccess(t *testing.T) {
	store := newFakeStore()
	objects := &fakeObjects{}
	svc := NewGenerateService(store, &fakeGenerator{data: validImageData()}, objects, GenerateConfig{
		Retry: noSleepPolicy(),
	})

	rec, err := svc.Generate(context.Background(), testUser, validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.ImageURL == "" {
		t.Error("expected non-empty image URL")
	}
	if rec.IsGenerating {
		t.Error("expected generating flag to be cleared")
	}
	if rec.Status() != domain.ThumbnailStatusReady {
		t.Errorf("expected status ready, got %s", rec.Status())
	}
	if objects.uploads != 1 {
		t.Errorf("expected 1 upload attempt, got %d", objects.uploads)
	}

	stored := store.only(t)
	if stored.ImageURL != rec.ImageURL {
		t.Errorf("returned record differs from stored: %q vs %q", rec.ImageURL, stored.ImageURL)
	}
	if stored.PromptUsed == "" {
		t.Error("expected the composed prompt to be persisted")
	}
}

func TestGenerateUnauthenticated(t *testing.T) {
	store := newFakeStore()
	svc := NewGenerateService(store, &fakeGenerator{data: validImageData()}, &fakeObjects{}, GenerateConfig{
		Retry: noSleepPolicy(),
	})

	_, err := svc.Generate(context.Background(), auth.CurrentUser{}, validInput())

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Kind != KindAuth {
		t.Errorf("expected kind %s, got %s", KindAuth, genErr.Kind)
	}
	if genErr.HTTPStatus() != 401 {
		t.Errorf("expected status 401, got %d", genErr.HTTPStatus())
	}
	if store.count() != 0 {
		t.Errorf("expected no record to be created, got %d", store.count())
	}
}

func TestGenerateValidation(t *testing.T) {
	tests := []struct {
		name  string
		morph func(*GenerateInput)
	}{
		{"empty title", func(in *GenerateInput) { in.Title = "  " }},
		{"title too long", func(in *GenerateInput) { in.Title = string(bytes.Repeat([]byte{'x'}, 101)) }},
		{"unknown style", func(in *GenerateInput) { in.Style = "Vaporwave" }},
		{"unknown aspect ratio", func(in *GenerateInput) { in.AspectRatio = "4:3" }},
		{"unknown color scheme", func(in *GenerateInput) { in.ColorScheme = "plaid" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := NewGenerateService(store, &fakeGenerator{data: validImageData()}, &fakeObjects{}, GenerateConfig{
				Retry: noSleepPolicy(),
			})

			in := validInput()
			tt.morph(&in)

			_, err := svc.Generate(context.Background(), testUser, in)

			var genErr *GenerationError
			if !errors.As(err, &genErr) {
				t.Fatalf("expected GenerationError, got %v", err)
			}
			if genErr.Kind != KindValidation {
				t.Errorf("expected kind %s, got %s", KindValidation, genErr.Kind)
			}
			if genErr.HTTPStatus() != 400 {
				t.Errorf("expected status 400, got %d", genErr.HTTPStatus())
			}
			if store.count() != 0 {
				t.Errorf("expected no record to be created, got %d", store.count())
			}
		})
	}
}

func TestGenerateDefaultsAspectRatio(t *testing.T) {
	store := newFakeStore()
	svc := NewGenerateService(store, &fakeGenerator{data: validImageData()}, &fakeObjects{}, GenerateConfig{
		Retry: noSleepPolicy(),
	})

	in := validInput()
	in.AspectRatio = ""

	rec, err := svc.Generate(context.Background(), testUser, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.AspectRatio != domain.AspectRatioWide {
		t.Errorf("expected default aspect ratio %s, got %s", domain.AspectRatioWide, rec.AspectRatio)
	}
}

func TestGenerateProviderErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   ErrorKind
		wantStatus int
	}{
		{"rate limited", &provider.Error{StatusCode: 429}, KindProviderRateLimited, 429},
		{"bad request", &provider.Error{StatusCode: 400, Detail: "prompt rejected"}, KindProviderBadRequest, 400},
		{"quota exceeded", &provider.Error{StatusCode: 402}, KindProviderQuota, 402},
		{"invalid key", &provider.Error{StatusCode: 401}, KindProviderAuth, 500},
		{"forbidden key", &provider.Error{StatusCode: 403}, KindProviderAuth, 500},
		{"upstream crash", &provider.Error{StatusCode: 503}, KindProviderFailed, 500},
		{"transport failure", fmt.Errorf("connection refused"), KindProviderFailed, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := NewGenerateService(store, &fakeGenerator{err: tt.err}, &fakeObjects{}, GenerateConfig{
				Retry: noSleepPolicy(),
			})

			_, err := svc.Generate(context.Background(), testUser, validInput())

			var genErr *GenerationError
			if !errors.As(err, &genErr) {
				t.Fatalf("expected GenerationError, got %v", err)
			}
			if genErr.Kind != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, genErr.Kind)
			}
			if genErr.HTTPStatus() != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, genErr.HTTPStatus())
			}
			if genErr.Thumbnail == nil {
				t.Fatal("expected the failed record to ride along with the error")
			}

			stored := store.only(t)
			if stored.IsGenerating {
				t.Error("record left with generating flag set")
			}
			if stored.ImageURL != "" {
				t.Errorf("failed record must keep an empty image URL, got %q", stored.ImageURL)
			}
			if stored.Status() != domain.ThumbnailStatusFailed {
				t.Errorf("expected status failed, got %s", stored.Status())
			}
		})
	}
}

// ctxAwareStore refuses writes once the given context is canceled, the way a
// real database driver would.
type ctxAwareStore struct {
	*fakeStore
}

func (s *ctxAwareStore) Create(ctx context.Context, rec *domain.Thumbnail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.fakeStore.Create(ctx, rec)
}

func (s *ctxAwareStore) Update(ctx context.Context, rec *domain.Thumbnail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.fakeStore.Update(ctx, rec)
}

// disconnectingGenerator cancels the caller's context mid-call and fails, the
// way a client disconnect during a long provider call looks from inside the
// pipeline.
type disconnectingGenerator struct {
	cancel context.CancelFunc
}

func (g *disconnectingGenerator) Generate(context.Context, string) ([]byte, error) {
	g.cancel()
	return nil, fmt.Errorf("failed to call image provider: %w", context.Canceled)
}

func TestGenerateSurvivesClientDisconnect(t *testing.T) {
	store := newFakeStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := NewGenerateService(&ctxAwareStore{fakeStore: store}, &disconnectingGenerator{cancel: cancel}, &fakeObjects{}, GenerateConfig{
		Retry: noSleepPolicy(),
	})

	_, err := svc.Generate(ctx, testUser, validInput())

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Kind != KindProviderFailed {
		t.Errorf("expected kind %s, got %s", KindProviderFailed, genErr.Kind)
	}

	// The caller is gone, but the record must still be reconciled.
	stored := store.only(t)
	if stored.IsGenerating {
		t.Error("record left with generating flag set after caller disconnect")
	}
	if stored.Status() != domain.ThumbnailStatusFailed {
		t.Errorf("expected status failed, got %s", stored.Status())
	}
}

func TestGenerateRateLimitedRetryAfter(t *testing.T) {
	store := newFakeStore()
	svc := NewGenerateService(store, &fakeGenerator{err: &provider.Error{StatusCode: 429}}, &fakeObjects{}, GenerateConfig{
		Retry: noSleepPolicy(),
	})

	_, err := svc.Generate(context.Background(), testUser, validInput())

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.RetryAfterSeconds() <= 0 {
		t.Error("expected a retry-after hint for rate limited errors")
	}
}

func TestGenerateCorruptPayload(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantKind ErrorKind
	}{
		{"empty payload", nil, KindProviderEmpty},
		{"two bytes", []byte{0x1, 0x2}, KindProviderCorrupt},
		{"just under threshold", bytes.Repeat([]byte{0x1}, 999), KindProviderCorrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := NewGenerateService(store, &fakeGenerator{data: tt.data}, &fakeObjects{}, GenerateConfig{
				Retry: noSleepPolicy(),
			})

			_, err := svc.Generate(context.Background(), testUser, validInput())

			var genErr *GenerationError
			if !errors.As(err, &genErr) {
				t.Fatalf("expected GenerationError, got %v", err)
			}
			if genErr.Kind != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, genErr.Kind)
			}
			if genErr.HTTPStatus() != 500 {
				t.Errorf("expected status 500, got %d", genErr.HTTPStatus())
			}

			stored := store.only(t)
			if stored.IsGenerating || stored.ImageURL != "" {
				t.Errorf("expected terminal failed record, got generating=%v url=%q", stored.IsGenerating, stored.ImageURL)
			}
		})
	}
}

func TestGenerateUploadRetrySucceeds(t *testing.T) {
	store := newFakeStore()
	objects := &fakeObjects{failures: 2}
	svc := NewGenerateService(store, &fakeGenerator{data: validImageData()}, objects, GenerateConfig{
		Retry: noSleepPolicy(),
	})

	rec, err := svc.Generate(context.Background(), testUser, validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if objects.uploads != 3 {
		t.Errorf("expected exactly 3 upload attempts, got %d", objects.uploads)
	}
	if rec.Status() != domain.ThumbnailStatusReady {
		t.Errorf("expected status ready, got %s", rec.Status())
	}
}

func TestGenerateUploadExhaustion(t *testing.T) {
	store := newFakeStore()
	objects := &fakeObjects{failures: 100}
	svc := NewGenerateService(store, &fakeGenerator{data: validImageData()}, objects, GenerateConfig{
		Retry: noSleepPolicy(),
	})

	_, err := svc.Generate(context.Background(), testUser, validInput())

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Kind != KindStorageUpload {
		t.Errorf("expected kind %s, got %s", KindStorageUpload, genErr.Kind)
	}
	if objects.uploads != 3 {
		t.Errorf("expected exactly 3 upload attempts, got %d", objects.uploads)
	}

	stored := store.only(t)
	if stored.IsGenerating || stored.ImageURL != "" {
		t.Errorf("expected terminal failed record, got generating=%v url=%q", stored.IsGenerating, stored.ImageURL)
	}
}

func TestGenerateMissingObjectStore(t *testing.T) {
	store := newFakeStore()
	svc := NewGenerateService(store, &fakeGenerator{data: validImageData()}, nil, GenerateConfig{
		Retry: noSleepPolicy(),
	})

	_, err := svc.Generate(context.Background(), testUser, validInput())

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Kind != KindStorageConfig {
		t.Errorf("expected kind %s, got %s", KindStorageConfig, genErr.Kind)
	}

	stored := store.only(t)
	if stored.IsGenerating {
		t.Error("record left with generating flag set")
	}
}
