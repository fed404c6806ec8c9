package domain

import "time"

// ThumbnailStatus represents the observable lifecycle state of a thumbnail.
// Values include ThumbnailStatusPending, ThumbnailStatusReady, and ThumbnailStatusFailed.
type ThumbnailStatus string

const (
	ThumbnailStatusPending ThumbnailStatus = "pending"
	ThumbnailStatusReady   ThumbnailStatus = "ready"
	ThumbnailStatusFailed  ThumbnailStatus = "failed"
)

// Thumbnail styles accepted by the generator.
const (
	StyleBoldGraphic    = "Bold & Graphic"
	StyleTechFuturistic = "Tech/Futuristic"
	StyleMinimalist     = "Minimalist"
	StylePhotorealistic = "Photorealistic"
	StyleIllustrated    = "Illustrated"
)

// Aspect ratios accepted by the generator.
const (
	AspectRatioWide     = "16:9"
	AspectRatioSquare   = "1:1"
	AspectRatioVertical = "9:16"
)

// MaxTitleLength bounds the title field; the client enforces the same limit.
const MaxTitleLength = 100

// Thumbnail represents a single generation request and its result.
// A record is created in the pending state before any external call is made,
// so polling clients always observe it even if generation later fails.
type Thumbnail struct {
	ID           string    `gorm:"type:text;primaryKey" json:"id"`
	UserID       string    `gorm:"type:text;not null;index:idx_thumbnails_user" json:"user_id"`
	Title        string    `gorm:"type:text;not null" json:"title"`
	UserPrompt   string    `gorm:"type:text" json:"user_prompt"`
	PromptUsed   string    `gorm:"type:text" json:"prompt_used"`
	Style        string    `gorm:"type:text;not null" json:"style"`
	AspectRatio  string    `gorm:"type:text;default:16:9" json:"aspect_ratio"`
	ColorScheme  string    `gorm:"type:text" json:"color_scheme"`
	TextOverlay  bool      `json:"text_overlay"`
	ImageURL     string    `gorm:"type:text" json:"image_url"`
	IsGenerating bool      `gorm:"index:idx_thumbnails_generating" json:"is_generating"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Format       string    `gorm:"type:text" json:"format"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for Thumbnail.
func (Thumbnail) TableName() string {
	return "thumbnails"
}

// Status derives the lifecycle state from the generating flag and image URL.
// Pending while generating, ready once a URL is set, failed otherwise.
func (t Thumbnail) Status() ThumbnailStatus {
	switch {
	case t.ImageURL != "":
		return ThumbnailStatusReady
	case t.IsGenerating:
		return ThumbnailStatusPending
	default:
		return ThumbnailStatusFailed
	}
}

// WithReady returns a copy of the record marked as successfully generated.
// The image URL is set exactly once; callers must not transition a record
// that already has one.
func (t Thumbnail) WithReady(imageURL string, width, height int, format string) Thumbnail {
	t.ImageURL = imageURL
	t.IsGenerating = false
	t.Width = width
	t.Height = height
	t.Format = format
	return t
}

// WithFailed returns a copy of the record marked as terminally failed.
// The image URL stays empty so clients can distinguish failed from ready.
func (t Thumbnail) WithFailed() Thumbnail {
	t.IsGenerating = false
	return t
}

// Normalized returns a copy with every optional field coerced to a typed
// default, so consumers never see absent values.
func (t Thumbnail) Normalized() Thumbnail {
	if t.AspectRatio == "" {
		t.AspectRatio = AspectRatioWide
	}
	return t
}

// ValidStyle reports whether s is one of the accepted thumbnail styles.
func ValidStyle(s string) bool {
	switch s {
	case StyleBoldGraphic, StyleTechFuturistic, StyleMinimalist, StylePhotorealistic, StyleIllustrated:
		return true
	}
	return false
}

// ValidAspectRatio reports whether r is one of the accepted aspect ratios.
func ValidAspectRatio(r string) bool {
	switch r {
	case AspectRatioWide, AspectRatioSquare, AspectRatioVertical:
		return true
	}
	return false
}
