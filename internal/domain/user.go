package domain

import "time"

// User represents a registered account.
// The password hash is never serialized to JSON.
type User struct {
	ID           string    `gorm:"type:text;primaryKey" json:"id"`
	Name         string    `gorm:"type:text;not null" json:"name"`
	Email        string    `gorm:"type:text;not null;uniqueIndex:idx_users_email" json:"email"`
	PasswordHash string    `gorm:"type:text;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string {
	return "users"
}

// Session represents a server-side login session keyed by an opaque token.
type Session struct {
	Token     string    `gorm:"type:text;primaryKey" json:"token"`
	UserID    string    `gorm:"type:text;not null;index:idx_sessions_user" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Session.
func (Session) TableName() string {
	return "sessions"
}

// Expired reports whether the session is past its expiry at the given time.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
