package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID
	Email     string
	Username  string
	FullName  string
	PassHash  []byte
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmailVerification holds the single active verification record for a user.
// Reissuing a token overwrites this record in place.
type EmailVerification struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Token      string
	ExpiresAt  time.Time
	IsVerified bool
	IsDeleted  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsExpired reports whether the verification token is past its expiry.
func (v *EmailVerification) IsExpired() bool {
	return time.Now().After(v.ExpiresAt)
}

type Post struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	Content   string
	ExpiresAt *time.Time
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsExpired reports whether the post is past its optional expiry.
func (p *Post) IsExpired() bool {
	if p.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*p.ExpiresAt)
}

type Comment struct {
	ID        uuid.UUID
	PostID    uuid.UUID
	UserID    uuid.UUID
	Content   string
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PostLike struct {
	UserID    uuid.UUID
	PostID    uuid.UUID
	CreatedAt time.Time
}
