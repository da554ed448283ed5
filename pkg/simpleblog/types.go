package simpleblog

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated identity that owns posts. Users are created
// through the auth collaborator and are never mutated by this package.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Category groups posts one-to-many. Slug is unique across categories.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	PostCount   int64     `json:"posts_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Tag labels posts many-to-many. Slug is unique across tags.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	PostCount int64     `json:"posts_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Post is the central entity. UserID is set once at creation from the
// acting user and never changed by update.
//
// Published and PublishedAt are independent plain fields; the service
// enforces no transition rules between them.
type Post struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	CategoryID  uuid.UUID  `json:"category_id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Content     string     `json:"content"`
	Image       string     `json:"image,omitempty"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations, populated by the repository on reads.
	User     *User     `json:"user,omitempty"`
	Category *Category `json:"category,omitempty"`
	Tags     []*Tag    `json:"tags"`
}

// OwnedBy implements Owned.
func (p *Post) OwnedBy() uuid.UUID { return p.UserID }
