package simpleblog

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// SlugKind scopes a slug-uniqueness check to one entity set.
type SlugKind string

const (
	SlugCategory SlugKind = "categories"
	SlugTag      SlugKind = "tags"
	SlugPost     SlugKind = "posts"
)

// Repository defines the interface for blog persistence.
//
// Multi-statement post operations (create with attach, update with
// sync, delete with association cleanup) must be atomic: a crash
// mid-operation may not leave a post updated but its tags stale, or
// vice versa.
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// Category operations
	CreateCategory(ctx context.Context, category *Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	UpdateCategory(ctx context.Context, category *Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]*Category, error)

	// Tag operations
	CreateTag(ctx context.Context, tag *Tag) error
	GetTag(ctx context.Context, id uuid.UUID) (*Tag, error)
	UpdateTag(ctx context.Context, tag *Tag) error
	DeleteTag(ctx context.Context, id uuid.UUID) error
	ListTags(ctx context.Context) ([]*Tag, error)

	// Post operations. Reads return posts joined with user, category
	// and tags; ListPosts orders by creation time descending.
	CreatePost(ctx context.Context, post *Post, tagIDs []uuid.UUID) error
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	UpdatePost(ctx context.Context, post *Post, tagIDs *[]uuid.UUID) error
	DeletePost(ctx context.Context, id uuid.UUID) error
	ListPosts(ctx context.Context) ([]*Post, error)

	// Tag association operations. Attach adds links not already
	// present; Sync replaces the full set.
	AttachPostTags(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error
	SyncPostTags(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error

	// SlugInUse reports whether slug is taken within the given entity
	// set by a record other than excludeID. Pass uuid.Nil to exclude
	// nothing.
	SlugInUse(ctx context.Context, kind SlugKind, slug string, excludeID uuid.UUID) (bool, error)

	// MissingTags returns the subset of ids that do not reference an
	// existing tag.
	MissingTags(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)

	// CountPostsByCategory returns how many posts reference the
	// category.
	CountPostsByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
}

// BlobStore defines the interface for post image storage backends.
type BlobStore interface {
	// Upload stores the blob under key, replacing any prior blob.
	Upload(ctx context.Context, key, contentType string, reader io.Reader) error

	// Download opens the blob stored under key.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob stored under key.
	Delete(ctx context.Context, key string) error

	// GetDownloadURL returns a URL for downloading the blob, when the
	// backend supports URL access.
	GetDownloadURL(ctx context.Context, key string) (string, error)
}
