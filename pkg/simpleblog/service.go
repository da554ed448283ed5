package simpleblog

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Service defines the main interface for the simple-blog library.
//
// Read operations are public. Post mutations take the acting user
// explicitly and fail with ErrNotOwner when it is not the post owner;
// the authorization check precedes field validation. Category and tag
// mutations carry no ownership (any authenticated caller may invoke
// them; authentication itself is the transport layer's concern).
type Service interface {
	// Category operations
	ListCategories(ctx context.Context) ([]*Category, error)
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	// Tag operations
	ListTags(ctx context.Context) ([]*Tag, error)
	CreateTag(ctx context.Context, req CreateTagRequest) (*Tag, error)
	GetTag(ctx context.Context, id uuid.UUID) (*Tag, error)
	UpdateTag(ctx context.Context, id uuid.UUID, req UpdateTagRequest) (*Tag, error)
	DeleteTag(ctx context.Context, id uuid.UUID) error

	// Tag association operations
	AttachTags(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error
	SyncTags(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error

	// Post operations
	ListPosts(ctx context.Context) ([]*Post, error)
	CreatePost(ctx context.Context, actor *User, req CreatePostRequest) (*Post, error)
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	UpdatePost(ctx context.Context, actor *User, id uuid.UUID, req UpdatePostRequest) (*Post, error)
	DeletePost(ctx context.Context, actor *User, id uuid.UUID) error

	// Post image operations (owner-gated like any post mutation)
	SetPostImage(ctx context.Context, actor *User, id uuid.UUID, contentType string, reader io.Reader) (*Post, error)
	OpenPostImage(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)
}
