package simpleblog

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs. Create requests carry full entities; Update requests
// use pointer fields so omitted fields keep their prior value.

// CreateCategoryRequest contains parameters for creating a category
type CreateCategoryRequest struct {
	Name        string
	Slug        string
	Description string
}

// UpdateCategoryRequest contains partial fields for updating a category
type UpdateCategoryRequest struct {
	Name        *string
	Slug        *string
	Description *string
}

// CreateTagRequest contains parameters for creating a tag
type CreateTagRequest struct {
	Name string
	Slug string
}

// UpdateTagRequest contains partial fields for updating a tag
type UpdateTagRequest struct {
	Name *string
	Slug *string
}

// CreatePostRequest contains parameters for creating a post. The owner
// is the acting user passed to CreatePost, not part of the request.
type CreatePostRequest struct {
	Title       string
	Slug        string
	Excerpt     string
	Content     string
	Image       string
	CategoryID  uuid.UUID
	Published   bool
	PublishedAt *time.Time
	TagIDs      []uuid.UUID
}

// UpdatePostRequest contains partial fields for updating a post.
//
// TagIDs distinguishes "omitted" from "empty": nil leaves the tag set
// untouched, a non-nil empty slice clears it.
type UpdatePostRequest struct {
	Title       *string
	Slug        *string
	Excerpt     *string
	Content     *string
	Image       *string
	CategoryID  *uuid.UUID
	Published   *bool
	PublishedAt *time.Time
	TagIDs      *[]uuid.UUID
}
