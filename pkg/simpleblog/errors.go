package simpleblog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrUserNotFound indicates a user was not found
	ErrUserNotFound = errors.New("user not found")

	// ErrCategoryNotFound indicates a category was not found
	ErrCategoryNotFound = errors.New("category not found")

	// ErrTagNotFound indicates a tag was not found
	ErrTagNotFound = errors.New("tag not found")

	// ErrPostNotFound indicates a post was not found
	ErrPostNotFound = errors.New("post not found")

	// ErrImageNotFound indicates a post has no stored image
	ErrImageNotFound = errors.New("post image not found")

	// ErrNotOwner indicates the acting user does not own the post it is
	// trying to mutate
	ErrNotOwner = errors.New("acting user is not the post owner")

	// ErrCategoryInUse indicates a category cannot be deleted because
	// posts still reference it
	ErrCategoryInUse = errors.New("category is referenced by existing posts")

	// ErrDuplicateEmail indicates the email is already registered
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrNoBlobStore indicates no blob store was configured for image
	// operations
	ErrNoBlobStore = errors.New("no blob store configured")
)

// ValidationError carries per-field messages for a rejected write. All
// fields are checked before the error is returned, so every violation
// in the request is reported.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add appends a message for the given field.
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty reports whether no violations were recorded.
func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e.Fields[f], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// PostError represents an error related to post operations
type PostError struct {
	PostID uuid.UUID
	Op     string
	Err    error
}

func (e *PostError) Error() string {
	return fmt.Sprintf("post operation %s failed for post %s: %v", e.Op, e.PostID, e.Err)
}

func (e *PostError) Unwrap() error {
	return e.Err
}
