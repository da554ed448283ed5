package simpleblog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository Repository
	blobStore  BlobStore
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the blob store used for post images
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}

	return s, nil
}

// Category operations

func (s *service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.repository.ListCategories(ctx)
}

func (s *service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error) {
	verr := NewValidationError()
	if req.Name == "" {
		verr.Add("name", "name is required")
	}
	if err := s.checkSlug(ctx, verr, SlugCategory, req.Slug, uuid.Nil); err != nil {
		return nil, err
	}
	if !verr.Empty() {
		return nil, verr
	}

	now := time.Now().UTC()
	category := &Category{
		ID:          uuid.New(),
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repository.CreateCategory(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

func (s *service) GetCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	return s.repository.GetCategory(ctx, id)
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*Category, error) {
	category, err := s.repository.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := NewValidationError()
	if req.Name != nil && *req.Name == "" {
		verr.Add("name", "name is required")
	}
	if req.Slug != nil {
		if err := s.checkSlug(ctx, verr, SlugCategory, *req.Slug, id); err != nil {
			return nil, err
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Slug != nil {
		category.Slug = *req.Slug
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	category.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repository.GetCategory(ctx, id); err != nil {
		return err
	}

	// Restrict policy: a category still referenced by posts cannot be
	// deleted. The postgres foreign key is the backstop for the race
	// between this check and the delete.
	count, err := s.repository.CountPostsByCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse
	}

	return s.repository.DeleteCategory(ctx, id)
}

// Tag operations

func (s *service) ListTags(ctx context.Context) ([]*Tag, error) {
	return s.repository.ListTags(ctx)
}

func (s *service) CreateTag(ctx context.Context, req CreateTagRequest) (*Tag, error) {
	verr := NewValidationError()
	if req.Name == "" {
		verr.Add("name", "name is required")
	}
	if err := s.checkSlug(ctx, verr, SlugTag, req.Slug, uuid.Nil); err != nil {
		return nil, err
	}
	if !verr.Empty() {
		return nil, verr
	}

	now := time.Now().UTC()
	tag := &Tag{
		ID:        uuid.New(),
		Name:      req.Name,
		Slug:      req.Slug,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repository.CreateTag(ctx, tag); err != nil {
		return nil, err
	}

	return tag, nil
}

func (s *service) GetTag(ctx context.Context, id uuid.UUID) (*Tag, error) {
	return s.repository.GetTag(ctx, id)
}

func (s *service) UpdateTag(ctx context.Context, id uuid.UUID, req UpdateTagRequest) (*Tag, error) {
	tag, err := s.repository.GetTag(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := NewValidationError()
	if req.Name != nil && *req.Name == "" {
		verr.Add("name", "name is required")
	}
	if req.Slug != nil {
		if err := s.checkSlug(ctx, verr, SlugTag, *req.Slug, id); err != nil {
			return nil, err
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	if req.Name != nil {
		tag.Name = *req.Name
	}
	if req.Slug != nil {
		tag.Slug = *req.Slug
	}
	tag.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateTag(ctx, tag); err != nil {
		return nil, err
	}

	return tag, nil
}

func (s *service) DeleteTag(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repository.GetTag(ctx, id); err != nil {
		return err
	}
	// Associations are pure link rows; the repository cascades them.
	return s.repository.DeleteTag(ctx, id)
}

// Tag association operations

func (s *service) AttachTags(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error {
	if _, err := s.repository.GetPost(ctx, postID); err != nil {
		return err
	}
	if err := s.checkTagsExist(ctx, tagIDs); err != nil {
		return err
	}
	return s.repository.AttachPostTags(ctx, postID, tagIDs)
}

func (s *service) SyncTags(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error {
	if _, err := s.repository.GetPost(ctx, postID); err != nil {
		return err
	}
	if err := s.checkTagsExist(ctx, tagIDs); err != nil {
		return err
	}
	return s.repository.SyncPostTags(ctx, postID, tagIDs)
}

// Post operations

func (s *service) ListPosts(ctx context.Context) ([]*Post, error) {
	return s.repository.ListPosts(ctx)
}

func (s *service) CreatePost(ctx context.Context, actor *User, req CreatePostRequest) (*Post, error) {
	if actor == nil {
		return nil, ErrNotOwner
	}

	verr := NewValidationError()
	if req.Title == "" {
		verr.Add("title", "title is required")
	}
	if req.Content == "" {
		verr.Add("content", "content is required")
	}
	if err := s.checkSlug(ctx, verr, SlugPost, req.Slug, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, verr, req.CategoryID); err != nil {
		return nil, err
	}
	if err := s.checkTags(ctx, verr, req.TagIDs); err != nil {
		return nil, err
	}
	if !verr.Empty() {
		return nil, verr
	}

	now := time.Now().UTC()
	post := &Post{
		ID:          uuid.New(),
		UserID:      actor.ID,
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Slug:        req.Slug,
		Excerpt:     req.Excerpt,
		Content:     req.Content,
		Image:       req.Image,
		Published:   req.Published,
		PublishedAt: req.PublishedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repository.CreatePost(ctx, post, req.TagIDs); err != nil {
		return nil, &PostError{PostID: post.ID, Op: "create", Err: err}
	}

	return s.repository.GetPost(ctx, post.ID)
}

func (s *service) GetPost(ctx context.Context, id uuid.UUID) (*Post, error) {
	return s.repository.GetPost(ctx, id)
}

func (s *service) UpdatePost(ctx context.Context, actor *User, id uuid.UUID, req UpdatePostRequest) (*Post, error) {
	post, err := s.repository.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	// Ownership precedes validation: a non-owner gets ErrNotOwner even
	// when the payload is malformed.
	if !CanModify(actor, post) {
		return nil, ErrNotOwner
	}

	verr := NewValidationError()
	if req.Title != nil && *req.Title == "" {
		verr.Add("title", "title is required")
	}
	if req.Content != nil && *req.Content == "" {
		verr.Add("content", "content is required")
	}
	if req.Slug != nil {
		if err := s.checkSlug(ctx, verr, SlugPost, *req.Slug, id); err != nil {
			return nil, err
		}
	}
	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, verr, *req.CategoryID); err != nil {
			return nil, err
		}
	}
	if req.TagIDs != nil {
		if err := s.checkTags(ctx, verr, *req.TagIDs); err != nil {
			return nil, err
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Slug != nil {
		post.Slug = *req.Slug
	}
	if req.Excerpt != nil {
		post.Excerpt = *req.Excerpt
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.Image != nil {
		post.Image = *req.Image
	}
	if req.CategoryID != nil {
		post.CategoryID = *req.CategoryID
	}
	if req.Published != nil {
		post.Published = *req.Published
	}
	if req.PublishedAt != nil {
		post.PublishedAt = req.PublishedAt
	}
	post.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdatePost(ctx, post, req.TagIDs); err != nil {
		return nil, &PostError{PostID: id, Op: "update", Err: err}
	}

	return s.repository.GetPost(ctx, id)
}

func (s *service) DeletePost(ctx context.Context, actor *User, id uuid.UUID) error {
	post, err := s.repository.GetPost(ctx, id)
	if err != nil {
		return err
	}

	if !CanModify(actor, post) {
		return ErrNotOwner
	}

	if err := s.repository.DeletePost(ctx, id); err != nil {
		return &PostError{PostID: id, Op: "delete", Err: err}
	}

	return nil
}

// Post image operations

func (s *service) SetPostImage(ctx context.Context, actor *User, id uuid.UUID, contentType string, reader io.Reader) (*Post, error) {
	if s.blobStore == nil {
		return nil, ErrNoBlobStore
	}

	post, err := s.repository.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanModify(actor, post) {
		return nil, ErrNotOwner
	}

	key := postImageKey(id)
	if err := s.blobStore.Upload(ctx, key, contentType, reader); err != nil {
		return nil, &PostError{PostID: id, Op: "set_image", Err: err}
	}

	post.Image = key
	post.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdatePost(ctx, post, nil); err != nil {
		return nil, &PostError{PostID: id, Op: "set_image", Err: err}
	}

	return s.repository.GetPost(ctx, id)
}

func (s *service) OpenPostImage(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	if s.blobStore == nil {
		return nil, ErrNoBlobStore
	}

	post, err := s.repository.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Image == "" {
		return nil, ErrImageNotFound
	}

	return s.blobStore.Download(ctx, post.Image)
}

func postImageKey(id uuid.UUID) string {
	return fmt.Sprintf("posts/%s/image", id)
}

// Validation helpers. Each records violations on verr and returns a
// non-nil error only for repository failures.

func (s *service) checkSlug(ctx context.Context, verr *ValidationError, kind SlugKind, slug string, excludeID uuid.UUID) error {
	if slug == "" {
		verr.Add("slug", "slug is required")
		return nil
	}
	taken, err := s.repository.SlugInUse(ctx, kind, slug, excludeID)
	if err != nil {
		return err
	}
	if taken {
		verr.Add("slug", "slug has already been taken")
	}
	return nil
}

func (s *service) checkCategory(ctx context.Context, verr *ValidationError, id uuid.UUID) error {
	if id == uuid.Nil {
		verr.Add("category_id", "category_id is required")
		return nil
	}
	_, err := s.repository.GetCategory(ctx, id)
	if errors.Is(err, ErrCategoryNotFound) {
		verr.Add("category_id", "selected category does not exist")
		return nil
	}
	return err
}

func (s *service) checkTags(ctx context.Context, verr *ValidationError, ids []uuid.UUID) error {
	missing, err := s.repository.MissingTags(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		verr.Add("tags", "one or more selected tags do not exist")
	}
	return nil
}

func (s *service) checkTagsExist(ctx context.Context, ids []uuid.UUID) error {
	verr := NewValidationError()
	if err := s.checkTags(ctx, verr, ids); err != nil {
		return err
	}
	if !verr.Empty() {
		return verr
	}
	return nil
}
