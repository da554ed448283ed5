package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// Repository implements simpleblog.Repository using in-memory storage.
// The mutex makes every operation atomic, which covers the
// transactional requirements the postgres repository meets with real
// transactions.
type Repository struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]*simpleblog.User
	categories map[uuid.UUID]*simpleblog.Category
	tags       map[uuid.UUID]*simpleblog.Tag
	posts      map[uuid.UUID]*simpleblog.Post
	postTags   map[uuid.UUID][]uuid.UUID // post_id -> []tag_id, attach order
}

// New creates a new in-memory repository
func New() simpleblog.Repository {
	return &Repository{
		users:      make(map[uuid.UUID]*simpleblog.User),
		categories: make(map[uuid.UUID]*simpleblog.Category),
		tags:       make(map[uuid.UUID]*simpleblog.Tag),
		posts:      make(map[uuid.UUID]*simpleblog.Post),
		postTags:   make(map[uuid.UUID][]uuid.UUID),
	}
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *simpleblog.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return simpleblog.ErrDuplicateEmail
		}
	}

	userCopy := *user
	r.users[user.ID] = &userCopy
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*simpleblog.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, simpleblog.ErrUserNotFound
	}
	userCopy := *user
	return &userCopy, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*simpleblog.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			userCopy := *user
			return &userCopy, nil
		}
	}
	return nil, simpleblog.ErrUserNotFound
}

// Category operations

func (r *Repository) CreateCategory(ctx context.Context, category *simpleblog.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slugInUseLocked(simpleblog.SlugCategory, category.Slug, category.ID) {
		return duplicateSlugError()
	}

	categoryCopy := *category
	r.categories[category.ID] = &categoryCopy
	return nil
}

func (r *Repository) GetCategory(ctx context.Context, id uuid.UUID) (*simpleblog.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	category, exists := r.categories[id]
	if !exists {
		return nil, simpleblog.ErrCategoryNotFound
	}
	categoryCopy := *category
	categoryCopy.PostCount = r.countPostsByCategoryLocked(id)
	return &categoryCopy, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, category *simpleblog.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.categories[category.ID]; !exists {
		return simpleblog.ErrCategoryNotFound
	}
	if r.slugInUseLocked(simpleblog.SlugCategory, category.Slug, category.ID) {
		return duplicateSlugError()
	}

	categoryCopy := *category
	r.categories[category.ID] = &categoryCopy
	return nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.categories[id]; !exists {
		return simpleblog.ErrCategoryNotFound
	}
	if r.countPostsByCategoryLocked(id) > 0 {
		return simpleblog.ErrCategoryInUse
	}

	delete(r.categories, id)
	return nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]*simpleblog.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*simpleblog.Category, 0, len(r.categories))
	for _, category := range r.categories {
		categoryCopy := *category
		categoryCopy.PostCount = r.countPostsByCategoryLocked(category.ID)
		result = append(result, &categoryCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Tag operations

func (r *Repository) CreateTag(ctx context.Context, tag *simpleblog.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slugInUseLocked(simpleblog.SlugTag, tag.Slug, tag.ID) {
		return duplicateSlugError()
	}

	tagCopy := *tag
	r.tags[tag.ID] = &tagCopy
	return nil
}

func (r *Repository) GetTag(ctx context.Context, id uuid.UUID) (*simpleblog.Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tag, exists := r.tags[id]
	if !exists {
		return nil, simpleblog.ErrTagNotFound
	}
	tagCopy := *tag
	tagCopy.PostCount = r.countPostsByTagLocked(id)
	return &tagCopy, nil
}

func (r *Repository) UpdateTag(ctx context.Context, tag *simpleblog.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tags[tag.ID]; !exists {
		return simpleblog.ErrTagNotFound
	}
	if r.slugInUseLocked(simpleblog.SlugTag, tag.Slug, tag.ID) {
		return duplicateSlugError()
	}

	tagCopy := *tag
	r.tags[tag.ID] = &tagCopy
	return nil
}

func (r *Repository) DeleteTag(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tags[id]; !exists {
		return simpleblog.ErrTagNotFound
	}

	delete(r.tags, id)
	// Cascade the link rows.
	for postID, tagIDs := range r.postTags {
		r.postTags[postID] = removeID(tagIDs, id)
	}
	return nil
}

func (r *Repository) ListTags(ctx context.Context) ([]*simpleblog.Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*simpleblog.Tag, 0, len(r.tags))
	for _, tag := range r.tags {
		tagCopy := *tag
		tagCopy.PostCount = r.countPostsByTagLocked(tag.ID)
		result = append(result, &tagCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Post operations

func (r *Repository) CreatePost(ctx context.Context, post *simpleblog.Post, tagIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slugInUseLocked(simpleblog.SlugPost, post.Slug, post.ID) {
		return duplicateSlugError()
	}
	if _, exists := r.categories[post.CategoryID]; !exists {
		return simpleblog.ErrCategoryNotFound
	}
	for _, tagID := range tagIDs {
		if _, exists := r.tags[tagID]; !exists {
			return simpleblog.ErrTagNotFound
		}
	}

	postCopy := *post
	postCopy.User = nil
	postCopy.Category = nil
	postCopy.Tags = nil
	r.posts[post.ID] = &postCopy
	r.postTags[post.ID] = appendMissing(nil, tagIDs)
	return nil
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*simpleblog.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, exists := r.posts[id]
	if !exists {
		return nil, simpleblog.ErrPostNotFound
	}
	return r.joinPostLocked(post), nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *simpleblog.Post, tagIDs *[]uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[post.ID]; !exists {
		return simpleblog.ErrPostNotFound
	}
	if r.slugInUseLocked(simpleblog.SlugPost, post.Slug, post.ID) {
		return duplicateSlugError()
	}
	if _, exists := r.categories[post.CategoryID]; !exists {
		return simpleblog.ErrCategoryNotFound
	}
	if tagIDs != nil {
		for _, tagID := range *tagIDs {
			if _, exists := r.tags[tagID]; !exists {
				return simpleblog.ErrTagNotFound
			}
		}
	}

	postCopy := *post
	postCopy.User = nil
	postCopy.Category = nil
	postCopy.Tags = nil
	r.posts[post.ID] = &postCopy
	if tagIDs != nil {
		r.postTags[post.ID] = appendMissing(nil, *tagIDs)
	}
	return nil
}

func (r *Repository) DeletePost(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[id]; !exists {
		return simpleblog.ErrPostNotFound
	}

	delete(r.posts, id)
	delete(r.postTags, id)
	return nil
}

func (r *Repository) ListPosts(ctx context.Context) ([]*simpleblog.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*simpleblog.Post, 0, len(r.posts))
	for _, post := range r.posts {
		result = append(result, r.joinPostLocked(post))
	}

	// Sort by created_at descending
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Tag association operations

func (r *Repository) AttachPostTags(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[postID]; !exists {
		return simpleblog.ErrPostNotFound
	}
	for _, tagID := range tagIDs {
		if _, exists := r.tags[tagID]; !exists {
			return simpleblog.ErrTagNotFound
		}
	}

	r.postTags[postID] = appendMissing(r.postTags[postID], tagIDs)
	return nil
}

func (r *Repository) SyncPostTags(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[postID]; !exists {
		return simpleblog.ErrPostNotFound
	}
	for _, tagID := range tagIDs {
		if _, exists := r.tags[tagID]; !exists {
			return simpleblog.ErrTagNotFound
		}
	}

	r.postTags[postID] = appendMissing(nil, tagIDs)
	return nil
}

// Validation support

func (r *Repository) SlugInUse(ctx context.Context, kind simpleblog.SlugKind, slug string, excludeID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slugInUseLocked(kind, slug, excludeID), nil
}

func (r *Repository) MissingTags(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []uuid.UUID
	for _, id := range ids {
		if _, exists := r.tags[id]; !exists {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (r *Repository) CountPostsByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.countPostsByCategoryLocked(categoryID), nil
}

// Internal helpers (callers hold the lock)

func (r *Repository) slugInUseLocked(kind simpleblog.SlugKind, slug string, excludeID uuid.UUID) bool {
	switch kind {
	case simpleblog.SlugCategory:
		for _, c := range r.categories {
			if c.Slug == slug && c.ID != excludeID {
				return true
			}
		}
	case simpleblog.SlugTag:
		for _, t := range r.tags {
			if t.Slug == slug && t.ID != excludeID {
				return true
			}
		}
	case simpleblog.SlugPost:
		for _, p := range r.posts {
			if p.Slug == slug && p.ID != excludeID {
				return true
			}
		}
	}
	return false
}

func (r *Repository) countPostsByCategoryLocked(categoryID uuid.UUID) int64 {
	var count int64
	for _, post := range r.posts {
		if post.CategoryID == categoryID {
			count++
		}
	}
	return count
}

func (r *Repository) countPostsByTagLocked(tagID uuid.UUID) int64 {
	var count int64
	for _, tagIDs := range r.postTags {
		for _, id := range tagIDs {
			if id == tagID {
				count++
				break
			}
		}
	}
	return count
}

func (r *Repository) joinPostLocked(post *simpleblog.Post) *simpleblog.Post {
	postCopy := *post
	if user, exists := r.users[post.UserID]; exists {
		userCopy := *user
		postCopy.User = &userCopy
	}
	if category, exists := r.categories[post.CategoryID]; exists {
		categoryCopy := *category
		postCopy.Category = &categoryCopy
	}
	postCopy.Tags = make([]*simpleblog.Tag, 0, len(r.postTags[post.ID]))
	for _, tagID := range r.postTags[post.ID] {
		if tag, exists := r.tags[tagID]; exists {
			tagCopy := *tag
			postCopy.Tags = append(postCopy.Tags, &tagCopy)
		}
	}
	return &postCopy
}

func duplicateSlugError() error {
	verr := simpleblog.NewValidationError()
	verr.Add("slug", "slug has already been taken")
	return verr
}

func appendMissing(dst []uuid.UUID, ids []uuid.UUID) []uuid.UUID {
	for _, id := range ids {
		found := false
		for _, existing := range dst {
			if existing == id {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, id)
		}
	}
	return dst
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	result := ids[:0]
	for _, existing := range ids {
		if existing != id {
			result = append(result, existing)
		}
	}
	return result
}
