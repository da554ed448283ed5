package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// Repository implements simpleblog.Repository using PostgreSQL. The
// service layer pre-checks slugs and references for friendly errors;
// the unique and foreign key constraints here are the authoritative
// backstop against check-then-act races.
type Repository struct {
	pool *pgxpool.Pool
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// handlePostgresError translates constraint violations into domain
// errors so callers see the same taxonomy as with the memory
// repository.
func handlePostgresError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "email") {
				return simpleblog.ErrDuplicateEmail
			}
			if strings.Contains(pgErr.ConstraintName, "slug") {
				verr := simpleblog.NewValidationError()
				verr.Add("slug", "slug has already been taken")
				return verr
			}
		case "23503": // foreign_key_violation
			switch {
			case strings.Contains(pgErr.ConstraintName, "posts_category_id"):
				// Raised both by inserting a post with a missing
				// category and by deleting a category posts reference.
				if pgErr.TableName == "posts" && strings.Contains(strings.ToLower(pgErr.Detail), "not present") {
					return simpleblog.ErrCategoryNotFound
				}
				return simpleblog.ErrCategoryInUse
			case strings.Contains(pgErr.ConstraintName, "post_tags_tag_id"):
				return simpleblog.ErrTagNotFound
			case strings.Contains(pgErr.ConstraintName, "post_tags_post_id"):
				return simpleblog.ErrPostNotFound
			case strings.Contains(pgErr.ConstraintName, "posts_user_id"):
				return simpleblog.ErrUserNotFound
			}
		}
	}
	return err
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *simpleblog.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return handlePostgresError(err)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*simpleblog.User, error) {
	return r.getUserWhere(ctx, "id = $1", id)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*simpleblog.User, error) {
	return r.getUserWhere(ctx, "email = $1", email)
}

func (r *Repository) getUserWhere(ctx context.Context, where string, arg any) (*simpleblog.User, error) {
	query := `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users WHERE ` + where

	var user simpleblog.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleblog.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Category operations

func (r *Repository) CreateCategory(ctx context.Context, category *simpleblog.Category) error {
	query := `
		INSERT INTO categories (id, name, slug, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		category.ID, category.Name, category.Slug, category.Description,
		category.CreatedAt, category.UpdatedAt)
	if err != nil {
		return handlePostgresError(err)
	}
	return nil
}

func (r *Repository) GetCategory(ctx context.Context, id uuid.UUID) (*simpleblog.Category, error) {
	query := `
		SELECT c.id, c.name, c.slug, c.description, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM posts p WHERE p.category_id = c.id)
		FROM categories c WHERE c.id = $1`

	var category simpleblog.Category
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&category.ID, &category.Name, &category.Slug, &category.Description,
		&category.CreatedAt, &category.UpdatedAt, &category.PostCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleblog.ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, category *simpleblog.Category) error {
	query := `
		UPDATE categories SET name = $2, slug = $3, description = $4, updated_at = $5
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		category.ID, category.Name, category.Slug, category.Description, category.UpdatedAt)
	if err != nil {
		return handlePostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return simpleblog.ErrCategoryNotFound
	}
	return nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return handlePostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return simpleblog.ErrCategoryNotFound
	}
	return nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]*simpleblog.Category, error) {
	query := `
		SELECT c.id, c.name, c.slug, c.description, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM posts p WHERE p.category_id = c.id)
		FROM categories c ORDER BY c.created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*simpleblog.Category
	for rows.Next() {
		var category simpleblog.Category
		if err := rows.Scan(
			&category.ID, &category.Name, &category.Slug, &category.Description,
			&category.CreatedAt, &category.UpdatedAt, &category.PostCount); err != nil {
			return nil, err
		}
		categories = append(categories, &category)
	}
	return categories, rows.Err()
}

// Tag operations

func (r *Repository) CreateTag(ctx context.Context, tag *simpleblog.Tag) error {
	query := `
		INSERT INTO tags (id, name, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		tag.ID, tag.Name, tag.Slug, tag.CreatedAt, tag.UpdatedAt)
	if err != nil {
		return handlePostgresError(err)
	}
	return nil
}

func (r *Repository) GetTag(ctx context.Context, id uuid.UUID) (*simpleblog.Tag, error) {
	query := `
		SELECT t.id, t.name, t.slug, t.created_at, t.updated_at,
		       (SELECT COUNT(*) FROM post_tags pt WHERE pt.tag_id = t.id)
		FROM tags t WHERE t.id = $1`

	var tag simpleblog.Tag
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&tag.ID, &tag.Name, &tag.Slug, &tag.CreatedAt, &tag.UpdatedAt, &tag.PostCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleblog.ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

func (r *Repository) UpdateTag(ctx context.Context, tag *simpleblog.Tag) error {
	query := `UPDATE tags SET name = $2, slug = $3, updated_at = $4 WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, tag.ID, tag.Name, tag.Slug, tag.UpdatedAt)
	if err != nil {
		return handlePostgresError(err)
	}
	if ct.RowsAffected() == 0 {
		return simpleblog.ErrTagNotFound
	}
	return nil
}

func (r *Repository) DeleteTag(ctx context.Context, id uuid.UUID) error {
	// post_tags rows cascade via the schema.
	ct, err := r.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return handlePostgresError(err)
	}
	if ct.RowsAffected() == 0 {
		return simpleblog.ErrTagNotFound
	}
	return nil
}

func (r *Repository) ListTags(ctx context.Context) ([]*simpleblog.Tag, error) {
	query := `
		SELECT t.id, t.name, t.slug, t.created_at, t.updated_at,
		       (SELECT COUNT(*) FROM post_tags pt WHERE pt.tag_id = t.id)
		FROM tags t ORDER BY t.created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*simpleblog.Tag
	for rows.Next() {
		var tag simpleblog.Tag
		if err := rows.Scan(
			&tag.ID, &tag.Name, &tag.Slug, &tag.CreatedAt, &tag.UpdatedAt, &tag.PostCount); err != nil {
			return nil, err
		}
		tags = append(tags, &tag)
	}
	return tags, rows.Err()
}

// Post operations

const postColumns = `
	p.id, p.user_id, p.category_id, p.title, p.slug, p.excerpt, p.content,
	p.image, p.published, p.published_at, p.created_at, p.updated_at,
	u.id, u.name, u.email, u.created_at, u.updated_at,
	c.id, c.name, c.slug, c.description, c.created_at, c.updated_at`

const postJoins = `
	FROM posts p
	JOIN users u ON u.id = p.user_id
	JOIN categories c ON c.id = p.category_id`

func scanJoinedPost(row pgx.Row) (*simpleblog.Post, error) {
	var post simpleblog.Post
	var user simpleblog.User
	var category simpleblog.Category
	err := row.Scan(
		&post.ID, &post.UserID, &post.CategoryID, &post.Title, &post.Slug,
		&post.Excerpt, &post.Content, &post.Image, &post.Published,
		&post.PublishedAt, &post.CreatedAt, &post.UpdatedAt,
		&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt,
		&category.ID, &category.Name, &category.Slug, &category.Description,
		&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return nil, err
	}
	post.User = &user
	post.Category = &category
	return &post, nil
}

func (r *Repository) CreatePost(ctx context.Context, post *simpleblog.Post, tagIDs []uuid.UUID) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO posts (
				id, user_id, category_id, title, slug, excerpt, content,
				image, published, published_at, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

		_, err := tx.Exec(ctx, query,
			post.ID, post.UserID, post.CategoryID, post.Title, post.Slug,
			post.Excerpt, post.Content, post.Image, post.Published,
			post.PublishedAt, post.CreatedAt, post.UpdatedAt)
		if err != nil {
			return err
		}
		return attachTagsTx(ctx, tx, post.ID, tagIDs)
	})
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*simpleblog.Post, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+postColumns+postJoins+` WHERE p.id = $1`, id)
	post, err := scanJoinedPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleblog.ErrPostNotFound
		}
		return nil, err
	}

	tags, err := r.postTags(ctx, id)
	if err != nil {
		return nil, err
	}
	post.Tags = tags
	return post, nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *simpleblog.Post, tagIDs *[]uuid.UUID) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE posts SET
				category_id = $2, title = $3, slug = $4, excerpt = $5,
				content = $6, image = $7, published = $8, published_at = $9,
				updated_at = $10
			WHERE id = $1`

		ct, err := tx.Exec(ctx, query,
			post.ID, post.CategoryID, post.Title, post.Slug, post.Excerpt,
			post.Content, post.Image, post.Published, post.PublishedAt,
			post.UpdatedAt)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return simpleblog.ErrPostNotFound
		}
		if tagIDs != nil {
			return syncTagsTx(ctx, tx, post.ID, *tagIDs)
		}
		return nil
	})
}

func (r *Repository) DeletePost(ctx context.Context, id uuid.UUID) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM post_tags WHERE post_id = $1`, id); err != nil {
			return err
		}
		ct, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return simpleblog.ErrPostNotFound
		}
		return nil
	})
}

func (r *Repository) ListPosts(ctx context.Context) ([]*simpleblog.Post, error) {
	rows, err := r.pool.Query(ctx, `SELECT`+postColumns+postJoins+` ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*simpleblog.Post
	byID := make(map[uuid.UUID]*simpleblog.Post)
	for rows.Next() {
		post, err := scanJoinedPost(rows)
		if err != nil {
			return nil, err
		}
		post.Tags = []*simpleblog.Tag{}
		posts = append(posts, post)
		byID[post.ID] = post
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}

	ids := make([]uuid.UUID, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.ID)
	}

	tagQuery := `
		SELECT pt.post_id, t.id, t.name, t.slug, t.created_at, t.updated_at
		FROM post_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id = ANY($1)
		ORDER BY t.created_at`

	tagRows, err := r.pool.Query(ctx, tagQuery, ids)
	if err != nil {
		return nil, err
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var postID uuid.UUID
		var tag simpleblog.Tag
		if err := tagRows.Scan(&postID, &tag.ID, &tag.Name, &tag.Slug, &tag.CreatedAt, &tag.UpdatedAt); err != nil {
			return nil, err
		}
		if post, ok := byID[postID]; ok {
			post.Tags = append(post.Tags, &tag)
		}
	}
	return posts, tagRows.Err()
}

// Tag association operations

func (r *Repository) AttachPostTags(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return attachTagsTx(ctx, tx, postID, tagIDs)
	})
}

func (r *Repository) SyncPostTags(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return syncTagsTx(ctx, tx, postID, tagIDs)
	})
}

func attachTagsTx(ctx context.Context, tx pgx.Tx, postID uuid.UUID, tagIDs []uuid.UUID) error {
	for _, tagID := range tagIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2)
			ON CONFLICT (post_id, tag_id) DO NOTHING`, postID, tagID)
		if err != nil {
			return err
		}
	}
	return nil
}

func syncTagsTx(ctx context.Context, tx pgx.Tx, postID uuid.UUID, tagIDs []uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID); err != nil {
		return err
	}
	return attachTagsTx(ctx, tx, postID, tagIDs)
}

// Validation support

func (r *Repository) SlugInUse(ctx context.Context, kind simpleblog.SlugKind, slug string, excludeID uuid.UUID) (bool, error) {
	var query string
	switch kind {
	case simpleblog.SlugCategory:
		query = `SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1 AND id <> $2)`
	case simpleblog.SlugTag:
		query = `SELECT EXISTS (SELECT 1 FROM tags WHERE slug = $1 AND id <> $2)`
	case simpleblog.SlugPost:
		query = `SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)`
	default:
		return false, errors.New("unknown slug kind: " + string(kind))
	}

	var taken bool
	if err := r.pool.QueryRow(ctx, query, slug, excludeID).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

func (r *Repository) MissingTags(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT id FROM tags WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[uuid.UUID]bool, len(ids))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []uuid.UUID
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (r *Repository) CountPostsByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM posts WHERE category_id = $1`, categoryID).Scan(&count)
	return count, err
}

// postTags loads the tag set for one post.
func (r *Repository) postTags(ctx context.Context, postID uuid.UUID) ([]*simpleblog.Tag, error) {
	query := `
		SELECT t.id, t.name, t.slug, t.created_at, t.updated_at
		FROM post_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id = $1
		ORDER BY t.created_at`

	rows, err := r.pool.Query(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []*simpleblog.Tag{}
	for rows.Next() {
		var tag simpleblog.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Slug, &tag.CreatedAt, &tag.UpdatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, &tag)
	}
	return tags, rows.Err()
}

// inTx runs fn inside a transaction, translating constraint errors.
func (r *Repository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return handlePostgresError(err)
	}
	return tx.Commit(ctx)
}
