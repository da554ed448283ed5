package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-blog/pkg/simpleblog"
	"github.com/tendant/simple-blog/pkg/simpleblog/auth"
	"github.com/tendant/simple-blog/pkg/simpleblog/repo/memory"
	memorystorage "github.com/tendant/simple-blog/pkg/simpleblog/storage/memory"
)

type testEnv struct {
	router  chi.Router
	service simpleblog.Service
	auth    *auth.Service
}

// setupHandlerTest wires the full route tree against in-memory backends
func setupHandlerTest(t *testing.T) *testEnv {
	repo := memory.New()
	service, err := simpleblog.New(
		simpleblog.WithRepository(repo),
		simpleblog.WithBlobStore(memorystorage.New()),
	)
	require.NoError(t, err)

	authService := auth.New(repo, "test-secret")

	router := chi.NewRouter()
	router.Mount("/auth", NewAuthHandler(authService).Routes())
	router.Mount("/posts", NewPostHandler(service, authService).Routes())
	router.Mount("/categories", NewCategoryHandler(service, authService).Routes())
	router.Mount("/tags", NewTagHandler(service, authService).Routes())

	return &testEnv{router: router, service: service, auth: authService}
}

func (e *testEnv) registerUser(t *testing.T, email string) (*simpleblog.User, string) {
	t.Helper()
	user, token, err := e.auth.Register(context.Background(), auth.RegisterRequest{
		Name:     "Test User",
		Email:    email,
		Password: "password",
	})
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
}

func TestAuthEndpoints(t *testing.T) {
	env := setupHandlerTest(t)

	t.Run("Register", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
			"name":     "Jane",
			"email":    "jane@example.com",
			"password": "secret123",
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		var resp TokenResponse
		decodeBody(t, w, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "jane@example.com", resp.User.Email)
		// The password hash is not serialized.
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("RegisterDuplicateEmail", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
			"name":     "Imposter",
			"email":    "jane@example.com",
			"password": "secret123",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var resp ValidationResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, "The given data was invalid.", resp.Message)
		assert.Contains(t, resp.Errors["email"], "email has already been taken")
	})

	t.Run("LoginWrongPassword", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "jane@example.com",
			"password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Me", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "jane@example.com",
			"password": "secret123",
		})
		require.Equal(t, http.StatusOK, w.Code)
		var resp TokenResponse
		decodeBody(t, w, &resp)

		me := env.do(t, http.MethodGet, "/auth/me", resp.Token, nil)
		assert.Equal(t, http.StatusOK, me.Code)

		var user simpleblog.User
		decodeBody(t, me, &user)
		assert.Equal(t, "jane@example.com", user.Email)
	})

	t.Run("MeWithoutToken", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCategoryEndpoints(t *testing.T) {
	env := setupHandlerTest(t)
	_, token := env.registerUser(t, "writer@example.com")

	t.Run("CreateRequiresToken", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/categories", "", map[string]string{
			"name": "Tech", "slug": "tech",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"message":"Unauthenticated"}`, w.Body.String())
	})

	t.Run("Create", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/categories", token, map[string]string{
			"name": "Tech", "slug": "tech", "description": "Tech posts",
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		var category simpleblog.Category
		decodeBody(t, w, &category)
		assert.Equal(t, "tech", category.Slug)
	})

	t.Run("CreateDuplicateSlug", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/categories", token, map[string]string{
			"name": "Tech Again", "slug": "tech",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var resp ValidationResponse
		decodeBody(t, w, &resp)
		assert.Contains(t, resp.Errors["slug"], "slug has already been taken")
	})

	t.Run("ListIsPublic", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/categories", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var categories []*simpleblog.Category
		decodeBody(t, w, &categories)
		assert.Len(t, categories, 1)
	})

	t.Run("GetUnknownID", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/categories/"+uuid.NewString(), "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("GetMalformedID", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/categories/not-a-uuid", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		created := env.do(t, http.MethodPost, "/categories", token, map[string]string{
			"name": "Doomed", "slug": "doomed",
		})
		require.Equal(t, http.StatusCreated, created.Code)
		var category simpleblog.Category
		decodeBody(t, created, &category)

		w := env.do(t, http.MethodDelete, "/categories/"+category.ID.String(), token, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Category deleted successfully"}`, w.Body.String())
	})
}

func TestPostEndpoints(t *testing.T) {
	env := setupHandlerTest(t)
	ctx := context.Background()

	_, ownerToken := env.registerUser(t, "owner@example.com")
	_, otherToken := env.registerUser(t, "other@example.com")

	category, err := env.service.CreateCategory(ctx, simpleblog.CreateCategoryRequest{
		Name: "General", Slug: "general",
	})
	require.NoError(t, err)
	tag, err := env.service.CreateTag(ctx, simpleblog.CreateTagRequest{
		Name: "Go", Slug: "go",
	})
	require.NoError(t, err)

	var postID uuid.UUID

	t.Run("Create", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/posts", ownerToken, map[string]interface{}{
			"title":       "Hello",
			"slug":        "hello",
			"content":     "Hello world",
			"category_id": category.ID,
			"tags":        []uuid.UUID{tag.ID},
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		var post simpleblog.Post
		decodeBody(t, w, &post)
		postID = post.ID
		require.NotNil(t, post.Category)
		assert.Equal(t, "general", post.Category.Slug)
		require.Len(t, post.Tags, 1)
	})

	t.Run("CreateInvalidPayload", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/posts", ownerToken, map[string]interface{}{})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var resp ValidationResponse
		decodeBody(t, w, &resp)
		assert.Contains(t, resp.Errors, "title")
		assert.Contains(t, resp.Errors, "slug")
	})

	t.Run("UpdateByNonOwner", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/posts/"+postID.String(), otherToken, map[string]string{
			"title": "Hijacked",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"message":"Unauthorized"}`, w.Body.String())
	})

	t.Run("UpdateByOwner", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/posts/"+postID.String(), ownerToken, map[string]string{
			"title": "Hello Again",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var post simpleblog.Post
		decodeBody(t, w, &post)
		assert.Equal(t, "Hello Again", post.Title)
		assert.Equal(t, "hello", post.Slug)
	})

	t.Run("TagsOmittedVersusEmpty", func(t *testing.T) {
		// Omitted tags leave the set untouched.
		w := env.do(t, http.MethodPut, "/posts/"+postID.String(), ownerToken, map[string]string{
			"excerpt": "short",
		})
		require.Equal(t, http.StatusOK, w.Code)
		var post simpleblog.Post
		decodeBody(t, w, &post)
		assert.Len(t, post.Tags, 1)

		// An explicit empty list clears it.
		w = env.do(t, http.MethodPut, "/posts/"+postID.String(), ownerToken, map[string]interface{}{
			"tags": []uuid.UUID{},
		})
		require.Equal(t, http.StatusOK, w.Code)
		decodeBody(t, w, &post)
		assert.Empty(t, post.Tags)
	})

	t.Run("DeleteByNonOwner", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, "/posts/"+postID.String(), otherToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("DeleteByOwner", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, "/posts/"+postID.String(), ownerToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Post deleted successfully"}`, w.Body.String())

		get := env.do(t, http.MethodGet, "/posts/"+postID.String(), "", nil)
		assert.Equal(t, http.StatusNotFound, get.Code)
	})
}

func TestPostImageEndpoints(t *testing.T) {
	env := setupHandlerTest(t)
	ctx := context.Background()

	owner, ownerToken := env.registerUser(t, "owner@example.com")

	category, err := env.service.CreateCategory(ctx, simpleblog.CreateCategoryRequest{
		Name: "Media", Slug: "media",
	})
	require.NoError(t, err)
	post, err := env.service.CreatePost(ctx, owner, simpleblog.CreatePostRequest{
		Title: "Pic", Slug: "pic", Content: "body", CategoryID: category.ID,
	})
	require.NoError(t, err)

	t.Run("Upload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/posts/"+post.ID.String()+"/image", strings.NewReader("png-bytes"))
		req.Header.Set("Content-Type", "image/png")
		req.Header.Set("Authorization", "Bearer "+ownerToken)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var updated simpleblog.Post
		decodeBody(t, w, &updated)
		assert.NotEmpty(t, updated.Image)
	})

	t.Run("Download", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/posts/"+post.ID.String()+"/image", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "png-bytes", w.Body.String())
	})

	t.Run("UploadWithoutToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/posts/"+post.ID.String()+"/image", strings.NewReader("x"))
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCategoryInUseDelete(t *testing.T) {
	env := setupHandlerTest(t)
	ctx := context.Background()

	owner, token := env.registerUser(t, "owner@example.com")
	category, err := env.service.CreateCategory(ctx, simpleblog.CreateCategoryRequest{
		Name: "Pinned", Slug: "pinned",
	})
	require.NoError(t, err)
	_, err = env.service.CreatePost(ctx, owner, simpleblog.CreatePostRequest{
		Title: "Pin", Slug: "pin", Content: "body", CategoryID: category.ID,
	})
	require.NoError(t, err)

	w := env.do(t, http.MethodDelete, "/categories/"+category.ID.String(), token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp ValidationResponse
	decodeBody(t, w, &resp)
	assert.Contains(t, resp.Errors, "category")
}
