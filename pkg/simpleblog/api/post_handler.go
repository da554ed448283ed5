package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-blog/pkg/simpleblog"
	"github.com/tendant/simple-blog/pkg/simpleblog/auth"
)

// PostHandler handles HTTP requests for posts
type PostHandler struct {
	service simpleblog.Service
	auth    *auth.Service
}

// NewPostHandler creates a new post handler
func NewPostHandler(service simpleblog.Service, authService *auth.Service) *PostHandler {
	return &PostHandler{service: service, auth: authService}
}

// Routes returns the routes for posts. Reads are public; writes
// require a valid token and, beyond that, post ownership (enforced by
// the service).
func (h *PostHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/image", h.DownloadImage)

	r.Group(func(r chi.Router) {
		r.Use(h.auth.Verifier())
		r.Use(h.auth.Authenticator)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Put("/{id}/image", h.UploadImage)
	})

	return r
}

// CreatePostRequest is the request body for creating a post
type CreatePostRequest struct {
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Excerpt     string      `json:"excerpt"`
	Content     string      `json:"content"`
	Image       string      `json:"image"`
	CategoryID  uuid.UUID   `json:"category_id"`
	Published   bool        `json:"published"`
	PublishedAt *time.Time  `json:"published_at"`
	Tags        []uuid.UUID `json:"tags"`
}

// UpdatePostRequest is the request body for updating a post. Omitted
// fields keep their prior value; "tags" present but empty clears the
// tag set, "tags" omitted leaves it untouched.
type UpdatePostRequest struct {
	Title       *string      `json:"title"`
	Slug        *string      `json:"slug"`
	Excerpt     *string      `json:"excerpt"`
	Content     *string      `json:"content"`
	Image       *string      `json:"image"`
	CategoryID  *uuid.UUID   `json:"category_id"`
	Published   *bool        `json:"published"`
	PublishedAt *time.Time   `json:"published_at"`
	Tags        *[]uuid.UUID `json:"tags"`
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPosts(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, posts)
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		renderError(w, r, simpleblog.ErrNotOwner)
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	post, err := h.service.CreatePost(r.Context(), actor, simpleblog.CreatePostRequest{
		Title:       req.Title,
		Slug:        req.Slug,
		Excerpt:     req.Excerpt,
		Content:     req.Content,
		Image:       req.Image,
		CategoryID:  req.CategoryID,
		Published:   req.Published,
		PublishedAt: req.PublishedAt,
		TagIDs:      req.Tags,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, post)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, simpleblog.ErrPostNotFound)
		return
	}

	post, err := h.service.GetPost(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, post)
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		renderError(w, r, simpleblog.ErrNotOwner)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, simpleblog.ErrPostNotFound)
		return
	}

	var req UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	post, err := h.service.UpdatePost(r.Context(), actor, id, simpleblog.UpdatePostRequest{
		Title:       req.Title,
		Slug:        req.Slug,
		Excerpt:     req.Excerpt,
		Content:     req.Content,
		Image:       req.Image,
		CategoryID:  req.CategoryID,
		Published:   req.Published,
		PublishedAt: req.PublishedAt,
		TagIDs:      req.Tags,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, post)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		renderError(w, r, simpleblog.ErrNotOwner)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, simpleblog.ErrPostNotFound)
		return
	}

	if err := h.service.DeletePost(r.Context(), actor, id); err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, MessageResponse{Message: "Post deleted successfully"})
}

func (h *PostHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		renderError(w, r, simpleblog.ErrNotOwner)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, simpleblog.ErrPostNotFound)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	post, err := h.service.SetPostImage(r.Context(), actor, id, contentType, r.Body)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, post)
}

func (h *PostHandler) DownloadImage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, simpleblog.ErrPostNotFound)
		return
	}

	reader, err := h.service.OpenPostImage(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	defer reader.Close()

	io.Copy(w, reader)
}
