package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-blog/pkg/simpleblog"
	"github.com/tendant/simple-blog/pkg/simpleblog/auth"
)

// TagHandler handles HTTP requests for tags
type TagHandler struct {
	service simpleblog.Service
	auth    *auth.Service
}

// NewTagHandler creates a new tag handler
func NewTagHandler(service simpleblog.Service, authService *auth.Service) *TagHandler {
	return &TagHandler{service: service, auth: authService}
}

// Routes returns the routes for tags. Reads are public; writes require
// a valid token.
func (h *TagHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(h.auth.Verifier())
		r.Use(h.auth.Authenticator)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})

	return r
}

// CreateTagRequest is the request body for creating a tag
type CreateTagRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// UpdateTagRequest is the request body for updating a tag
type UpdateTagRequest struct {
	Name *string `json:"name"`
	Slug *string `json:"slug"`
}

func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.ListTags(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, tags)
}

func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tag, err := h.service.CreateTag(r.Context(), simpleblog.CreateTagRequest{
		Name: req.Name,
		Slug: req.Slug,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, tag)
}

func (h *TagHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, simpleblog.ErrTagNotFound)
		return
	}

	tag, err := h.service.GetTag(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, tag)
}

func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, simpleblog.ErrTagNotFound)
		return
	}

	var req UpdateTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tag, err := h.service.UpdateTag(r.Context(), id, simpleblog.UpdateTagRequest{
		Name: req.Name,
		Slug: req.Slug,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, tag)
}

func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, simpleblog.ErrTagNotFound)
		return
	}

	if err := h.service.DeleteTag(r.Context(), id); err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, MessageResponse{Message: "Tag deleted successfully"})
}
