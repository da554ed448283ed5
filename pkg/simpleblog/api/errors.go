package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// MessageResponse is the generic message body
type MessageResponse struct {
	Message string `json:"message"`
}

// ValidationResponse is the 422 body with per-field messages
type ValidationResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// renderError maps core errors onto HTTP status codes: validation
// failures to 422, missing resources to 404, ownership violations to
// 403, everything else to 500.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *simpleblog.ValidationError
	switch {
	case errors.As(err, &verr):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, ValidationResponse{
			Message: "The given data was invalid.",
			Errors:  verr.Fields,
		})
	case errors.Is(err, simpleblog.ErrPostNotFound),
		errors.Is(err, simpleblog.ErrCategoryNotFound),
		errors.Is(err, simpleblog.ErrTagNotFound),
		errors.Is(err, simpleblog.ErrImageNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, MessageResponse{Message: "Not found"})
	case errors.Is(err, simpleblog.ErrNotOwner):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, MessageResponse{Message: "Unauthorized"})
	case errors.Is(err, simpleblog.ErrCategoryInUse):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, ValidationResponse{
			Message: "The given data was invalid.",
			Errors:  map[string][]string{"category": {"category is referenced by existing posts"}},
		})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, MessageResponse{Message: "Internal server error"})
	}
}
