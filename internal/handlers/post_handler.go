package handlers

import (
	"net/http"

	"event-management/internal/services"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"
)

type PostHandler struct {
	posts *services.PostService
}

func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// List - GET /api/v1/posts?page=&limit=
func (h *PostHandler) List(e *core.RequestEvent) error {
	query := e.Request.URL.Query()

	page, err := h.posts.List(e.Request.Context(), cast.ToInt(query.Get("page")), cast.ToInt(query.Get("limit")))
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, page)
}

// Get - GET /api/v1/posts/{id}
func (h *PostHandler) Get(e *core.RequestEvent) error {
	actorID, role := actor(e)

	post, err := h.posts.FindOne(e.Request.Context(), e.Request.PathValue("id"), actorID, role)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, post)
}

// Create - POST /api/v1/posts
func (h *PostHandler) Create(e *core.RequestEvent) error {
	authorID, err := member(e)
	if err != nil {
		return err
	}

	var in services.CreatePostInput
	if err := e.BindBody(&in); err != nil {
		return apis.NewBadRequestError("Invalid request body.", err)
	}

	post, err := h.posts.Create(e.Request.Context(), in, authorID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusCreated, post)
}

// Update - PATCH /api/v1/posts/{id}
func (h *PostHandler) Update(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var in services.UpdatePostInput
	if err := e.BindBody(&in); err != nil {
		return apis.NewBadRequestError("Invalid request body.", err)
	}

	actorID, role := actor(e)
	post, err := h.posts.Update(e.Request.Context(), e.Request.PathValue("id"), in, actorID, role)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, post)
}

// Delete - DELETE /api/v1/posts/{id}
func (h *PostHandler) Delete(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	actorID, role := actor(e)
	if err := h.posts.Delete(e.Request.Context(), e.Request.PathValue("id"), actorID, role); err != nil {
		return apiError(err)
	}

	return e.NoContent(http.StatusNoContent)
}
