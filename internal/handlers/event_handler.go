package handlers

import (
	"net/http"
	"time"

	"event-management/internal/services"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type EventHandler struct {
	events *services.EventService
	limits services.ListLimits
}

func NewEventHandler(events *services.EventService, limits services.ListLimits) *EventHandler {
	return &EventHandler{events: events, limits: limits}
}

// Create - POST /api/v1/events
func (h *EventHandler) Create(e *core.RequestEvent) error {
	var in services.CreateEventInput
	if err := e.BindBody(&in); err != nil {
		return apis.NewBadRequestError("Invalid request body.", err)
	}

	authorID, err := member(e)
	if err != nil {
		return err
	}
	_, role := actor(e)

	event, err := h.events.Create(e.Request.Context(), in, authorID, role)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusCreated, event)
}

// List - GET /api/v1/events
func (h *EventHandler) List(e *core.RequestEvent) error {
	q, err := services.ParsePublicQuery(e.Request.URL.Query(), h.limits, time.Now())
	if err != nil {
		return apiError(err)
	}

	page, err := h.events.FindAll(e.Request.Context(), q)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, page)
}

// ListAdmin - GET /api/v1/events/admin
func (h *EventHandler) ListAdmin(e *core.RequestEvent) error {
	q, err := services.ParseAdminQuery(e.Request.URL.Query(), h.limits)
	if err != nil {
		return apiError(err)
	}

	_, role := actor(e)
	page, err := h.events.FindAllForAdmin(e.Request.Context(), q, role)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, page)
}

// Stats - GET /api/v1/events/stats
func (h *EventHandler) Stats(e *core.RequestEvent) error {
	q, err := services.ParseStatsQuery(e.Request.URL.Query())
	if err != nil {
		return apiError(err)
	}

	_, role := actor(e)
	stats, err := h.events.GetEventStats(e.Request.Context(), q, role)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, stats)
}

// Get - GET /api/v1/events/{id}
func (h *EventHandler) Get(e *core.RequestEvent) error {
	event, err := h.events.FindOne(e.Request.Context(), e.Request.PathValue("id"))
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, event)
}

// Update - PATCH /api/v1/events/{id}
func (h *EventHandler) Update(e *core.RequestEvent) error {
	var in services.UpdateEventInput
	if err := e.BindBody(&in); err != nil {
		return apis.NewBadRequestError("Invalid request body.", err)
	}

	_, role := actor(e)
	event, err := h.events.Update(e.Request.Context(), e.Request.PathValue("id"), in, role)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, event)
}

// Delete - DELETE /api/v1/events/{id}
func (h *EventHandler) Delete(e *core.RequestEvent) error {
	_, role := actor(e)
	event, err := h.events.Remove(e.Request.Context(), e.Request.PathValue("id"), role)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, event)
}
