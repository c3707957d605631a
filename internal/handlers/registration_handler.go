package handlers

import (
	"net/http"

	"event-management/internal/services"

	"github.com/pocketbase/pocketbase/core"
)

type RegistrationHandler struct {
	registrations *services.RegistrationService
}

func NewRegistrationHandler(registrations *services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

// Register - POST /api/v1/events/{id}/registrations
func (h *RegistrationHandler) Register(e *core.RequestEvent) error {
	userID, err := member(e)
	if err != nil {
		return err
	}

	registration, err := h.registrations.Register(e.Request.Context(), e.Request.PathValue("id"), userID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusCreated, registration)
}

// Cancel - DELETE /api/v1/events/{id}/registrations
func (h *RegistrationHandler) Cancel(e *core.RequestEvent) error {
	userID, err := member(e)
	if err != nil {
		return err
	}

	if err := h.registrations.Cancel(e.Request.Context(), e.Request.PathValue("id"), userID); err != nil {
		return apiError(err)
	}

	return e.NoContent(http.StatusNoContent)
}
