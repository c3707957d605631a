package handlers

import (
	"net/http"

	"event-management/internal/services"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login - POST /api/v1/auth/login
// Responds with the PocketBase auth payload ({token, record}).
func (h *AuthHandler) Login(e *core.RequestEvent) error {
	var in services.LoginInput
	if err := e.BindBody(&in); err != nil {
		return apis.NewBadRequestError("Invalid request body.", err)
	}

	user, err := h.auth.Authenticate(e.Request.Context(), in)
	if err != nil {
		return apiError(err)
	}

	return apis.RecordAuthResponse(e, user, "password", nil)
}

// Me - GET /api/v1/auth/me
func (h *AuthHandler) Me(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	return e.JSON(http.StatusOK, services.UserFromRecord(e.Auth))
}
