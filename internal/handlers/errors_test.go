package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"event-management/internal/status"
	"event-management/internal/testutil"
	"event-management/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var apiErr *router.ApiError
	require.True(t, errors.As(err, &apiErr), "expected an ApiError, got %v", err)
	return apiErr.Status
}

func TestApiError(t *testing.T) {
	assert.NoError(t, apiError(nil))

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", validation.Errors{"name": errors.New("cannot be blank")}, http.StatusBadRequest},
		{"permission", &status.PermissionError{Action: "create events"}, http.StatusForbidden},
		{"wrapped forbidden", fmt.Errorf("%w: nope", status.ErrForbidden), http.StatusForbidden},
		{"event not found", status.ErrEventNotFound, http.StatusNotFound},
		{"post not found", status.ErrPostNotFound, http.StatusNotFound},
		{"not registered", status.ErrNotRegistered, http.StatusNotFound},
		{"credentials", status.ErrInvalidCredentials, http.StatusUnauthorized},
		{"users account", status.ErrUserAccountNeeded, http.StatusForbidden},
		{"closed", fmt.Errorf("%w: deadline has passed", status.ErrRegistrationClosed), http.StatusBadRequest},
		{"duplicate", status.ErrAlreadyRegistered, http.StatusConflict},
		{"too large", status.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"bad type", status.ErrFileTypeNotAllowed, http.StatusUnsupportedMediaType},
		{"api error", apis.NewTooManyRequestsError("slow down", nil), http.StatusTooManyRequests},
		{"unknown", errors.New("database is locked"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(t, apiError(tt.err)))
		})
	}
}

func TestApiError_PermissionMessage(t *testing.T) {
	err := apiError(&status.PermissionError{Action: "view event statistics"})

	var apiErr *router.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "only editors and admins can view event statistics", apiErr.Message)
}

func TestRequireRoles(t *testing.T) {
	app := testutil.NewApp(t)
	guard := RequireRoles(models.RoleEditor, models.RoleAdmin)

	visitor := testutil.CreateUser(t, app, "visitor@events.test", "Vic", models.RoleVisitor)
	editor := testutil.CreateUser(t, app, "editor@events.test", "Eddie", models.RoleEditor)

	tests := []struct {
		name string
		auth *core.Record
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"visitor", visitor, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newRequestEvent(t, app, http.MethodGet, "/api/v1/events/stats", nil, tt.auth)
			assert.Equal(t, tt.want, statusOf(t, guard(e)))
		})
	}

	t.Run("editor", func(t *testing.T) {
		e, _ := newRequestEvent(t, app, http.MethodGet, "/api/v1/events/stats", nil, editor)
		assert.NoError(t, guard(e))
	})
}

func TestActor(t *testing.T) {
	app := testutil.NewApp(t)
	admin := testutil.CreateUser(t, app, "admin@events.test", "Ada", models.RoleAdmin)

	e, _ := newRequestEvent(t, app, http.MethodGet, "/", nil, nil)
	id, role := actor(e)
	assert.Empty(t, id)
	assert.Equal(t, models.RoleVisitor, role)

	e, _ = newRequestEvent(t, app, http.MethodGet, "/", nil, admin)
	id, role = actor(e)
	assert.Equal(t, admin.Id, id)
	assert.Equal(t, models.RoleAdmin, role)
}
