package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"event-management/internal/services"
	"event-management/internal/status"
	"event-management/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
)

// apiError translates service errors into PocketBase API errors.
func apiError(err error) error {
	if err == nil {
		return nil
	}

	var (
		apiErr  *router.ApiError
		verrs   validation.Errors
		permErr *status.PermissionError
	)

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &verrs):
		return apis.NewBadRequestError("Validation failed.", verrs)
	case errors.As(err, &permErr):
		return apis.NewForbiddenError(permErr.Error(), nil)
	case errors.Is(err, status.ErrForbidden):
		return apis.NewForbiddenError("You are not allowed to perform this action.", nil)
	case errors.Is(err, status.ErrEventNotFound):
		return apis.NewNotFoundError("Event not found.", nil)
	case errors.Is(err, status.ErrPostNotFound):
		return apis.NewNotFoundError("Post not found.", nil)
	case errors.Is(err, status.ErrUserNotFound):
		return apis.NewNotFoundError("User not found.", nil)
	case errors.Is(err, status.ErrNotRegistered):
		return apis.NewNotFoundError("Registration not found.", nil)
	case errors.Is(err, status.ErrUserAccountNeeded):
		return apis.NewForbiddenError("This action requires a users account. Superusers cannot own records.", nil)
	case errors.Is(err, status.ErrInvalidCredentials):
		return apis.NewUnauthorizedError("Invalid email or password.", nil)
	case errors.Is(err, status.ErrRegistrationClosed):
		return apis.NewBadRequestError("Registration is closed for this event.", nil)
	case errors.Is(err, status.ErrAlreadyRegistered):
		return apis.NewApiError(http.StatusConflict, "You are already registered for this event.", nil)
	case errors.Is(err, status.ErrFileTooLarge):
		return apis.NewApiError(http.StatusRequestEntityTooLarge, "The file is too large.", nil)
	case errors.Is(err, status.ErrFileTypeNotAllowed):
		return apis.NewApiError(http.StatusUnsupportedMediaType, "The file type is not allowed.", nil)
	}

	slog.Error("Request failed", "error", err)
	return apis.NewInternalServerError("Something went wrong while processing your request.", nil)
}

// actor returns the caller id (empty when anonymous) and its resolved role.
func actor(e *core.RequestEvent) (string, models.Role) {
	if e.Auth == nil {
		return "", models.RoleVisitor
	}
	return e.Auth.Id, services.RoleOf(e.Auth)
}

// member returns the id of the calling users record. Records owned by the caller relate to
// the users collection, so other auth collections (superusers included) are refused.
func member(e *core.RequestEvent) (string, error) {
	if e.Auth == nil {
		return "", apis.NewUnauthorizedError("The request requires valid authorization token.", nil)
	}
	if e.Auth.Collection().Name != models.UsersCollection {
		return "", apiError(status.ErrUserAccountNeeded)
	}
	return e.Auth.Id, nil
}

// RequireRoles rejects anonymous callers with 401 and callers outside roles with 403.
func RequireRoles(roles ...models.Role) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if e.Auth == nil {
			return apis.NewUnauthorizedError("The request requires valid authorization token.", nil)
		}

		role := services.RoleOf(e.Auth)
		for _, allowed := range roles {
			if role == allowed {
				return e.Next()
			}
		}
		return apis.NewForbiddenError("Your role is not allowed to perform this action.", nil)
	}
}
