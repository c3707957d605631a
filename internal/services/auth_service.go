package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"event-management/internal/status"
	"event-management/models"
	"event-management/monitoring"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pocketbase/pocketbase/core"
)

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in LoginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Password, validation.Required),
	)
}

type AuthService struct {
	app core.App
}

func NewAuthService(app core.App) *AuthService {
	return &AuthService{app: app}
}

// Authenticate verifies the credentials against the users auth collection.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, in LoginInput) (*core.Record, error) {
	in.Email = strings.TrimSpace(in.Email)

	if err := in.Validate(); err != nil {
		monitoring.TrackLogin("invalid")
		return nil, err
	}

	user, err := s.app.FindAuthRecordByEmail(models.UsersCollection, in.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			monitoring.TrackLogin("failure")
			return nil, status.ErrInvalidCredentials
		}
		monitoring.TrackLogin("error")
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.ValidatePassword(in.Password) {
		monitoring.TrackLogin("failure")
		return nil, status.ErrInvalidCredentials
	}

	monitoring.TrackLogin("success")
	return user, nil
}

// RoleOf resolves the role of an authenticated record. Superusers act as admins and a
// nil record is an anonymous visitor.
func RoleOf(auth *core.Record) models.Role {
	if auth == nil {
		return models.RoleVisitor
	}
	if auth.IsSuperuser() {
		return models.RoleAdmin
	}
	return models.ParseRole(auth.GetString("role"))
}

// UserFromRecord maps an auth record to the public user payload.
func UserFromRecord(auth *core.Record) models.User {
	return models.User{
		ID:    auth.Id,
		Name:  auth.GetString("name"),
		Email: auth.Email(),
		Role:  RoleOf(auth),
	}
}
