package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"event-management/internal/status"
	"event-management/models"

	"github.com/pocketbase/pocketbase/core"
)

type UserService struct {
	app core.App
}

func NewUserService(app core.App) *UserService {
	return &UserService{app: app}
}

// SetRole changes the role of the user with the given email.
func (s *UserService) SetRole(ctx context.Context, email string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	user, err := s.app.FindAuthRecordByEmail(models.UsersCollection, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user.Set("role", string(role))
	if err := s.app.SaveWithContext(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	slog.Info("User role changed", "userId", user.Id, "role", role)

	result := UserFromRecord(user)
	return &result, nil
}
