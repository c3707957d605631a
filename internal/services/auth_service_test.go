package services

import (
	"context"
	"testing"

	"event-management/internal/status"
	"event-management/internal/testutil"
	"event-management/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Authenticate(t *testing.T) {
	app := testutil.NewApp(t)
	service := NewAuthService(app)
	ctx := context.Background()

	user := testutil.CreateUser(t, app, "editor@events.test", "Editor", models.RoleEditor)

	t.Run("success", func(t *testing.T) {
		got, err := service.Authenticate(ctx, LoginInput{Email: " editor@events.test ", Password: testutil.Password})
		require.NoError(t, err)
		assert.Equal(t, user.Id, got.Id)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := service.Authenticate(ctx, LoginInput{Email: "editor@events.test", Password: "wrong-password"})
		assert.ErrorIs(t, err, status.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := service.Authenticate(ctx, LoginInput{Email: "nobody@events.test", Password: testutil.Password})
		assert.ErrorIs(t, err, status.ErrInvalidCredentials)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := service.Authenticate(ctx, LoginInput{Email: "not-an-email"})

		var verrs validation.Errors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs, "email")
		assert.Contains(t, verrs, "password")
	})
}

func TestRoleOf(t *testing.T) {
	app := testutil.NewApp(t)

	assert.Equal(t, models.RoleVisitor, RoleOf(nil))

	editor := testutil.CreateUser(t, app, "editor@events.test", "Editor", models.RoleEditor)
	assert.Equal(t, models.RoleEditor, RoleOf(editor))

	plain := testutil.CreateUser(t, app, "plain@events.test", "Plain", "")
	assert.Equal(t, models.RoleVisitor, RoleOf(plain))

	superusers, err := app.FindCollectionByNameOrId(core.CollectionNameSuperusers)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, RoleOf(core.NewRecord(superusers)))
}

func TestUserFromRecord(t *testing.T) {
	app := testutil.NewApp(t)
	record := testutil.CreateUser(t, app, "admin@events.test", "Ada", models.RoleAdmin)

	assert.Equal(t, models.User{
		ID:    record.Id,
		Name:  "Ada",
		Email: "admin@events.test",
		Role:  models.RoleAdmin,
	}, UserFromRecord(record))
}

func TestUserService_SetRole(t *testing.T) {
	app := testutil.NewApp(t)
	service := NewUserService(app)
	ctx := context.Background()

	record := testutil.CreateUser(t, app, "visitor@events.test", "Vic", models.RoleVisitor)

	user, err := service.SetRole(ctx, "visitor@events.test", models.RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, user.Role)

	reloaded, err := app.FindRecordById(models.UsersCollection, record.Id)
	require.NoError(t, err)
	assert.Equal(t, "EDITOR", reloaded.GetString("role"))

	_, err = service.SetRole(ctx, "nobody@events.test", models.RoleAdmin)
	assert.ErrorIs(t, err, status.ErrUserNotFound)

	_, err = service.SetRole(ctx, "visitor@events.test", models.Role("OWNER"))
	assert.Error(t, err)
}
