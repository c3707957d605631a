package migrations

import (
	"event-management/internal/schema"
	"event-management/models"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		return schema.EnsureUserFields(app)
	}, func(app core.App) error {
		users, err := app.FindCollectionByNameOrId(models.UsersCollection)
		if err != nil {
			return err
		}
		// name belongs to the default users collection and is kept
		users.Fields.RemoveByName("role")
		schema.RemoveRoleGuard(users)
		return app.Save(users)
	})
}
