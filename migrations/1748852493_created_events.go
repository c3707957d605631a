package migrations

import (
	"event-management/internal/schema"
	"event-management/models"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		return schema.EnsureEvents(app)
	}, func(app core.App) error {
		return deleteCollection(app, models.EventsCollection)
	})
}
