// Package testutil builds PocketBase test apps with the event collections applied.
package testutil

import (
	"testing"
	"time"

	"event-management/internal/schema"
	"event-management/models"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/require"
)

const Password = "1234567890"

// NewApp returns a throwaway PocketBase app (temporary data dir, SQLite) with the schema applied
// and the event hooks bound.
func NewApp(t testing.TB) *tests.TestApp {
	t.Helper()

	app, err := tests.NewTestApp()
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	require.NoError(t, schema.Apply(app))
	schema.BindHooks(app)
	return app
}

func CreateUser(t testing.TB, app core.App, email, name string, role models.Role) *core.Record {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId(models.UsersCollection)
	require.NoError(t, err)

	user := core.NewRecord(collection)
	user.SetEmail(email)
	user.SetPassword(Password)
	user.SetVerified(true)
	user.Set("name", name)
	user.Set("role", string(role))
	require.NoError(t, app.Save(user))

	return user
}

// EventFixture describes an event row inserted directly, bypassing the service.
type EventFixture struct {
	Name        string
	Description string
	Location    string
	Category    models.EventCategory
	Status      models.EventStatus
	Date        time.Time
	Deadline    time.Time
	Published   bool
	Featured    bool
	AuthorID    string
}

func CreateEvent(t testing.TB, app core.App, f EventFixture) *core.Record {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId(models.EventsCollection)
	require.NoError(t, err)

	if f.Category == "" {
		f.Category = models.CategoryWorkshop
	}
	if f.Status == "" {
		f.Status = models.EventStatusUpcoming
	}
	if f.Date.IsZero() {
		f.Date = time.Now().Add(24 * time.Hour)
	}

	record := core.NewRecord(collection)
	record.Set("name", f.Name)
	record.Set("description", f.Description)
	record.Set("location", f.Location)
	record.Set("category", string(f.Category))
	record.Set("status", string(f.Status))
	record.Set("date", f.Date.UTC())
	if !f.Deadline.IsZero() {
		record.Set("registration_deadline", f.Deadline.UTC())
	}
	record.Set("published", f.Published)
	record.Set("featured", f.Featured)
	record.Set("current_participants", 0)
	record.Set("author", f.AuthorID)
	require.NoError(t, app.Save(record))

	return record
}

func Register(t testing.TB, app core.App, eventID, userID string) *core.Record {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId(models.RegistrationsCollection)
	require.NoError(t, err)

	record := core.NewRecord(collection)
	record.Set("event", eventID)
	record.Set("user", userID)
	require.NoError(t, app.Save(record))

	return record
}
