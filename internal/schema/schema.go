// Package schema holds the collection definitions used by the migrations and by test apps.
// Every Ensure function is idempotent: existing fields are left untouched and only what is
// missing is added.
package schema

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"event-management/models"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

// Apply creates or completes every collection the service needs.
func Apply(app core.App) error {
	steps := []func(core.App) error{
		EnsureUserFields,
		EnsureEvents,
		EnsureRegistrations,
		EnsurePosts,
		EnsureUploads,
	}
	for _, step := range steps {
		if err := step(app); err != nil {
			return err
		}
	}
	return nil
}

// RoleGuard is appended to the users create and update rules so that role can only be
// changed by superusers (who bypass rules) or through the role command.
const RoleGuard = "@request.body.role:isset = false"

// EnsureUserFields adds name and role to the built-in users auth collection and guards
// its public create and self update rules against setting role.
func EnsureUserFields(app core.App) error {
	users, err := app.FindCollectionByNameOrId(models.UsersCollection)
	if err != nil {
		return fmt.Errorf("find users collection: %w", err)
	}

	changed := addMissing(users,
		&core.TextField{Name: "name", Max: 255},
		&core.SelectField{
			Name:      "role",
			MaxSelect: 1,
			Values:    roleValues(),
		},
	)

	var guarded bool
	users.CreateRule, guarded = guardRule(users.CreateRule)
	changed = changed || guarded
	users.UpdateRule, guarded = guardRule(users.UpdateRule)
	changed = changed || guarded

	if !changed {
		return nil
	}
	return app.Save(users)
}

// RemoveRoleGuard undoes the rule changes made by EnsureUserFields.
func RemoveRoleGuard(users *core.Collection) {
	users.CreateRule = unguardRule(users.CreateRule)
	users.UpdateRule = unguardRule(users.UpdateRule)
}

// nil rules are superuser only and stay untouched
func guardRule(rule *string) (*string, bool) {
	if rule == nil || strings.Contains(*rule, RoleGuard) {
		return rule, false
	}
	if strings.TrimSpace(*rule) == "" {
		return types.Pointer(RoleGuard), true
	}
	return types.Pointer("(" + *rule + ") && " + RoleGuard), true
}

func unguardRule(rule *string) *string {
	if rule == nil {
		return nil
	}
	if *rule == RoleGuard {
		return types.Pointer("")
	}
	if inner, ok := strings.CutSuffix(*rule, ") && "+RoleGuard); ok && strings.HasPrefix(inner, "(") {
		return types.Pointer(inner[1:])
	}
	return rule
}

func EnsureEvents(app core.App) error {
	users, err := app.FindCollectionByNameOrId(models.UsersCollection)
	if err != nil {
		return fmt.Errorf("find users collection: %w", err)
	}

	collection, isNew, err := findOrNew(app, models.EventsCollection)
	if err != nil {
		return err
	}

	changed := addMissing(collection,
		&core.TextField{Name: "name", Required: true, Max: 200},
		&core.TextField{Name: "description", Max: 10000},
		&core.SelectField{Name: "category", Required: true, MaxSelect: 1, Values: categoryValues()},
		&core.SelectField{Name: "status", MaxSelect: 1, Values: statusValues()},
		&core.DateField{Name: "date", Required: true},
		&core.DateField{Name: "registration_deadline"},
		&core.TextField{Name: "location", Max: 500},
		&core.BoolField{Name: "published"},
		&core.BoolField{Name: "featured"},
		&core.NumberField{Name: "current_participants", OnlyInt: true, Min: types.Pointer(0.0)},
		&core.RelationField{Name: "author", Required: true, MaxSelect: 1, CollectionId: users.Id},
		&core.AutodateField{Name: "created", OnCreate: true},
		&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
	)
	backfill := !isNew && collection.Fields.GetByName("search_text") == nil
	if addMissing(collection, &core.TextField{Name: "search_text", Hidden: true, Max: 11000}) {
		changed = true
	}
	if isNew {
		collection.AddIndex("idx_events_date", false, "date", "")
		collection.AddIndex("idx_events_created", false, "created", "")
		collection.AddIndex("idx_events_author", false, "author", "")
	}
	if !isNew && !changed {
		return nil
	}
	if err := app.Save(collection); err != nil {
		return err
	}
	if backfill {
		return backfillSearchText(app)
	}
	return nil
}

// SearchText is the lower-cased text the public search matches against.
// strings.ToLower folds non-ASCII letters, which SQLite's LIKE does not.
func SearchText(name, description, location string) string {
	return strings.ToLower(name + "\n" + description + "\n" + location)
}

func fillSearchText(record *core.Record) {
	record.Set("search_text", SearchText(
		record.GetString("name"),
		record.GetString("description"),
		record.GetString("location"),
	))
}

// BindHooks keeps search_text in step with every save of an event, whichever API wrote it.
func BindHooks(app core.App) {
	fill := func(e *core.RecordEvent) error {
		fillSearchText(e.Record)
		return e.Next()
	}
	app.OnRecordCreate(models.EventsCollection).BindFunc(fill)
	app.OnRecordUpdate(models.EventsCollection).BindFunc(fill)
}

func backfillSearchText(app core.App) error {
	records, err := app.FindAllRecords(models.EventsCollection)
	if err != nil {
		return fmt.Errorf("load events for search backfill: %w", err)
	}
	for _, record := range records {
		fillSearchText(record)
		if err := app.Save(record); err != nil {
			return fmt.Errorf("backfill search text of event %s: %w", record.Id, err)
		}
	}
	return nil
}

func EnsureRegistrations(app core.App) error {
	users, err := app.FindCollectionByNameOrId(models.UsersCollection)
	if err != nil {
		return fmt.Errorf("find users collection: %w", err)
	}
	events, err := app.FindCollectionByNameOrId(models.EventsCollection)
	if err != nil {
		return fmt.Errorf("find events collection: %w", err)
	}

	collection, isNew, err := findOrNew(app, models.RegistrationsCollection)
	if err != nil {
		return err
	}

	changed := addMissing(collection,
		&core.RelationField{Name: "event", Required: true, MaxSelect: 1, CollectionId: events.Id, CascadeDelete: true},
		&core.RelationField{Name: "user", Required: true, MaxSelect: 1, CollectionId: users.Id, CascadeDelete: true},
		&core.AutodateField{Name: "created", OnCreate: true},
	)
	if isNew {
		collection.AddIndex("idx_event_registrations_event_user", true, "event, user", "")
	}
	if !isNew && !changed {
		return nil
	}
	return app.Save(collection)
}

func EnsurePosts(app core.App) error {
	users, err := app.FindCollectionByNameOrId(models.UsersCollection)
	if err != nil {
		return fmt.Errorf("find users collection: %w", err)
	}

	collection, isNew, err := findOrNew(app, models.PostsCollection)
	if err != nil {
		return err
	}

	changed := addMissing(collection,
		&core.TextField{Name: "title", Required: true, Max: 200},
		&core.TextField{Name: "content", Max: 50000},
		&core.BoolField{Name: "published"},
		&core.RelationField{Name: "author", Required: true, MaxSelect: 1, CollectionId: users.Id},
		&core.AutodateField{Name: "created", OnCreate: true},
		&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
	)
	if isNew {
		collection.AddIndex("idx_posts_created", false, "created", "")
	}
	if !isNew && !changed {
		return nil
	}
	return app.Save(collection)
}

func EnsureUploads(app core.App) error {
	users, err := app.FindCollectionByNameOrId(models.UsersCollection)
	if err != nil {
		return fmt.Errorf("find users collection: %w", err)
	}

	collection, isNew, err := findOrNew(app, models.UploadsCollection)
	if err != nil {
		return err
	}

	// the service enforces the configurable size limit, the field only caps it
	changed := addMissing(collection,
		&core.FileField{Name: "file", Required: true, MaxSelect: 1, MaxSize: 100 << 20},
		&core.RelationField{Name: "owner", Required: true, MaxSelect: 1, CollectionId: users.Id},
		&core.TextField{Name: "original_name", Max: 255},
		&core.TextField{Name: "mime_type", Max: 255},
		&core.NumberField{Name: "size", OnlyInt: true, Min: types.Pointer(0.0)},
		&core.AutodateField{Name: "created", OnCreate: true},
	)
	if !isNew && !changed {
		return nil
	}
	return app.Save(collection)
}

func findOrNew(app core.App, name string) (*core.Collection, bool, error) {
	collection, err := app.FindCollectionByNameOrId(name)
	if err == nil {
		return collection, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("find %s collection: %w", name, err)
	}
	return core.NewBaseCollection(name), true, nil
}

func addMissing(collection *core.Collection, fields ...core.Field) bool {
	changed := false
	for _, field := range fields {
		if collection.Fields.GetByName(field.GetName()) != nil {
			continue
		}
		collection.Fields.Add(field)
		changed = true
	}
	return changed
}

func roleValues() []string {
	values := make([]string, 0, len(models.Roles))
	for _, r := range models.Roles {
		values = append(values, string(r))
	}
	return values
}

func categoryValues() []string {
	values := make([]string, 0, len(models.EventCategories))
	for _, c := range models.EventCategories {
		values = append(values, string(c))
	}
	return values
}

func statusValues() []string {
	values := make([]string, 0, len(models.EventStatuses))
	for _, s := range models.EventStatuses {
		values = append(values, string(s))
	}
	return values
}
