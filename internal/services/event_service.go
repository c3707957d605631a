package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"event-management/internal/status"
	"event-management/models"
	"event-management/monitoring"
	"event-management/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const recentEventsLimit = 5

type EventService struct {
	app      core.App
	notifier Notifier
	limits   ListLimits
	now      func() time.Time
}

func NewEventService(app core.App, notifier Notifier, limits ListLimits) *EventService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &EventService{
		app:      app,
		notifier: notifier,
		limits:   limits,
		now:      time.Now,
	}
}

type CreateEventInput struct {
	Name                 string               `json:"name"`
	Description          string               `json:"description"`
	Category             models.EventCategory `json:"category"`
	Status               models.EventStatus   `json:"status"`
	Date                 string               `json:"date"`
	RegistrationDeadline string               `json:"registrationDeadline"`
	Location             string               `json:"location"`
	Published            bool                 `json:"published"`
	Featured             bool                 `json:"featured"`
}

func (in CreateEventInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Description, validation.Length(0, 10000)),
		validation.Field(&in.Category, validation.Required, validation.In(categoryRuleValues()...)),
		validation.Field(&in.Status, validation.In(statusRuleValues()...)),
		validation.Field(&in.Date, validation.Required, validation.By(utils.ValidateDate)),
		validation.Field(&in.RegistrationDeadline, validation.By(utils.ValidateDate)),
		validation.Field(&in.Location, validation.Length(0, 500)),
	)
}

// UpdateEventInput is a partial update; nil fields are left unchanged.
// An empty registrationDeadline clears the deadline.
type UpdateEventInput struct {
	Name                 *string               `json:"name"`
	Description          *string               `json:"description"`
	Category             *models.EventCategory `json:"category"`
	Status               *models.EventStatus   `json:"status"`
	Date                 *string               `json:"date"`
	RegistrationDeadline *string               `json:"registrationDeadline"`
	Location             *string               `json:"location"`
	Published            *bool                 `json:"published"`
	Featured             *bool                 `json:"featured"`
}

func (in UpdateEventInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&in.Description, validation.Length(0, 10000)),
		validation.Field(&in.Category, validation.NilOrNotEmpty, validation.In(categoryRuleValues()...)),
		validation.Field(&in.Status, validation.NilOrNotEmpty, validation.In(statusRuleValues()...)),
		validation.Field(&in.Date, validation.NilOrNotEmpty, validation.By(utils.ValidateDate)),
		validation.Field(&in.RegistrationDeadline, validation.By(utils.ValidateDate)),
		validation.Field(&in.Location, validation.Length(0, 500)),
	)
}

// must be called after Validate
func (in UpdateEventInput) apply(record *core.Record) {
	if in.Name != nil {
		record.Set("name", strings.TrimSpace(*in.Name))
	}
	if in.Description != nil {
		record.Set("description", *in.Description)
	}
	if in.Category != nil {
		record.Set("category", string(*in.Category))
	}
	if in.Status != nil {
		record.Set("status", string(*in.Status))
	}
	if in.Date != nil {
		date, _ := utils.ParseDate(*in.Date)
		record.Set("date", date)
	}
	if in.RegistrationDeadline != nil {
		if *in.RegistrationDeadline == "" {
			record.Set("registration_deadline", "")
		} else {
			deadline, _ := utils.ParseDate(*in.RegistrationDeadline)
			record.Set("registration_deadline", deadline)
		}
	}
	if in.Location != nil {
		record.Set("location", *in.Location)
	}
	if in.Published != nil {
		record.Set("published", *in.Published)
	}
	if in.Featured != nil {
		record.Set("featured", *in.Featured)
	}
}

func (s *EventService) Create(ctx context.Context, in CreateEventInput, actorID string, actorRole models.Role) (event *models.Event, err error) {
	defer func() { monitoring.TrackEventOperation("create", err) }()

	if err := authorize(actorRole, ActionCreateEvent); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	collection, err := s.app.FindCollectionByNameOrId(models.EventsCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to find events collection: %w", err)
	}

	if in.Status == "" {
		in.Status = models.EventStatusUpcoming
	}
	date, _ := utils.ParseDate(in.Date)

	record := core.NewRecord(collection)
	record.Set("name", strings.TrimSpace(in.Name))
	record.Set("description", in.Description)
	record.Set("category", string(in.Category))
	record.Set("status", string(in.Status))
	record.Set("date", date)
	if in.RegistrationDeadline != "" {
		deadline, _ := utils.ParseDate(in.RegistrationDeadline)
		record.Set("registration_deadline", deadline)
	}
	record.Set("location", in.Location)
	record.Set("published", in.Published)
	record.Set("featured", in.Featured)
	record.Set("current_participants", 0)
	record.Set("author", actorID)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	event, err = s.findEvent(ctx, s.app.DB(), record.Id, true)
	if err != nil {
		return nil, err
	}

	slog.Info("Event created", "eventId", event.ID, "authorId", actorID)
	notify(ctx, s.notifier, EventChange{Type: ChangeEventCreated, EventID: event.ID, Published: event.Published})

	return event, nil
}

// FindAll lists published events ordered by event date.
func (s *EventService) FindAll(ctx context.Context, q EventListQuery) (*models.Page[models.Event], error) {
	published := true
	q.Filter.Published = &published

	return s.list(ctx, q, false, "e.date ASC", "e.created ASC")
}

// FindAllForAdmin lists every event, newest first.
func (s *EventService) FindAllForAdmin(ctx context.Context, q EventListQuery, actorRole models.Role) (*models.Page[models.Event], error) {
	if err := authorize(actorRole, ActionListAll); err != nil {
		return nil, err
	}

	return s.list(ctx, q, true, "e.created DESC", "e.rowid DESC")
}

func (s *EventService) list(ctx context.Context, q EventListQuery, withEmail bool, orderBy ...string) (*models.Page[models.Event], error) {
	q = s.normalize(q)
	where := q.Filter.Expression("e")
	db := s.app.DB()

	var (
		rows  []eventRow
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return selectEvents(db).
			Where(where).
			OrderBy(orderBy...).
			Limit(int64(q.Limit)).
			Offset(pageOffset(q.Page, q.Limit)).
			WithContext(gctx).
			All(&rows)
	})
	g.Go(func() error {
		return db.Select("COUNT(*)").
			From(models.EventsCollection + " e").
			Where(where).
			WithContext(gctx).
			Row(&total)
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]models.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toModel(withEmail))
	}

	return &models.Page[models.Event]{
		Data:       events,
		Pagination: models.NewPagination(total, q.Page, q.Limit),
	}, nil
}

func (s *EventService) normalize(q EventListQuery) EventListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = s.limits.DefaultLimit
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if s.limits.MaxLimit > 0 && q.Limit > s.limits.MaxLimit {
		q.Limit = s.limits.MaxLimit
	}
	return q
}

// FindOne returns the event with its author and every registration.
func (s *EventService) FindOne(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.findEvent(ctx, s.app.DB(), id, true)
	if err != nil {
		return nil, err
	}

	var rows []registrationRow
	err = s.app.DB().
		Select("r.id", "r.event", "r.user", "u.name AS user_name", "u.email AS user_email", "r.created").
		From(models.RegistrationsCollection+" r").
		LeftJoin(models.UsersCollection+" u", dbx.NewExp("[[u.id]] = [[r.user]]")).
		Where(dbx.HashExp{"r.event": id}).
		OrderBy("r.created ASC").
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to load registrations: %w", err)
	}

	event.Registrations = make([]models.EventRegistration, 0, len(rows))
	for _, row := range rows {
		event.Registrations = append(event.Registrations, row.toModel())
	}

	return event, nil
}

// Update applies a partial update. The existence check and the write share one transaction.
func (s *EventService) Update(ctx context.Context, id string, in UpdateEventInput, actorRole models.Role) (event *models.Event, err error) {
	defer func() { monitoring.TrackEventOperation("update", err) }()

	if err := authorize(actorRole, ActionUpdateEvent); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	err = s.app.RunInTransaction(func(txApp core.App) error {
		record, err := findEventRecord(txApp, id)
		if err != nil {
			return err
		}

		in.apply(record)

		return txApp.SaveWithContext(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	event, err = s.findEvent(ctx, s.app.DB(), id, true)
	if err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, EventChange{Type: ChangeEventUpdated, EventID: event.ID, Published: event.Published})

	return event, nil
}

// Remove hard deletes the event (registrations cascade) and returns its prior state.
func (s *EventService) Remove(ctx context.Context, id string, actorRole models.Role) (event *models.Event, err error) {
	defer func() { monitoring.TrackEventOperation("delete", err) }()

	if err := authorize(actorRole, ActionDeleteEvent); err != nil {
		return nil, err
	}

	err = s.app.RunInTransaction(func(txApp core.App) error {
		record, err := findEventRecord(txApp, id)
		if err != nil {
			return err
		}

		event, err = s.findEvent(ctx, txApp.DB(), id, true)
		if err != nil {
			return err
		}

		return txApp.DeleteWithContext(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Event deleted", "eventId", id)
	notify(ctx, s.notifier, EventChange{Type: ChangeEventDeleted, EventID: id, Published: event.Published})

	return event, nil
}

type categoryCount struct {
	Category string `db:"category"`
	Total    int64  `db:"total"`
}

// GetEventStats computes the overview counts, category distribution and recent events.
// The created range in q applies to every sub-query.
func (s *EventService) GetEventStats(ctx context.Context, q StatsQuery, actorRole models.Role) (*models.EventStats, error) {
	if err := authorize(actorRole, ActionViewStats); err != nil {
		return nil, err
	}

	filter := EventFilter{CreatedFrom: q.From, CreatedTo: q.To}
	now := dbTime(s.now())
	db := s.app.DB()

	var (
		overview   models.StatsOverview
		categories []categoryCount
		recent     []eventRow
	)

	g, gctx := errgroup.WithContext(ctx)

	count := func(dest *int64, extra ...dbx.Expression) {
		g.Go(func() error {
			return db.Select("COUNT(*)").
				From(models.EventsCollection + " e").
				Where(filter.with("e", extra...)).
				WithContext(gctx).
				Row(dest)
		})
	}

	count(&overview.TotalEvents)
	count(&overview.PublishedEvents, dbx.HashExp{"e.published": true})
	count(&overview.UpcomingEvents,
		dbx.HashExp{"e.status": string(models.EventStatusUpcoming)},
		dbx.NewExp("[[e.date]] >= {:now}", dbx.Params{"now": now}),
	)
	count(&overview.OngoingEvents, dbx.HashExp{"e.status": string(models.EventStatusOngoing)})
	count(&overview.CompletedEvents, dbx.HashExp{"e.status": string(models.EventStatusCompleted)})

	g.Go(func() error {
		return db.Select("COUNT(*)").
			From(models.RegistrationsCollection+" r").
			InnerJoin(models.EventsCollection+" e", dbx.NewExp("[[e.id]] = [[r.event]]")).
			Where(filter.Expression("e")).
			WithContext(gctx).
			Row(&overview.TotalRegistrations)
	})

	g.Go(func() error {
		return db.Select("e.category AS category", "COUNT(*) AS total").
			From(models.EventsCollection + " e").
			Where(filter.Expression("e")).
			GroupBy("e.category").
			WithContext(gctx).
			All(&categories)
	})

	g.Go(func() error {
		return selectEvents(db).
			Where(filter.Expression("e")).
			OrderBy("e.created DESC", "e.rowid DESC").
			Limit(recentEventsLimit).
			WithContext(gctx).
			All(&recent)
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute event stats: %w", err)
	}

	overview.AverageRegistrations = decimal.Zero
	if overview.TotalEvents > 0 {
		overview.AverageRegistrations = decimal.NewFromInt(overview.TotalRegistrations).
			Div(decimal.NewFromInt(overview.TotalEvents)).
			Round(2)
	}

	stats := &models.EventStats{
		Overview:             overview,
		CategoryDistribution: make(map[models.EventCategory]int64, len(categories)),
		RecentEvents:         make([]models.Event, 0, len(recent)),
	}
	for _, c := range categories {
		stats.CategoryDistribution[models.EventCategory(c.Category)] = c.Total
	}
	for _, row := range recent {
		stats.RecentEvents = append(stats.RecentEvents, row.toModel(false))
	}

	return stats, nil
}

func findEventRecord(app core.App, id string) (*core.Record, error) {
	record, err := app.FindRecordById(models.EventsCollection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to find event: %w", err)
	}
	return record, nil
}

func (s *EventService) findEvent(ctx context.Context, db dbx.Builder, id string, withEmail bool) (*models.Event, error) {
	var row eventRow
	err := selectEvents(db).
		Where(dbx.HashExp{"e.id": id}).
		WithContext(ctx).
		One(&row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to find event: %w", err)
	}

	event := row.toModel(withEmail)
	return &event, nil
}

// selectEvents projects events joined with their author and registration count.
func selectEvents(db dbx.Builder) *dbx.SelectQuery {
	return db.Select(
		"e.id",
		"e.name",
		"e.description",
		"e.category",
		"e.status",
		"e.date",
		"e.registration_deadline",
		"e.location",
		"e.published",
		"e.featured",
		"e.current_participants",
		"e.author",
		"e.created",
		"e.updated",
		"u.name AS author_name",
		"u.email AS author_email",
		"(SELECT COUNT(*) FROM {{"+models.RegistrationsCollection+"}} r WHERE [[r.event]] = [[e.id]]) AS registrations",
	).
		From(models.EventsCollection+" e").
		LeftJoin(models.UsersCollection+" u", dbx.NewExp("[[u.id]] = [[e.author]]"))
}

type eventRow struct {
	ID                   string         `db:"id"`
	Name                 string         `db:"name"`
	Description          string         `db:"description"`
	Category             string         `db:"category"`
	Status               string         `db:"status"`
	Date                 types.DateTime `db:"date"`
	RegistrationDeadline types.DateTime `db:"registration_deadline"`
	Location             string         `db:"location"`
	Published            bool           `db:"published"`
	Featured             bool           `db:"featured"`
	CurrentParticipants  float64        `db:"current_participants"`
	Author               string         `db:"author"`
	AuthorName           sql.NullString `db:"author_name"`
	AuthorEmail          sql.NullString `db:"author_email"`
	Registrations        int            `db:"registrations"`
	Created              types.DateTime `db:"created"`
	Updated              types.DateTime `db:"updated"`
}

func (r eventRow) toModel(withEmail bool) models.Event {
	event := models.Event{
		ID:                  r.ID,
		Name:                r.Name,
		Description:         r.Description,
		Category:            models.EventCategory(r.Category),
		Status:              models.EventStatus(r.Status),
		Date:                r.Date.Time(),
		Location:            r.Location,
		Published:           r.Published,
		Featured:            r.Featured,
		CurrentParticipants: int(r.CurrentParticipants),
		AuthorID:            r.Author,
		RegistrationCount:   r.Registrations,
		CreatedAt:           r.Created.Time(),
		UpdatedAt:           r.Updated.Time(),
	}

	if !r.RegistrationDeadline.IsZero() {
		deadline := r.RegistrationDeadline.Time()
		event.RegistrationDeadline = &deadline
	}

	if r.AuthorName.Valid || r.AuthorEmail.Valid {
		event.Author = &models.UserSummary{ID: r.Author, Name: r.AuthorName.String}
		if withEmail {
			event.Author.Email = r.AuthorEmail.String
		}
	}

	return event
}

type registrationRow struct {
	ID        string         `db:"id"`
	Event     string         `db:"event"`
	User      string         `db:"user"`
	UserName  sql.NullString `db:"user_name"`
	UserEmail sql.NullString `db:"user_email"`
	Created   types.DateTime `db:"created"`
}

func (r registrationRow) toModel() models.EventRegistration {
	reg := models.EventRegistration{
		ID:        r.ID,
		EventID:   r.Event,
		UserID:    r.User,
		CreatedAt: r.Created.Time(),
	}
	if r.UserName.Valid || r.UserEmail.Valid {
		reg.User = &models.UserSummary{ID: r.User, Name: r.UserName.String, Email: r.UserEmail.String}
	}
	return reg
}

func categoryRuleValues() []any {
	values := make([]any, 0, len(models.EventCategories))
	for _, c := range models.EventCategories {
		values = append(values, c)
	}
	return values
}

func statusRuleValues() []any {
	values := make([]any, 0, len(models.EventStatuses))
	for _, s := range models.EventStatuses {
		values = append(values, s)
	}
	return values
}
