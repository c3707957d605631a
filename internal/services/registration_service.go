package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"event-management/internal/status"
	"event-management/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// RegistrationService signs users up for events and keeps current_participants in step
// with the registration rows.
type RegistrationService struct {
	app core.App
	now func() time.Time
}

func NewRegistrationService(app core.App) *RegistrationService {
	return &RegistrationService{app: app, now: time.Now}
}

func (s *RegistrationService) Register(ctx context.Context, eventID, userID string) (*models.EventRegistration, error) {
	var registration *core.Record

	err := s.app.RunInTransaction(func(txApp core.App) error {
		event, err := findEventRecord(txApp, eventID)
		if err != nil {
			return err
		}

		if !event.GetBool("published") {
			return fmt.Errorf("%w: event is not published", status.ErrRegistrationClosed)
		}
		deadline := event.GetDateTime("registration_deadline")
		if !deadline.IsZero() && s.now().After(deadline.Time()) {
			return fmt.Errorf("%w: deadline has passed", status.ErrRegistrationClosed)
		}

		existing, err := findRegistration(txApp, eventID, userID)
		if err != nil && !errors.Is(err, status.ErrNotRegistered) {
			return err
		}
		if existing != nil {
			return status.ErrAlreadyRegistered
		}

		collection, err := txApp.FindCollectionByNameOrId(models.RegistrationsCollection)
		if err != nil {
			return err
		}

		registration = core.NewRecord(collection)
		registration.Set("event", eventID)
		registration.Set("user", userID)
		if err := txApp.SaveWithContext(ctx, registration); err != nil {
			return fmt.Errorf("failed to save registration: %w", err)
		}

		event.Set("current_participants+", 1)
		return txApp.SaveWithContext(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("User registered for event", "eventId", eventID, "userId", userID)

	return &models.EventRegistration{
		ID:        registration.Id,
		EventID:   eventID,
		UserID:    userID,
		CreatedAt: registration.GetDateTime("created").Time(),
	}, nil
}

func (s *RegistrationService) Cancel(ctx context.Context, eventID, userID string) error {
	err := s.app.RunInTransaction(func(txApp core.App) error {
		event, err := findEventRecord(txApp, eventID)
		if err != nil {
			return err
		}

		registration, err := findRegistration(txApp, eventID, userID)
		if err != nil {
			return err
		}

		if err := txApp.DeleteWithContext(ctx, registration); err != nil {
			return fmt.Errorf("failed to delete registration: %w", err)
		}

		participants := event.GetInt("current_participants") - 1
		if participants < 0 {
			participants = 0
		}
		event.Set("current_participants", participants)
		return txApp.SaveWithContext(ctx, event)
	})
	if err != nil {
		return err
	}

	slog.Info("User cancelled event registration", "eventId", eventID, "userId", userID)
	return nil
}

func findRegistration(app core.App, eventID, userID string) (*core.Record, error) {
	record, err := app.FindFirstRecordByFilter(
		models.RegistrationsCollection,
		"event = {:event} && user = {:user}",
		dbx.Params{"event": eventID, "user": userID},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrNotRegistered
		}
		return nil, fmt.Errorf("failed to find registration: %w", err)
	}
	return record, nil
}
