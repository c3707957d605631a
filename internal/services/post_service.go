package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"event-management/internal/status"
	"event-management/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"golang.org/x/sync/errgroup"
)

type CreatePostInput struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
}

func (in CreatePostInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Content, validation.Length(0, 50000)),
	)
}

type UpdatePostInput struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Published *bool   `json:"published"`
}

func (in UpdatePostInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&in.Content, validation.Length(0, 50000)),
	)
}

type PostService struct {
	app    core.App
	limits ListLimits
}

func NewPostService(app core.App, limits ListLimits) *PostService {
	return &PostService{app: app, limits: limits}
}

// List returns published posts, newest first.
func (s *PostService) List(ctx context.Context, page, limit int) (*models.Page[models.Post], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.limits.DefaultLimit
	}
	if s.limits.MaxLimit > 0 && limit > s.limits.MaxLimit {
		limit = s.limits.MaxLimit
	}

	published := dbx.HashExp{"published": true}

	var (
		records []*core.Record
		total   int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.app.RecordQuery(models.PostsCollection).
			AndWhere(published).
			OrderBy("created DESC", "rowid DESC").
			Limit(int64(limit)).
			Offset(pageOffset(page, limit)).
			WithContext(gctx).
			All(&records)
	})
	g.Go(func() error {
		var err error
		total, err = s.app.CountRecords(models.PostsCollection, published)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	authors, err := s.authors(records)
	if err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, len(records))
	for _, record := range records {
		posts = append(posts, postFromRecord(record, authors[record.GetString("author")]))
	}

	return &models.Page[models.Post]{
		Data:       posts,
		Pagination: models.NewPagination(total, page, limit),
	}, nil
}

// FindOne returns a post. Drafts are only visible to their author and to editors and admins.
func (s *PostService) FindOne(ctx context.Context, id, actorID string, actorRole models.Role) (*models.Post, error) {
	record, err := s.findRecord(s.app, id)
	if err != nil {
		return nil, err
	}

	if !record.GetBool("published") && !canManagePost(record, actorID, actorRole) {
		return nil, status.ErrPostNotFound
	}

	return s.toModel(record)
}

func (s *PostService) Create(ctx context.Context, in CreatePostInput, actorID string) (*models.Post, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	collection, err := s.app.FindCollectionByNameOrId(models.PostsCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to find posts collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("title", strings.TrimSpace(in.Title))
	record.Set("content", in.Content)
	record.Set("published", in.Published)
	record.Set("author", actorID)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return s.toModel(record)
}

func (s *PostService) Update(ctx context.Context, id string, in UpdatePostInput, actorID string, actorRole models.Role) (*models.Post, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var record *core.Record
	err := s.app.RunInTransaction(func(txApp core.App) error {
		var err error
		record, err = s.findRecord(txApp, id)
		if err != nil {
			return err
		}
		if !canManagePost(record, actorID, actorRole) {
			return fmt.Errorf("%w: only the author, editors and admins can change a post", status.ErrForbidden)
		}

		if in.Title != nil {
			record.Set("title", strings.TrimSpace(*in.Title))
		}
		if in.Content != nil {
			record.Set("content", *in.Content)
		}
		if in.Published != nil {
			record.Set("published", *in.Published)
		}

		return txApp.SaveWithContext(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	return s.toModel(record)
}

func (s *PostService) Delete(ctx context.Context, id, actorID string, actorRole models.Role) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		record, err := s.findRecord(txApp, id)
		if err != nil {
			return err
		}
		if !canManagePost(record, actorID, actorRole) {
			return fmt.Errorf("%w: only the author, editors and admins can delete a post", status.ErrForbidden)
		}
		return txApp.DeleteWithContext(ctx, record)
	})
}

func canManagePost(record *core.Record, actorID string, actorRole models.Role) bool {
	if actorRole.CanManageEvents() {
		return true
	}
	return actorID != "" && record.GetString("author") == actorID
}

func (s *PostService) findRecord(app core.App, id string) (*core.Record, error) {
	record, err := app.FindRecordById(models.PostsCollection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	return record, nil
}

func (s *PostService) toModel(record *core.Record) (*models.Post, error) {
	authors, err := s.authors([]*core.Record{record})
	if err != nil {
		return nil, err
	}
	post := postFromRecord(record, authors[record.GetString("author")])
	return &post, nil
}

func (s *PostService) authors(records []*core.Record) (map[string]*models.UserSummary, error) {
	ids := make([]string, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, record := range records {
		id := record.GetString("author")
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	result := make(map[string]*models.UserSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	users, err := s.app.FindRecordsByIds(models.UsersCollection, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load post authors: %w", err)
	}
	for _, user := range users {
		result[user.Id] = &models.UserSummary{ID: user.Id, Name: user.GetString("name")}
	}
	return result, nil
}

func postFromRecord(record *core.Record, author *models.UserSummary) models.Post {
	return models.Post{
		ID:        record.Id,
		Title:     record.GetString("title"),
		Content:   record.GetString("content"),
		Published: record.GetBool("published"),
		AuthorID:  record.GetString("author"),
		Author:    author,
		CreatedAt: record.GetDateTime("created").Time(),
		UpdatedAt: record.GetDateTime("updated").Time(),
	}
}
