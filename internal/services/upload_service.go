package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"event-management/internal/status"
	"event-management/models"
	"event-management/monitoring"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/filesystem"
)

// UploadPolicy limits what the upload endpoint accepts. AllowedTypes entries are exact
// MIME types or "type/*" wildcards; an empty list allows everything.
type UploadPolicy struct {
	MaxSize      int64
	AllowedTypes []string
}

func (p UploadPolicy) Allows(mimeType string) bool {
	if len(p.AllowedTypes) == 0 {
		return true
	}

	mimeType = strings.ToLower(mimeType)
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	for _, allowed := range p.AllowedTypes {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if allowed == mimeType {
			return true
		}
		if prefix, ok := strings.CutSuffix(allowed, "/*"); ok && strings.HasPrefix(mimeType, prefix+"/") {
			return true
		}
	}
	return false
}

type UploadService struct {
	app    core.App
	policy UploadPolicy
}

func NewUploadService(app core.App, policy UploadPolicy) *UploadService {
	return &UploadService{app: app, policy: policy}
}

func (s *UploadService) Policy() UploadPolicy {
	return s.policy
}

// Store checks file against the policy, sniffing its content type, and saves it as an
// uploads record owned by ownerID.
func (s *UploadService) Store(ctx context.Context, ownerID string, file *filesystem.File) (*models.Upload, error) {
	if s.policy.MaxSize > 0 && file.Size > s.policy.MaxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte limit", status.ErrFileTooLarge, file.Size, s.policy.MaxSize)
	}

	mimeType, err := detectMimeType(file)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allows(mimeType) {
		return nil, fmt.Errorf("%w: %s", status.ErrFileTypeNotAllowed, mimeType)
	}

	collection, err := s.app.FindCollectionByNameOrId(models.UploadsCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to find uploads collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("file", file)
	record.Set("owner", ownerID)
	record.Set("original_name", file.OriginalName)
	record.Set("mime_type", mimeType)
	record.Set("size", file.Size)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	monitoring.TrackUpload(mimeType, file.Size)
	slog.Info("File uploaded", "uploadId", record.Id, "ownerId", ownerID, "mimeType", mimeType, "size", file.Size)

	name := record.GetString("file")
	return &models.Upload{
		ID:           record.Id,
		Name:         name,
		OriginalName: file.OriginalName,
		MimeType:     mimeType,
		Size:         file.Size,
		URL:          fileURL(collection.Id, record.Id, name),
		OwnerID:      ownerID,
		CreatedAt:    record.GetDateTime("created").Time(),
	}, nil
}

func detectMimeType(file *filesystem.File) (string, error) {
	r, err := file.Reader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer r.Close()

	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to detect content type: %w", err)
	}
	return mtype.String(), nil
}

func fileURL(collectionID, recordID, name string) string {
	return "/api/files/" + url.PathEscape(collectionID) + "/" + url.PathEscape(recordID) + "/" + url.PathEscape(name)
}
