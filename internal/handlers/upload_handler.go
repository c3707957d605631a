package handlers

import (
	"net/http"

	"event-management/internal/services"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

const uploadField = "file"

type UploadHandler struct {
	uploads *services.UploadService
}

func NewUploadHandler(uploads *services.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Upload - POST /api/v1/uploads (multipart, field "file")
func (h *UploadHandler) Upload(e *core.RequestEvent) error {
	ownerID, err := member(e)
	if err != nil {
		return err
	}

	files, err := e.FindUploadedFiles(uploadField)
	if err != nil || len(files) == 0 {
		return apis.NewBadRequestError("Missing multipart file field \""+uploadField+"\".", nil)
	}

	upload, err := h.uploads.Store(e.Request.Context(), ownerID, files[0])
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusCreated, upload)
}
