package activities

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	v1 "github.com/powergrid-labs/gridtrack/internal/api/v1"
	httperr "github.com/powergrid-labs/gridtrack/internal/core/errors"
	"github.com/powergrid-labs/gridtrack/internal/core/storage"
)

const (
	msgInvalidJSON = "Invalid JSON body"
	msgInvalidID   = "Invalid id"
	msgNotFound    = "Activity not found"
)

// RegisterRoutes registers the write-path routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/activities", s.CreateHandler)
	r.PUT("/v1/activities/:id", s.UpdateHandler)
	r.PATCH("/v1/activities/:id", s.PatchHandler)
	r.POST("/v1/activities/bulk-update", s.BulkUpdateHandler)
	r.DELETE("/v1/activities/:id", s.DeleteHandler)
	r.POST("/v1/activities/bulk-delete", s.BulkDeleteHandler)
	r.POST("/v1/activities/reorder", s.ReorderHandler)

	r.POST("/v1/activities/:id/files", s.UploadFilesHandler)
	r.GET("/v1/files/:id", s.DownloadFileHandler)
	r.DELETE("/v1/files/:id", s.DeleteFileHandler)
}

// CreateHandler handles POST /v1/activities.
func (s *Service) CreateHandler(c *gin.Context) {
	var a v1.Activity
	if err := c.ShouldBindJSON(&a); err != nil {
		writeBadJSON(c, err)
		return
	}

	if err := s.Create(c.Request.Context(), &a); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, &a)
}

// UpdateHandler handles PUT /v1/activities/:id.
func (s *Service) UpdateHandler(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var a v1.Activity
	if err := c.ShouldBindJSON(&a); err != nil {
		writeBadJSON(c, err)
		return
	}
	a.ID = id

	if err := s.Update(c.Request.Context(), &a); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, &a)
}

// PatchHandler handles PATCH /v1/activities/:id with a single-field edit.
func (s *Service) PatchHandler(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var body struct {
		Field string      `json:"field" binding:"required"`
		Value interface{} `json:"value"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBadJSON(c, err)
		return
	}

	a, err := s.UpdateField(c.Request.Context(), id, body.Field, body.Value)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// BulkUpdateHandler handles POST /v1/activities/bulk-update.
func (s *Service) BulkUpdateHandler(c *gin.Context) {
	var body struct {
		IDs     []int64                `json:"ids"`
		Updates map[string]interface{} `json:"updates"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBadJSON(c, err)
		return
	}

	updated, err := s.BulkUpdate(c.Request.Context(), body.IDs, body.Updates)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": updated, "updatedCount": len(updated)})
}

// DeleteHandler handles DELETE /v1/activities/:id.
func (s *Service) DeleteHandler(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// BulkDeleteHandler handles POST /v1/activities/bulk-delete.
func (s *Service) BulkDeleteHandler(c *gin.Context) {
	var body struct {
		IDs []int64 `json:"ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBadJSON(c, err)
		return
	}

	if err := s.BulkDelete(c.Request.Context(), body.IDs); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deletedCount": len(body.IDs)})
}

// ReorderHandler handles POST /v1/activities/reorder.
func (s *Service) ReorderHandler(c *gin.Context) {
	var changes []OrderChange
	if err := c.ShouldBindJSON(&changes); err != nil {
		writeBadJSON(c, err)
		return
	}

	reordered, err := s.Reorder(c.Request.Context(), changes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": reordered})
}

// UploadFilesHandler handles POST /v1/activities/:id/files (multipart field
// "files").
func (s *Service) UploadFilesHandler(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid multipart form",
			Details:   err.Error(),
		})
		return
	}

	uploads := make([]Upload, 0, len(form.File["files"]))
	for _, fh := range form.File["files"] {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidJsonError,
				Message:   "Unreadable upload " + fh.Filename,
				Details:   err.Error(),
			})
			return
		}
		defer f.Close()
		uploads = append(uploads, Upload{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Content:     f,
		})
	}

	saved, err := s.AttachFiles(c.Request.Context(), id, uploads)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"files": saved})
}

// DownloadFileHandler handles GET /v1/files/:id.
func (s *Service) DownloadFileHandler(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	meta, rc, err := s.OpenFile(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", `attachment; filename="`+meta.FileName+`"`)
	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, meta.FileSize, contentType, rc, nil)
}

// DeleteFileHandler handles DELETE /v1/files/:id.
func (s *Service) DeleteFileHandler(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.DeleteFile(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// pathID parses the :id path parameter, writing the 400 response itself on
// failure.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpValidationError,
			Message:   msgInvalidID,
			Details:   c.Param("id"),
		})
		return 0, false
	}
	return id, true
}

func writeBadJSON(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
		ErrorType: httperr.HttpInvalidJsonError,
		Message:   msgInvalidJSON,
		Details:   err.Error(),
	})
}

// writeError maps service errors onto the HTTP error taxonomy.
func writeError(c *gin.Context, err error) {
	switch {
	case httperr.IsValidation(err):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpValidationError,
			Message:   err.Error(),
		})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   msgNotFound,
		})
	default:
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Internal error",
			Details:   err.Error(),
		})
	}
}
