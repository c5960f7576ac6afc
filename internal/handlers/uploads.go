package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"property-listing/internal/upload"
)

// UploadHandler serves stored images under /uploads
type UploadHandler struct {
	storage upload.Storage
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(storage upload.Storage) *UploadHandler {
	return &UploadHandler{storage: storage}
}

// Serve writes the named upload, honoring Range and conditional requests
func (h *UploadHandler) Serve(c *gin.Context) {
	name := c.Param("filename")
	if !upload.ValidName(name) {
		NotFound(c)
		return
	}

	rc, info, err := h.storage.Open(c.Request.Context(), name)
	if errors.Is(err, upload.ErrObjectNotFound) {
		NotFound(c)
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer rc.Close()

	if info.ContentType != "" {
		c.Header("Content-Type", info.ContentType)
	}

	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(c.Writer, c.Request, info.Name, info.ModTime, rs)
		return
	}

	if !info.ModTime.IsZero() {
		c.Header("Last-Modified", info.ModTime.UTC().Format(http.TimeFormat))
	}
	c.DataFromReader(http.StatusOK, info.Size, info.ContentType, rc, nil)
}

// Health reports liveness
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}
