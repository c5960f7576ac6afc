package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"property-listing/internal/database"
	"property-listing/internal/logging"
	"property-listing/internal/models"
	"property-listing/internal/search"
	"property-listing/internal/upload"
)

var errPropertyNotFound = &AppError{
	StatusCode: http.StatusNotFound,
	Code:       ErrCodeNotFound,
	Message:    "Property not found",
}

// PropertyHandler serves the property listing endpoints
type PropertyHandler struct {
	store    database.PropertyStore
	uploader *upload.Uploader
	indexer  search.Indexer
}

// NewPropertyHandler creates a new property handler. A nil indexer
// disables search.
func NewPropertyHandler(store database.PropertyStore, uploader *upload.Uploader, indexer search.Indexer) *PropertyHandler {
	if indexer == nil {
		indexer = search.Noop{}
	}
	return &PropertyHandler{store: store, uploader: uploader, indexer: indexer}
}

// Create stores a new property with the image accepted by the upload
// middleware, if any
func (h *PropertyHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	stored := upload.FileFromContext(c)

	var req CreatePropertyRequest
	if err := bindCreate(c, &req); err != nil {
		h.discard(c, stored)
		_ = c.Error(err)
		return
	}

	property := &models.Property{
		Name:     string(req.Name),
		Price:    string(req.Price),
		Location: string(req.Location),
		Sqft:     string(req.Sqft),
	}
	if stored != nil {
		property.Image = stored.Path
	}

	if err := h.store.Create(ctx, property); err != nil {
		h.discard(c, stored)
		_ = c.Error(err)
		return
	}

	if err := h.indexer.IndexProperty(property); err != nil {
		logging.Logger.WithError(err).WithField("id", property.ID).Warn("Failed to index property")
	}

	logging.Logger.WithFields(logrus.Fields{
		"id":    property.ID,
		"image": property.Image,
	}).Info("Property created")

	c.JSON(http.StatusCreated, property)
}

// bindCreate reads the text fields from a form or JSON body. An empty
// body yields empty fields.
func bindCreate(c *gin.Context, req *CreatePropertyRequest) error {
	if c.Request.ContentLength == 0 && c.ContentType() != binding.MIMEMultipartPOSTForm {
		return nil
	}
	switch c.ContentType() {
	case binding.MIMEJSON:
		return c.ShouldBindJSON(req)
	case binding.MIMEMultipartPOSTForm:
		return c.ShouldBindWith(req, binding.FormMultipart)
	default:
		return c.ShouldBindWith(req, binding.Form)
	}
}

// discard removes an upload whose property was never stored
func (h *PropertyHandler) discard(c *gin.Context, stored *upload.StoredFile) {
	if stored == nil {
		return
	}
	if err := h.uploader.Remove(c.Request.Context(), stored.Path); err != nil {
		logging.Logger.WithError(err).WithField("image", stored.Path).Warn("Failed to remove orphaned upload")
	}
}

// List returns every property in insertion order
func (h *PropertyHandler) List(c *gin.Context) {
	properties, err := h.store.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	if properties == nil {
		properties = []models.Property{}
	}
	c.JSON(http.StatusOK, properties)
}

// Delete removes a property and its image
func (h *PropertyHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		_ = c.Error(errPropertyNotFound)
		return
	}

	property, err := h.store.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		_ = c.Error(errPropertyNotFound)
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	if property.HasImage() {
		if err := h.uploader.Remove(ctx, property.Image); err != nil {
			logging.Logger.WithError(err).WithFields(logrus.Fields{
				"id":    id,
				"image": property.Image,
			}).Error("Failed to delete property image")
		}
	}

	if err := h.store.Delete(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			_ = c.Error(errPropertyNotFound)
			return
		}
		_ = c.Error(err)
		return
	}

	if err := h.indexer.DeleteProperty(id); err != nil {
		logging.Logger.WithError(err).WithField("id", id).Warn("Failed to remove property from index")
	}

	logging.Logger.WithField("id", id).Info("Property deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Property deleted successfully"})
}

// Search runs a full-text query. Without a query it lists every property.
func (h *PropertyHandler) Search(c *gin.Context) {
	query := c.Query("q")
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit <= 0 {
		limit = 20
	}

	if query == "" {
		h.List(c)
		return
	}

	properties, err := h.indexer.Search(query, limit)
	if errors.Is(err, search.ErrDisabled) || errors.Is(err, search.ErrCircuitOpen) {
		_ = c.Error(&AppError{
			StatusCode: http.StatusServiceUnavailable,
			Code:       ErrCodeServiceUnavailable,
			Message:    "Search is not available",
		})
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	if properties == nil {
		properties = []models.Property{}
	}
	c.JSON(http.StatusOK, properties)
}
