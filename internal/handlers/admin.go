package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"property-listing/internal/cleanup"
	"property-listing/internal/database"
	"property-listing/internal/logging"
	"property-listing/internal/ratelimit"
	"property-listing/internal/scheduler"
	"property-listing/internal/search"
)

// AdminHandler handles admin-related requests
type AdminHandler struct {
	store          database.PropertyStore
	scheduler      *scheduler.Scheduler
	cleanupService *cleanup.Service
	indexer        search.Indexer
	rateLimiter    *ratelimit.RateLimiter
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store database.PropertyStore, sched *scheduler.Scheduler, svc *cleanup.Service,
	indexer search.Indexer, limiter *ratelimit.RateLimiter) *AdminHandler {
	if indexer == nil {
		indexer = search.Noop{}
	}
	return &AdminHandler{
		store:          store,
		scheduler:      sched,
		cleanupService: svc,
		indexer:        indexer,
		rateLimiter:    limiter,
	}
}

// GetStats returns system statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()
	stats := make(map[string]interface{})

	total, err := h.store.Count(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}
	stats["properties"] = map[string]interface{}{
		"total": total,
	}

	uploadStats, err := h.cleanupService.GetUploadStats(ctx)
	if err != nil {
		logging.Logger.WithError(err).Warn("Admin: Failed to get upload stats")
	} else {
		stats["uploads"] = uploadStats
	}

	if h.rateLimiter != nil {
		stats["rate_limit"] = h.rateLimiter.GetStats()
	}

	c.JSON(http.StatusOK, stats)
}

// RunCleanup removes uploads no property references
func (h *AdminHandler) RunCleanup(c *gin.Context) {
	var req struct {
		MinAgeHours      *int  `json:"min_age_hours"`      // Orphans younger than this are kept
		MaxDeletionCount *int  `json:"max_deletion_count"` // Safety limit
		DryRun           *bool `json:"dry_run"`            // Only report
	}

	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(&AppError{
				StatusCode: http.StatusBadRequest,
				Code:       "invalid_request",
				Message:    "Invalid cleanup request",
				Err:        err,
			})
			return
		}
	}

	config := h.scheduler.CleanupConfig()
	if req.MinAgeHours != nil && *req.MinAgeHours >= 0 {
		config.MinAge = time.Duration(*req.MinAgeHours) * time.Hour
	}
	if req.MaxDeletionCount != nil && *req.MaxDeletionCount >= 0 {
		config.MaxDeletionCount = *req.MaxDeletionCount
	}
	if req.DryRun != nil {
		config.DryRun = *req.DryRun
	}

	logging.Logger.Infof("Admin: Running cleanup (min age: %s, max: %d, dry-run: %v)",
		config.MinAge, config.MaxDeletionCount, config.DryRun)

	result, err := h.scheduler.Run(c.Request.Context(), config)
	if errors.Is(err, scheduler.ErrAlreadyRunning) {
		_ = c.Error(&AppError{
			StatusCode: http.StatusConflict,
			Code:       "cleanup_running",
			Message:    "Cleanup is already running",
		})
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Reindex pushes every stored property to the search index
func (h *AdminHandler) Reindex(c *gin.Context) {
	properties, err := h.store.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.indexer.IndexProperties(properties); err != nil {
		_ = c.Error(err)
		return
	}

	logging.Logger.Infof("[Reindex] Reindex complete. Total: %d", len(properties))
	c.JSON(http.StatusOK, gin.H{
		"message": "Reindex complete",
		"total":   len(properties),
	})
}

// GetRateLimitStats returns current rate limiter statistics
func (h *AdminHandler) GetRateLimitStats(c *gin.Context) {
	if h.rateLimiter == nil {
		c.JSON(http.StatusOK, ratelimit.Stats{})
		return
	}
	c.JSON(http.StatusOK, h.rateLimiter.GetStats())
}
