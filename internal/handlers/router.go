package handlers

import (
	"net/http"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"property-listing/internal/cleanup"
	"property-listing/internal/database"
	"property-listing/internal/logging"
	"property-listing/internal/ratelimit"
	"property-listing/internal/scheduler"
	"property-listing/internal/search"
	"property-listing/internal/upload"
)

// Dependencies are the services the router dispatches to
type Dependencies struct {
	Store        database.PropertyStore
	Uploader     *upload.Uploader
	Indexer      search.Indexer
	Cleanup      *cleanup.Service
	Scheduler    *scheduler.Scheduler
	RateLimiter  *ratelimit.RateLimiter
	AllowOrigins []string
}

// NewRouter builds the gin engine with every route registered
func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(logging.RequestLogger())
	r.Use(Recovery())
	r.Use(cors.New(corsConfig(deps.AllowOrigins)))
	r.Use(ErrorHandler())

	properties := NewPropertyHandler(deps.Store, deps.Uploader, deps.Indexer)
	uploads := NewUploadHandler(deps.Uploader.Storage())

	r.GET("/health", Health)

	create := []gin.HandlerFunc{}
	if deps.RateLimiter != nil {
		create = append(create, deps.RateLimiter.Middleware())
	}
	create = append(create, deps.Uploader.Single(), properties.Create)

	r.POST("/properties", create...)
	r.GET("/properties", properties.List)
	r.GET("/properties/search", properties.Search)
	r.DELETE("/properties/:id", properties.Delete)

	r.GET("/uploads/:filename", uploads.Serve)
	r.HEAD("/uploads/:filename", uploads.Serve)

	admin := NewAdminHandler(deps.Store, deps.Scheduler, deps.Cleanup, deps.Indexer, deps.RateLimiter)
	r.GET("/api/ratelimit/stats", admin.GetRateLimitStats)

	if deps.Scheduler != nil && deps.Cleanup != nil {
		group := r.Group("/api/admin")
		{
			group.GET("/stats", admin.GetStats)
			group.POST("/cleanup/run", admin.RunCleanup)
			group.POST("/search/reindex", admin.Reindex)
		}
	}

	r.NoRoute(NotFound)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
