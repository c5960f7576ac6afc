package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"property-listing/internal/database"
	"property-listing/internal/logging"
	"property-listing/internal/upload"
)

// Service removes uploads that no property references
type Service struct {
	store   database.PropertyStore
	storage upload.Storage
	now     func() time.Time
}

// NewService creates a new cleanup service
func NewService(store database.PropertyStore, storage upload.Storage) *Service {
	return &Service{store: store, storage: storage, now: time.Now}
}

// CleanupConfig holds configuration for cleanup operations
type CleanupConfig struct {
	MinAge           time.Duration // Orphans younger than this are kept; uploads may not be attached to a record yet
	MaxDeletionCount int           // Abort when more orphans than this are found (0 = no limit)
	DryRun           bool          // Only report what would be deleted
}

// DefaultCleanupConfig returns default configuration
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		MinAge:           24 * time.Hour,
		MaxDeletionCount: 1000,
		DryRun:           false,
	}
}

// CleanupResult holds the result of a cleanup operation
type CleanupResult struct {
	ScannedCount int       `json:"scanned_count"`
	TargetCount  int       `json:"target_count"`
	DeletedCount int       `json:"deleted_count"`
	ErrorCount   int       `json:"error_count"`
	FreedBytes   int64     `json:"freed_bytes"`
	DryRun       bool      `json:"dry_run"`
	ExecutedAt   time.Time `json:"executed_at"`
	DeletedFiles []string  `json:"deleted_files"`
	Errors       []string  `json:"errors,omitempty"`
}

// scan lists every stored upload and the set of names properties reference
func (s *Service) scan(ctx context.Context) ([]upload.ObjectInfo, map[string]bool, error) {
	properties, err := s.store.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list properties: %w", err)
	}
	referenced := make(map[string]bool, len(properties))
	for _, p := range properties {
		if name, ok := upload.NameFromPublicPath(p.Image); ok {
			referenced[name] = true
		}
	}

	objects, err := s.storage.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	return objects, referenced, nil
}

// FindOrphans returns stored uploads that no property references and that
// are older than minAge, plus the number of uploads scanned.
func (s *Service) FindOrphans(ctx context.Context, minAge time.Duration) ([]upload.ObjectInfo, int, error) {
	objects, referenced, err := s.scan(ctx)
	if err != nil {
		return nil, 0, err
	}

	cutoff := s.now().Add(-minAge)
	var orphans []upload.ObjectInfo
	for _, obj := range objects {
		if referenced[obj.Name] || obj.ModTime.After(cutoff) {
			continue
		}
		orphans = append(orphans, obj)
	}

	return orphans, len(objects), nil
}

// Run deletes orphaned uploads
func (s *Service) Run(ctx context.Context, config CleanupConfig) (*CleanupResult, error) {
	result := &CleanupResult{
		DryRun:       config.DryRun,
		ExecutedAt:   s.now(),
		DeletedFiles: []string{},
	}

	orphans, scanned, err := s.FindOrphans(ctx, config.MinAge)
	if err != nil {
		return nil, err
	}
	result.ScannedCount = scanned
	result.TargetCount = len(orphans)

	if result.TargetCount == 0 {
		logging.Logger.Debug("Cleanup: no orphaned uploads found")
		return result, nil
	}

	// Safety check: a store that failed to load would make every upload look orphaned
	if config.MaxDeletionCount > 0 && result.TargetCount > config.MaxDeletionCount {
		return nil, fmt.Errorf("safety check failed: %d orphaned uploads exceed max deletion limit of %d",
			result.TargetCount, config.MaxDeletionCount)
	}

	logging.Logger.WithFields(logrus.Fields{
		"targets": result.TargetCount,
		"dry_run": config.DryRun,
	}).Info("Cleanup: removing orphaned uploads")

	for _, obj := range orphans {
		if config.DryRun {
			logging.Logger.Infof("[DRY-RUN] Would delete upload %s (%d bytes)", obj.Name, obj.Size)
			result.DeletedFiles = append(result.DeletedFiles, obj.Name)
			result.DeletedCount++
			result.FreedBytes += obj.Size
			continue
		}

		if err := s.storage.Delete(ctx, obj.Name); err != nil {
			logging.Logger.WithError(err).Warnf("Cleanup: failed to delete upload %s", obj.Name)
			result.ErrorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", obj.Name, err))
			continue
		}
		result.DeletedFiles = append(result.DeletedFiles, obj.Name)
		result.DeletedCount++
		result.FreedBytes += obj.Size
	}

	logging.Logger.Infof("Cleanup: %d/%d orphaned uploads deleted (dry-run: %v)",
		result.DeletedCount, result.TargetCount, result.DryRun)
	return result, nil
}

// UploadStats summarises stored uploads
type UploadStats struct {
	Files      int   `json:"files"`
	TotalBytes int64 `json:"total_bytes"`
	Orphaned   int   `json:"orphaned"`
}

// GetUploadStats returns counts over all stored uploads
func (s *Service) GetUploadStats(ctx context.Context) (*UploadStats, error) {
	objects, referenced, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}

	stats := &UploadStats{Files: len(objects)}
	for _, obj := range objects {
		stats.TotalBytes += obj.Size
		if !referenced[obj.Name] {
			stats.Orphaned++
		}
	}
	return stats, nil
}
