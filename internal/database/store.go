package database

import (
	"context"
	"errors"

	"property-listing/internal/models"
)

// ErrNotFound is returned when no property has the requested id
var ErrNotFound = errors.New("property not found")

// PropertyStore is the authoritative ordered sequence of property records.
// Create assigns the record's ID; List returns records in insertion order.
type PropertyStore interface {
	List(ctx context.Context) ([]models.Property, error)
	Get(ctx context.Context, id int) (*models.Property, error)
	Create(ctx context.Context, p *models.Property) error
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int64, error)
	Close() error
}
