package handlers

import "property-listing/internal/models"

// CreatePropertyRequest holds the text fields of a creation request
type CreatePropertyRequest struct {
	Name     models.FlexString `form:"name" json:"name"`
	Price    models.FlexString `form:"price" json:"price"`
	Location models.FlexString `form:"location" json:"location"`
	Sqft     models.FlexString `form:"sqft" json:"sqft"`
}
