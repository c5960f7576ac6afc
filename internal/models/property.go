package models

// Property is a single listing record.
type Property struct {
	// Seq keeps insertion order in database backends; never exposed.
	Seq int64 `gorm:"primaryKey;autoIncrement" json:"-"`

	ID       int    `gorm:"not null;uniqueIndex" json:"id"`
	Name     string `gorm:"type:text" json:"name"`
	Price    string `gorm:"type:text" json:"price"`
	Location string `gorm:"type:text" json:"location"`
	Sqft     string `gorm:"type:text" json:"sqft"`
	Image    string `gorm:"type:text" json:"image"`
}

// TableName specifies the table name
func (Property) TableName() string {
	return "properties"
}

// HasImage reports whether the record references an uploaded file
func (p *Property) HasImage() bool {
	return p.Image != ""
}
