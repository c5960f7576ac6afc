package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexString accepts a JSON string, number, boolean or null and keeps its
// literal text, so `"price": 250000` and `"price": "250000"` read alike.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case len(data) > 0 && (data[0] == '{' || data[0] == '['):
		return fmt.Errorf("expected a scalar value, got %s", data)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err == nil {
			*f = FlexString(n.String())
			return nil
		}
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*f = FlexString(fmt.Sprint(b))
	}
	return nil
}

// StoredProperty is the lenient on-disk form of a Property. Files written
// by older versions of the service may hold numbers in the text fields.
type StoredProperty struct {
	ID       int        `json:"id"`
	Name     FlexString `json:"name"`
	Price    FlexString `json:"price"`
	Location FlexString `json:"location"`
	Sqft     FlexString `json:"sqft"`
	Image    FlexString `json:"image"`
}

// Property converts the stored form into a Property
func (s StoredProperty) Property() Property {
	return Property{
		ID:       s.ID,
		Name:     string(s.Name),
		Price:    string(s.Price),
		Location: string(s.Location),
		Sqft:     string(s.Sqft),
		Image:    string(s.Image),
	}
}
