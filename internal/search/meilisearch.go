package search

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/meilisearch/meilisearch-go"

	"property-listing/internal/models"
)

// ErrDisabled is returned by Search when no search engine is configured
var ErrDisabled = errors.New("search is not configured")

// Indexer keeps a full-text index of properties in step with the store
type Indexer interface {
	IndexProperty(property *models.Property) error
	IndexProperties(properties []models.Property) error
	DeleteProperty(id int) error
	Search(query string, limit int64) ([]models.Property, error)
}

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey, index string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	if index == "" {
		index = "properties"
	}

	return &SearchClient{
		client: client,
		index:  index,
	}
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	// Create index if it doesn't exist
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && err.Error() != "index already exists" {
		return err
	}

	// Configure searchable attributes
	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"name",
		"location",
		"price",
		"sqft",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"id",
		"location",
	})
	return err
}

// IndexProperty indexes a single property
func (s *SearchClient) IndexProperty(property *models.Property) error {
	_, err := s.client.Index(s.index).AddDocuments([]models.Property{*property}, "id")
	return err
}

// IndexProperties indexes multiple properties
func (s *SearchClient) IndexProperties(properties []models.Property) error {
	if len(properties) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).AddDocuments(properties, "id")
	return err
}

// DeleteProperty removes a property from the index
func (s *SearchClient) DeleteProperty(id int) error {
	_, err := s.client.Index(s.index).DeleteDocument(strconv.Itoa(id))
	return err
}

// Search searches for properties
func (s *SearchClient) Search(query string, limit int64) ([]models.Property, error) {
	if limit <= 0 {
		limit = 20
	}

	searchRes, err := s.client.Index(s.index).Search(query, &meilisearch.SearchRequest{
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}

	return hitsToProperties(searchRes.Hits), nil
}

// hitsToProperties converts search hits to properties, skipping any hit
// that does not decode.
func hitsToProperties(hits []interface{}) []models.Property {
	properties := make([]models.Property, 0, len(hits))
	for _, hit := range hits {
		// Convert hit to JSON then to Property struct
		hitJSON, err := json.Marshal(hit)
		if err != nil {
			continue
		}

		var property models.Property
		if err := json.Unmarshal(hitJSON, &property); err != nil {
			continue
		}

		properties = append(properties, property)
	}
	return properties
}

// Noop is the Indexer used when search is not configured
type Noop struct{}

func (Noop) IndexProperty(*models.Property) error     { return nil }
func (Noop) IndexProperties([]models.Property) error { return nil }
func (Noop) DeleteProperty(int) error                 { return nil }
func (Noop) Search(string, int64) ([]models.Property, error) {
	return nil, ErrDisabled
}
