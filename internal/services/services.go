// package services defines the [Recommender] interface for the external recommendation endpoint
package services

import (
	"context"

	"github.com/desertthunder/songrec/internal/models"
)

// Recommender is the contract of the external recommendation service.
//
// Both calls issue one request and return records already merged against the local catalog.
type Recommender interface {
	// FetchMetadata enriches catalog songs with preview, track and image URLs.
	FetchMetadata(ctx context.Context, ids []int) ([]models.SongMetadata, error)

	// FetchRecommendations ranks up to count songs similar to seeds, filtered by genres.
	// An empty genres slice is sent as-is and its meaning belongs to the service.
	FetchRecommendations(ctx context.Context, seeds []int, genres []string, count int) ([]models.SongMetadata, error)
}

// RequestType distinguishes the two payloads the endpoint accepts.
type RequestType string

const (
	RequestMetadata RequestType = "metadata"
	RequestRecs     RequestType = "recs"
)

// Request is the JSON body posted to the endpoint.
type Request struct {
	Type   RequestType `json:"type"`
	Songs  []int       `json:"songs"`
	Genres []string    `json:"genres"`
	TopK   int         `json:"topk"`
}

// Response is the JSON body the endpoint answers with.
//
// Songs is a pointer so a body without the field can be told apart from an empty list.
type Response struct {
	Songs *[]models.SongMetadata `json:"songs"`
}
