package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/vacay/internal/backend"
	"github.com/hpungsan/vacay/internal/errors"
	"github.com/hpungsan/vacay/internal/itinerary"
)

// Backend is the subset of the backend client the operations depend on.
// *backend.Client satisfies it.
type Backend interface {
	Plan(ctx context.Context, req backend.PlanRequest) (*itinerary.Itinerary, error)
	GeneratePDF(ctx context.Context, req backend.PDFRequest) (*backend.PDFResponse, error)
	Health(ctx context.Context) (*backend.HealthResponse, error)
}

// HistoryItem is a history record without the full itinerary body.
type HistoryItem struct {
	ID                  string `json:"id"`
	Timestamp           string `json:"timestamp"`
	DestinationsSummary string `json:"destinationsSummary"`
	Preview             string `json:"preview"`
}

// ToHistoryItem strips the itinerary body from a record.
func ToHistoryItem(r itinerary.Record) HistoryItem {
	return HistoryItem{
		ID:                  r.ID,
		Timestamp:           r.Timestamp,
		DestinationsSummary: r.DestinationsSummary,
		Preview:             r.Preview,
	}
}

// ValidateID trims a history id and rejects empty ones.
func ValidateID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.NewInvalidRequest("id is required")
	}
	return id, nil
}

// warningFor returns a user-facing warning for a non-fatal persistence error.
func warningFor(err error) string {
	if err == nil {
		return ""
	}
	return "Saved for this session only: " + err.Error()
}
