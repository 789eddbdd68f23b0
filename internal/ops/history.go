package ops

import (
	"context"
	"log/slog"

	"github.com/hpungsan/vacay/internal/history"
	"github.com/hpungsan/vacay/internal/itinerary"
)

// ListHistoryOutput contains the result of the ListHistory operation.
type ListHistoryOutput struct {
	Items         []HistoryItem `json:"items"`
	Count         int           `json:"count"`
	Limit         int           `json:"limit"`
	LastGenerated string        `json:"last_generated,omitempty"`
}

// ListHistory returns the history summaries, newest first.
func ListHistory(store *history.Store) *ListHistoryOutput {
	records := store.List()
	items := make([]HistoryItem, len(records))
	for i, r := range records {
		items[i] = ToHistoryItem(r)
	}
	return &ListHistoryOutput{
		Items:         items,
		Count:         len(items),
		Limit:         store.Limit(),
		LastGenerated: store.LastGenerated(),
	}
}

// FetchHistory returns a full history record by id.
func FetchHistory(store *history.Store, id string) (*itinerary.Record, error) {
	id, err := ValidateID(id)
	if err != nil {
		return nil, err
	}
	return store.Get(id)
}

// OpenHistoryOutput contains the result of the OpenHistory operation.
type OpenHistoryOutput struct {
	Opened  bool              `json:"opened"`
	Record  *itinerary.Record `json:"record,omitempty"`
	Warning string            `json:"warning,omitempty"`
}

// OpenHistory makes a history record the current itinerary.
// An unknown id leaves everything unchanged and reports Opened=false.
func OpenHistory(ctx context.Context, store *history.Store, logger *slog.Logger, id string) (*OpenHistoryOutput, error) {
	id, err := ValidateID(id)
	if err != nil {
		return nil, err
	}

	rec, err := store.Get(id)
	if err != nil {
		return &OpenHistoryOutput{}, nil
	}

	out := &OpenHistoryOutput{Opened: true, Record: rec}
	if err := store.SetCurrent(ctx, rec.Itinerary); err != nil {
		if logger != nil {
			logger.Warn("current itinerary kept in memory only", "id", id, "error", err)
		}
		out.Warning = warningFor(err)
	}
	return out, nil
}

// DeleteHistoryOutput contains the result of the DeleteHistory operation.
type DeleteHistoryOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
	Warning string `json:"warning,omitempty"`
}

// DeleteHistory removes a history record. An unknown id is a no-op.
func DeleteHistory(ctx context.Context, store *history.Store, logger *slog.Logger, id string) (*DeleteHistoryOutput, error) {
	id, err := ValidateID(id)
	if err != nil {
		return nil, err
	}

	removed, err := store.Remove(ctx, id)
	out := &DeleteHistoryOutput{ID: id, Deleted: removed}
	if err != nil {
		if logger != nil {
			logger.Warn("history deletion kept in memory only", "id", id, "error", err)
		}
		out.Warning = warningFor(err)
	}
	return out, nil
}
