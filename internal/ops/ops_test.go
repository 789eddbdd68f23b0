package ops

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/vacay/internal/backend"
	"github.com/hpungsan/vacay/internal/db"
	"github.com/hpungsan/vacay/internal/errors"
	"github.com/hpungsan/vacay/internal/history"
	"github.com/hpungsan/vacay/internal/itinerary"
)

// fakeBackend is a scriptable Backend.
type fakeBackend struct {
	mu       sync.Mutex
	plans    []backend.PlanRequest
	pdfs     []backend.PDFRequest
	planFn   func(ctx context.Context, req backend.PlanRequest) (*itinerary.Itinerary, error)
	pdfFn    func(ctx context.Context, req backend.PDFRequest) (*backend.PDFResponse, error)
	healthFn func(ctx context.Context) (*backend.HealthResponse, error)
}

func (f *fakeBackend) Plan(ctx context.Context, req backend.PlanRequest) (*itinerary.Itinerary, error) {
	f.mu.Lock()
	f.plans = append(f.plans, req)
	f.mu.Unlock()
	if f.planFn != nil {
		return f.planFn(ctx, req)
	}
	return &itinerary.Itinerary{Markdown: "# Trip to " + req.Destinations[0].Name}, nil
}

func (f *fakeBackend) GeneratePDF(ctx context.Context, req backend.PDFRequest) (*backend.PDFResponse, error) {
	f.mu.Lock()
	f.pdfs = append(f.pdfs, req)
	f.mu.Unlock()
	if f.pdfFn != nil {
		return f.pdfFn(ctx, req)
	}
	return &backend.PDFResponse{Success: true, PDFPath: "/tmp/itinerary.pdf"}, nil
}

func (f *fakeBackend) Health(ctx context.Context) (*backend.HealthResponse, error) {
	if f.healthFn != nil {
		return f.healthFn(ctx)
	}
	return &backend.HealthResponse{Status: "healthy", LLMLoaded: true}, nil
}

// failingSlots accepts reads and rejects every write.
type failingSlots struct{}

func (failingSlots) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (failingSlots) Put(context.Context, string, []byte) error         { return fmt.Errorf("disk full") }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *history.Store {
	t.Helper()
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	store := history.New(db.NewSlotStore(database), history.Options{Logger: quietLogger()})
	store.Load(context.Background())
	return store
}

func dest(name string) itinerary.DestinationEntry {
	return itinerary.DestinationEntry{Name: name, Mode: itinerary.DateModeNone}
}

func TestToHistoryItem(t *testing.T) {
	item := ToHistoryItem(itinerary.Record{
		ID:                  "01J",
		Timestamp:           "2024-06-01T12:00:00.000Z",
		Itinerary:           itinerary.Itinerary{Markdown: "# Full body"},
		DestinationsSummary: "Paris",
		Preview:             "# Full",
	})
	require.Equal(t, HistoryItem{
		ID:                  "01J",
		Timestamp:           "2024-06-01T12:00:00.000Z",
		DestinationsSummary: "Paris",
		Preview:             "# Full",
	}, item)
}

func TestValidateID(t *testing.T) {
	id, err := ValidateID("  01J  ")
	require.NoError(t, err)
	require.Equal(t, "01J", id)

	_, err = ValidateID("   ")
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}
