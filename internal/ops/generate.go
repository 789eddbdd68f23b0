package ops

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/hpungsan/vacay/internal/backend"
	"github.com/hpungsan/vacay/internal/errors"
	"github.com/hpungsan/vacay/internal/history"
	"github.com/hpungsan/vacay/internal/itinerary"
)

// GenerateInput contains parameters for the Generate operation.
type GenerateInput struct {
	Destinations []itinerary.DestinationEntry
	Preferences  string
}

// GenerateOutput contains the result of the Generate operation.
type GenerateOutput struct {
	Record  *itinerary.Record `json:"record"`
	Warning string            `json:"warning,omitempty"` // non-fatal persistence problem
}

// Planner generates itineraries and records them in the history.
// At most one generation runs at a time; there is no cancellation of an
// in-flight request other than through ctx.
type Planner struct {
	backend Backend
	store   *history.Store
	logger  *slog.Logger
	busy    atomic.Bool
}

// NewPlanner creates a Planner.
func NewPlanner(b Backend, store *history.Store, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{backend: b, store: store, logger: logger}
}

// Busy reports whether a generation is in flight.
func (p *Planner) Busy() bool {
	return p.busy.Load()
}

// Generate validates the form, posts it to the backend and appends the result to history.
// A call made while another is in flight fails with GENERATION_IN_PROGRESS.
func (p *Planner) Generate(ctx context.Context, input GenerateInput) (*GenerateOutput, error) {
	preferences := strings.TrimSpace(input.Preferences)
	if preferences == "" {
		return nil, errors.NewInvalidRequest("Please enter your preferences")
	}

	destinations := itinerary.Extract(input.Destinations)
	if len(destinations) == 0 {
		return nil, errors.NewInvalidRequest("Please add at least one destination")
	}

	if !p.busy.CompareAndSwap(false, true) {
		return nil, errors.NewGenerationInProgress()
	}
	defer p.busy.Store(false)

	summary := itinerary.Summary(destinations)
	p.logger.Info("generating itinerary", "destinations", summary)

	it, err := p.backend.Plan(ctx, backend.PlanRequest{
		Destinations: destinations,
		Preferences:  preferences,
	})
	if err != nil {
		p.logger.Error("itinerary generation failed", "error", err)
		return nil, err
	}

	rec, err := p.store.Append(ctx, *it, summary)
	if rec == nil {
		return nil, err
	}
	if err != nil {
		p.logger.Warn("itinerary kept in memory only", "id", rec.ID, "error", err)
	}

	return &GenerateOutput{
		Record:  rec,
		Warning: warningFor(err),
	}, nil
}
