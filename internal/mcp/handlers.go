package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/vacay/internal/errors"
	"github.com/hpungsan/vacay/internal/history"
	"github.com/hpungsan/vacay/internal/itinerary"
	"github.com/hpungsan/vacay/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store   *history.Store
	planner *ops.Planner
	logger  *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store *history.Store, planner *ops.Planner, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{store: store, planner: planner, logger: logger}
}

// PlanRequest represents the arguments for itinerary_plan.
type PlanRequest struct {
	Destinations []PlanDestination `json:"destinations"`
	Preferences  string            `json:"preferences"`
}

// PlanDestination is one destination in itinerary_plan.
type PlanDestination struct {
	Name          string `json:"name"`
	Mode          string `json:"mode,omitempty"`
	Date          string `json:"date,omitempty"`
	DurationStart string `json:"duration_start,omitempty"`
	NumDays       *int   `json:"num_days,omitempty"`
	RangeStart    string `json:"range_start,omitempty"`
	RangeEnd      string `json:"range_end,omitempty"`
}

func (d PlanDestination) entry() (itinerary.DestinationEntry, error) {
	mode, err := itinerary.ParseDateMode(d.Mode)
	if err != nil {
		return itinerary.DestinationEntry{}, errors.NewInvalidRequest(err.Error())
	}
	e := itinerary.DestinationEntry{
		Name:          d.Name,
		Mode:          mode,
		Date:          d.Date,
		DurationStart: d.DurationStart,
		RangeStart:    d.RangeStart,
		RangeEnd:      d.RangeEnd,
	}
	if d.NumDays != nil {
		e.NumDays = strconv.Itoa(*d.NumDays)
	}
	return e, nil
}

// IDRequest represents the arguments for tools addressing one history entry.
type IDRequest struct {
	ID string `json:"id"`
}

// CurrentResult is the result of itinerary_current.
type CurrentResult struct {
	Itinerary     *itinerary.Itinerary `json:"itinerary"`
	LastGenerated string               `json:"last_generated,omitempty"`
}

// HandlePlan handles the itinerary_plan tool call.
func (h *Handlers) HandlePlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PlanRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	entries := make([]itinerary.DestinationEntry, len(input.Destinations))
	for i, d := range input.Destinations {
		if entries[i], err = d.entry(); err != nil {
			return errorResult(err), nil
		}
	}

	result, err := h.planner.Generate(ctx, ops.GenerateInput{
		Destinations: entries,
		Preferences:  input.Preferences,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the itinerary_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.ListHistory(h.store))
}

// HandleFetch handles the itinerary_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.FetchHistory(h.store, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the itinerary_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.DeleteHistory(ctx, h.store, h.logger, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCurrent handles the itinerary_current tool call.
func (h *Handlers) HandleCurrent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(CurrentResult{
		Itinerary:     h.store.Current(),
		LastGenerated: h.store.LastGenerated(),
	})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var vErr *errors.VacayError
	if stderrors.As(err, &vErr) {
		errorObj := map[string]any{
			"code":    vErr.Code,
			"message": vErr.Message,
			"status":  vErr.Status,
		}
		if vErr.Code != errors.ErrInternal && vErr.Details != nil {
			errorObj["details"] = vErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
