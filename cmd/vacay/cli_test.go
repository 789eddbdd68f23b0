package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hpungsan/vacay/internal/config"
	"github.com/hpungsan/vacay/internal/db"
	"github.com/hpungsan/vacay/internal/itinerary"
	"github.com/hpungsan/vacay/internal/ops"
)

// setupTestDeps wires a temporary database to a fake backend.
func setupTestDeps(t *testing.T, backendHandler http.HandlerFunc) *appDeps {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	srv := httptest.NewServer(backendHandler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.BackendURL = srv.URL
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newAppDeps(context.Background(), database, cfg, logger)
}

func planBackend(t *testing.T, got *[]map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/plan":
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode: %v", err)
			}
			*got = append(*got, body)
			_, _ = w.Write([]byte(`{"markdown": "# Generated"}`))
		case "/health":
			_, _ = w.Write([]byte(`{"status": "healthy", "llm_loaded": false}`))
		default:
			http.NotFound(w, r)
		}
	}
}

// runCLI runs the app with args and returns stdout.
func runCLI(t *testing.T, deps *appDeps, args ...string) (string, error) {
	t.Helper()
	app := newCLIApp(deps)
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"vacay"}, args...))
	return out.String(), err
}

func TestParseDestSpec(t *testing.T) {
	tests := []struct {
		spec string
		want itinerary.DestinationEntry
	}{
		{"Lisbon", itinerary.DestinationEntry{Name: "Lisbon", Mode: itinerary.DateModeNone}},
		{"  Paris, France  ", itinerary.DestinationEntry{Name: "Paris, France", Mode: itinerary.DateModeNone}},
		{"Lisbon@2024-01-01", itinerary.DestinationEntry{Name: "Lisbon", Mode: itinerary.DateModeSingle, Date: "2024-01-01"}},
		{"Lisbon@2024-01-01+10", itinerary.DestinationEntry{Name: "Lisbon", Mode: itinerary.DateModeDuration, DurationStart: "2024-01-01", NumDays: "10"}},
		{"Lisbon@2024-01-01..2024-01-05", itinerary.DestinationEntry{Name: "Lisbon", Mode: itinerary.DateModeRange, RangeStart: "2024-01-01", RangeEnd: "2024-01-05"}},
		{"me@home@2024-02-02", itinerary.DestinationEntry{Name: "me@home", Mode: itinerary.DateModeSingle, Date: "2024-02-02"}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := parseDestSpec(tt.spec)
			if err != nil {
				t.Fatalf("parseDestSpec(%q): %v", tt.spec, err)
			}
			if got != tt.want {
				t.Errorf("parseDestSpec(%q) = %+v, want %+v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestParseDestSpec_Invalid(t *testing.T) {
	for _, spec := range []string{
		"",
		"@2024-01-01",
		"Lisbon@tomorrow",
		"Lisbon@2024-01-01+",
		"Lisbon@2024-01-01+0",
		"Lisbon@2024-01-01+abc",
		"Lisbon@2024-01-01+400",
		"Lisbon@2024-01-01..soon",
	} {
		if _, err := parseDestSpec(spec); err == nil {
			t.Errorf("parseDestSpec(%q) succeeded, want error", spec)
		}
	}
}

func TestCLIPlan(t *testing.T) {
	var requests []map[string]any
	deps := setupTestDeps(t, planBackend(t, &requests))

	out, err := runCLI(t, deps, "plan",
		"--dest", "Paris, France@2024-01-01+10",
		"--dest", "Lyon",
		"--preferences", "food")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	var result ops.GenerateOutput
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if result.Record.DestinationsSummary != "Paris, France, Lyon" {
		t.Errorf("summary = %q", result.Record.DestinationsSummary)
	}

	if len(requests) != 1 {
		t.Fatalf("backend requests = %d, want 1", len(requests))
	}
	dests := requests[0]["destinations"].([]any)
	first := dests[0].(map[string]any)
	if first["name"] != "Paris, France" || first["end_date"] != "2024-01-11" {
		t.Errorf("first destination = %v", first)
	}
	if deps.store.Len() != 1 {
		t.Errorf("history len = %d, want 1", deps.store.Len())
	}
}

func TestCLIPlan_ValidationError(t *testing.T) {
	var requests []map[string]any
	deps := setupTestDeps(t, planBackend(t, &requests))

	_, err := runCLI(t, deps, "plan", "--preferences", "food")
	if err == nil || !strings.Contains(err.Error(), "[INVALID_REQUEST] Please add at least one destination") {
		t.Fatalf("err = %v", err)
	}
	if len(requests) != 0 {
		t.Error("backend should not be called")
	}
}

func TestCLIHistoryShowOpenDelete(t *testing.T) {
	var requests []map[string]any
	deps := setupTestDeps(t, planBackend(t, &requests))
	ctx := context.Background()

	first, err := deps.store.Append(ctx, itinerary.Itinerary{Markdown: "# First"}, "A")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := deps.store.Append(ctx, itinerary.Itinerary{Markdown: "# Second"}, "B"); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, deps, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var list ops.ListHistoryOutput
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Count != 2 || list.Items[1].ID != first.ID {
		t.Errorf("history = %+v", list)
	}

	out, err = runCLI(t, deps, "show", "--markdown", first.ID)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if strings.TrimSpace(out) != "# First" {
		t.Errorf("show output = %q", out)
	}

	if _, err := runCLI(t, deps, "show", "nope"); err == nil || !strings.Contains(err.Error(), "[NOT_FOUND]") {
		t.Errorf("show unknown err = %v", err)
	}

	if _, err := runCLI(t, deps, "open", first.ID); err != nil {
		t.Fatalf("open: %v", err)
	}
	out, err = runCLI(t, deps, "current", "-m")
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if strings.TrimSpace(out) != "# First" {
		t.Errorf("current = %q, want # First", out)
	}

	out, err = runCLI(t, deps, "delete", first.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, `"deleted": true`) {
		t.Errorf("delete output = %s", out)
	}
	if deps.store.Len() != 1 {
		t.Errorf("history len = %d, want 1", deps.store.Len())
	}
}

func TestCLICurrent_None(t *testing.T) {
	var requests []map[string]any
	deps := setupTestDeps(t, planBackend(t, &requests))

	_, err := runCLI(t, deps, "current")
	if err == nil || !strings.Contains(err.Error(), "no current itinerary") {
		t.Errorf("err = %v", err)
	}
}

func TestCLIPDF_NoItinerary(t *testing.T) {
	var requests []map[string]any
	deps := setupTestDeps(t, planBackend(t, &requests))

	_, err := runCLI(t, deps, "pdf")
	if err == nil || !strings.Contains(err.Error(), "No itinerary to export") {
		t.Errorf("err = %v", err)
	}
}

func TestCLIHealth(t *testing.T) {
	var requests []map[string]any
	deps := setupTestDeps(t, planBackend(t, &requests))

	out, err := runCLI(t, deps, "health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if !strings.Contains(out, `"state": "loading"`) {
		t.Errorf("health output = %s", out)
	}
}

func TestDetectMode(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		interactive bool
		want        runMode
	}{
		{"no args terminal", []string{"vacay"}, true, modeBanner},
		{"no args piped", []string{"vacay"}, false, modeMCP},
		{"help flag", []string{"vacay", "--help"}, true, modeInfo},
		{"version flag piped", []string{"vacay", "-v"}, false, modeInfo},
		{"known command", []string{"vacay", "history"}, true, modeCLI},
		{"known command piped", []string{"vacay", "plan"}, false, modeCLI},
		{"unknown command terminal", []string{"vacay", "itinerary"}, true, modeUnknown},
		{"unknown command piped", []string{"vacay", "itinerary"}, false, modeMCP},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectMode(tt.args, tt.interactive); got != tt.want {
				t.Errorf("detectMode(%v, %v) = %d, want %d", tt.args, tt.interactive, got, tt.want)
			}
		})
	}
}
