package mcp

import (
	"log/slog"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/vacay/internal/config"
	"github.com/hpungsan/vacay/internal/history"
	"github.com/hpungsan/vacay/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     func() mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"itinerary_plan": {
		def:     planToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlan },
	},
	"itinerary_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"itinerary_fetch": {
		def:     fetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetch },
	},
	"itinerary_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"itinerary_current": {
		def:     currentToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCurrent },
	},
}

// AllToolNames returns a sorted list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with the itinerary tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(store *history.Store, planner *ops.Planner, cfg *config.Config, logger *slog.Logger, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"vacay",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(store, planner, logger)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for _, name := range AllToolNames() {
		if disabled[name] {
			continue
		}
		entry := toolRegistry[name]
		s.AddTool(entry.def(), entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(store *history.Store, planner *ops.Planner, cfg *config.Config, logger *slog.Logger, version string) error {
	s := NewServer(store, planner, cfg, logger, version)
	return server.ServeStdio(s)
}
