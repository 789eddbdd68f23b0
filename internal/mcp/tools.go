package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var destinationSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"name":           map[string]any{"type": "string", "description": "Destination name, e.g. \"Paris, France\""},
		"mode":           map[string]any{"type": "string", "enum": []string{"none", "single", "duration", "range"}, "description": "How dates are given (default none)"},
		"date":           map[string]any{"type": "string", "description": "YYYY-MM-DD, for mode single"},
		"duration_start": map[string]any{"type": "string", "description": "YYYY-MM-DD, for mode duration"},
		"num_days":       map[string]any{"type": "integer", "description": "Days to add to duration_start (default 7)"},
		"range_start":    map[string]any{"type": "string", "description": "YYYY-MM-DD, for mode range"},
		"range_end":      map[string]any{"type": "string", "description": "YYYY-MM-DD, for mode range"},
	},
	"required": []string{"name"},
}

func planToolDef() mcp.Tool {
	return mcp.NewTool("itinerary_plan",
		mcp.WithDescription("Generate a vacation itinerary with the local backend and save it to history. Can take several minutes."),
		mcp.WithArray("destinations",
			mcp.Required(),
			mcp.Description("Destinations in travel order"),
			mcp.Items(destinationSchema),
		),
		mcp.WithString("preferences",
			mcp.Required(),
			mcp.Description("Interests, budget, pace and other travel preferences"),
		),
	)
}

func listToolDef() mcp.Tool {
	return mcp.NewTool("itinerary_list",
		mcp.WithDescription("List saved itineraries, newest first, without their full text."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func fetchToolDef() mcp.Tool {
	return mcp.NewTool("itinerary_fetch",
		mcp.WithDescription("Fetch a saved itinerary by id, including its markdown."),
		mcp.WithString("id", mcp.Required(), mcp.Description("History entry id")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func deleteToolDef() mcp.Tool {
	return mcp.NewTool("itinerary_delete",
		mcp.WithDescription("Delete a saved itinerary. Unknown ids are ignored."),
		mcp.WithString("id", mcp.Required(), mcp.Description("History entry id")),
		mcp.WithDestructiveHintAnnotation(true),
	)
}

func currentToolDef() mcp.Tool {
	return mcp.NewTool("itinerary_current",
		mcp.WithDescription("Return the itinerary currently shown in the planner."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}
