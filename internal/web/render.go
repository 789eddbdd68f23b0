package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/vacay/internal/errors"
	"github.com/hpungsan/vacay/internal/itinerary"
	"github.com/hpungsan/vacay/internal/ops"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
}

// Flash is a one-shot status message shown above the form.
type Flash struct {
	Kind    string // info, success, warning, error
	Message string
}

// IndexPageData is the template data for the planner page.
type IndexPageData struct {
	PageData
	Destinations  []itinerary.DestinationEntry
	Preferences   string
	DateModes     []itinerary.DateMode
	Current       *itinerary.Itinerary
	CurrentHTML   template.HTML
	History       []ops.HistoryItem
	HistoryLimit  int
	LastGenerated string
	Status        ops.HealthStatus
	Busy          bool
	Flashes       []Flash
	PDFPath       string
}

// NewEntry is the blank row cloned by the "add destination" button.
func (IndexPageData) NewEntry() itinerary.DestinationEntry {
	return defaultEntry()
}

// rowData is the template data for one destination row.
type rowData struct {
	Index int
	Entry itinerary.DestinationEntry
	Modes []itinerary.DateMode
}

func newRowData(index int, entry itinerary.DestinationEntry, modes []itinerary.DateMode) rowData {
	return rowData{Index: index, Entry: entry, Modes: modes}
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	logger    *slog.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string, logger *slog.Logger) *Renderer {
	funcMap := template.FuncMap{
		"add":             func(a, b int) int { return a + b },
		"formatTimestamp": formatTimestamp,
		"modeLabel":       modeLabel,
		"rowData":         newRowData,
	}

	// Parse layout as the base template
	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"index": "index.html",
		"error": "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
		logger:    logger,
	}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	r.renderBlock(w, status, name, "layout", data)
}

// renderBlock renders a specific named block from a page template.
// Used by the status poller, which swaps a fragment of the page.
func (r *Renderer) renderBlock(w http.ResponseWriter, status int, page, block string, data any) {
	t, ok := r.templates[page]
	if !ok {
		r.logger.Error("template not found", "template", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		r.logger.Error("template execution error", "template", page, "block", block, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	vErr := asVacayError(err)

	if wantsJSON(req) {
		renderJSON(w, vErr.Status, errorBody(vErr))
		return
	}

	r.renderPageStatus(w, vErr.Status, "error", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", vErr.Status),
			Version: r.version,
		},
		StatusCode: vErr.Status,
		Message:    vErr.Message,
	})
}

func asVacayError(err error) *errors.VacayError {
	var vErr *errors.VacayError
	if !stderrors.As(err, &vErr) {
		vErr = errors.NewInternal(err)
	}
	return vErr
}

func errorBody(vErr *errors.VacayError) map[string]any {
	body := map[string]any{
		"code":    string(vErr.Code),
		"message": vErr.Message,
		"status":  vErr.Status,
	}
	if len(vErr.Details) > 0 {
		body["details"] = vErr.Details
	}
	return map[string]any{"error": body}
}

// wantsJSON reports whether the client asked for or sent JSON.
func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json")
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts markdown text to HTML using goldmark.
// Raw HTML in the markdown is dropped by goldmark's default renderer.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// formatTimestamp formats a stored ISO-8601 timestamp as "2006-01-02 15:04" UTC.
// Unparsable values are shown as stored.
func formatTimestamp(ts string) string {
	t, err := time.Parse(itinerary.TimestampFormat, ts)
	if err != nil {
		if t, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return ts
		}
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func modeLabel(m itinerary.DateMode) string {
	switch m {
	case itinerary.DateModeSingle:
		return "Single date"
	case itinerary.DateModeDuration:
		return "Start + days"
	case itinerary.DateModeRange:
		return "Date range"
	default:
		return "No dates"
	}
}
