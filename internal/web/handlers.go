package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/schema"

	"github.com/hpungsan/vacay/internal/config"
	"github.com/hpungsan/vacay/internal/errors"
	"github.com/hpungsan/vacay/internal/history"
	"github.com/hpungsan/vacay/internal/itinerary"
	"github.com/hpungsan/vacay/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	store    *history.Store
	planner  *ops.Planner
	backend  ops.Backend
	monitor  *ops.HealthMonitor
	opener   ops.Opener
	cfg      *config.Config
	renderer *Renderer
	logger   *slog.Logger
	decoder  *schema.Decoder
}

func newHandlers(deps Deps, renderer *Renderer) *Handlers {
	return &Handlers{
		store:    deps.Store,
		planner:  deps.Planner,
		backend:  deps.Backend,
		monitor:  deps.Monitor,
		opener:   deps.Opener,
		cfg:      deps.Config,
		renderer: renderer,
		logger:   deps.Logger,
		decoder:  newFormDecoder(),
	}
}

// indexData assembles the planner page from the current application state.
func (h *Handlers) indexData(entries []itinerary.DestinationEntry, preferences string, flashes ...Flash) IndexPageData {
	if len(entries) == 0 {
		entries = []itinerary.DestinationEntry{defaultEntry()}
	}
	for i := range entries {
		if entries[i].NumDays == "" {
			entries[i].NumDays = "7"
		}
	}

	list := ops.ListHistory(h.store)
	data := IndexPageData{
		PageData: PageData{
			Title:   "Vacation Planner",
			Version: h.renderer.version,
		},
		Destinations:  entries,
		Preferences:   preferences,
		DateModes:     itinerary.DateModes,
		History:       list.Items,
		HistoryLimit:  list.Limit,
		LastGenerated: list.LastGenerated,
		Busy:          h.planner.Busy(),
		Flashes:       flashes,
	}
	if h.monitor != nil {
		data.Status = h.monitor.Status()
	}
	if cur := h.store.Current(); cur != nil {
		data.Current = cur
		data.CurrentHTML = renderMarkdown(cur.Markdown)
	}
	return data
}

// HandleIndex handles GET /: the planner form, current itinerary and history.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, "index", h.indexData(nil, ""))
}

// HandlePlan handles POST /plan: generate an itinerary.
func (h *Handlers) HandlePlan(w http.ResponseWriter, r *http.Request) {
	input, err := h.decodePlanRequest(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// A closed tab must not discard a generation that is already running;
	// the backend client's request timeout still bounds it.
	out, err := h.planner.Generate(context.WithoutCancel(r.Context()), input)
	if wantsJSON(r) {
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		renderJSON(w, http.StatusCreated, out)
		return
	}

	if err != nil {
		vErr := asVacayError(err)
		message := vErr.Message
		if vErr.Code == errors.ErrBackend || vErr.Code == errors.ErrBackendUnavailable {
			message = "Error: " + vErr.Message + ". Make sure the backend is running."
		}
		h.renderer.renderPageStatus(w, vErr.Status, "index",
			h.indexData(input.Destinations, input.Preferences, Flash{Kind: "error", Message: message}))
		return
	}

	flashes := []Flash{{Kind: "success", Message: "Itinerary generated successfully!"}}
	if out.Warning != "" {
		flashes = append(flashes, Flash{Kind: "warning", Message: out.Warning})
	}
	h.renderer.renderPage(w, "index", h.indexData(input.Destinations, input.Preferences, flashes...))
}

// HandlePDF handles POST /pdf: export the current itinerary as PDF.
func (h *Handlers) HandlePDF(w http.ResponseWriter, r *http.Request) {
	opener := h.opener
	if h.cfg.NoOpenPDF {
		opener = nil
	}

	out, err := ops.ExportPDF(r.Context(), h.backend, h.store, opener, h.logger, ops.ExportPDFInput{
		OutputPath: h.cfg.PDFOutputDir,
		Open:       opener != nil,
	})
	if wantsJSON(r) {
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		renderJSON(w, http.StatusOK, out)
		return
	}

	if err != nil {
		vErr := asVacayError(err)
		message := vErr.Message
		if vErr.Code != errors.ErrInvalidRequest {
			message = "Error generating PDF: " + vErr.Message
		}
		h.renderer.renderPageStatus(w, vErr.Status, "index",
			h.indexData(nil, "", Flash{Kind: "error", Message: message}))
		return
	}

	var flashes []Flash
	switch {
	case !out.Success:
		flashes = append(flashes, Flash{Kind: "error", Message: "Error generating PDF: the backend did not produce a file"})
	case out.Opened:
		flashes = append(flashes, Flash{Kind: "success", Message: "PDF generated successfully! Opening..."})
	default:
		flashes = append(flashes, Flash{Kind: "success", Message: "PDF saved to " + out.PDFPath})
	}
	if out.Warning != "" {
		flashes = append(flashes, Flash{Kind: "warning", Message: out.Warning})
	}

	data := h.indexData(nil, "", flashes...)
	data.PDFPath = out.PDFPath
	h.renderer.renderPage(w, "index", data)
}

// HandleOpenHistory handles GET /history/{id}: make a history entry current.
func (h *Handlers) HandleOpenHistory(w http.ResponseWriter, r *http.Request) {
	out, err := ops.OpenHistory(r.Context(), h.store, h.logger, r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, out)
		return
	}
	if out.Warning != "" {
		h.renderer.renderPage(w, "index", h.indexData(nil, "", Flash{Kind: "warning", Message: out.Warning}))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleDeleteHistory handles DELETE /history/{id} and POST /history/{id}/delete.
func (h *Handlers) HandleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	out, err := ops.DeleteHistory(r.Context(), h.store, h.logger, r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, out)
		return
	}
	if r.Method == http.MethodDelete {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleHistoryJSON handles GET /api/history: history summaries as JSON.
func (h *Handlers) HandleHistoryJSON(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, ops.ListHistory(h.store))
}

// HandleStatus handles GET /status: backend status as JSON or an HTML fragment.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var status ops.HealthStatus
	if h.monitor != nil {
		status = h.monitor.Status()
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{
			"state":      status.State,
			"label":      status.Label(),
			"llm_loaded": status.LLMLoaded,
			"busy":       h.planner.Busy(),
		})
		return
	}
	h.renderer.renderBlock(w, http.StatusOK, "index", "status", IndexPageData{Status: status})
}
