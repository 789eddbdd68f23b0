package web

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/gorilla/schema"

	"github.com/hpungsan/vacay/internal/errors"
	"github.com/hpungsan/vacay/internal/itinerary"
	"github.com/hpungsan/vacay/internal/ops"
)

// maxFormBytes bounds a plan submission.
const maxFormBytes = 1 << 20

// planForm mirrors the planner form. Rows are posted as destinations.N.field.
type planForm struct {
	Destinations []destinationRow `schema:"destinations"`
	Preferences  string           `schema:"preferences"`
}

type destinationRow struct {
	Name          string `schema:"name"`
	Mode          string `schema:"mode"`
	Date          string `schema:"date"`
	DurationStart string `schema:"duration_start"`
	NumDays       string `schema:"num_days"`
	RangeStart    string `schema:"range_start"`
	RangeEnd      string `schema:"range_end"`
}

// entry converts a posted row; an unknown mode is treated as no dates.
func (d destinationRow) entry() itinerary.DestinationEntry {
	mode, _ := itinerary.ParseDateMode(d.Mode)
	return itinerary.DestinationEntry{
		Name:          d.Name,
		Mode:          mode,
		Date:          d.Date,
		DurationStart: d.DurationStart,
		NumDays:       d.NumDays,
		RangeStart:    d.RangeStart,
		RangeEnd:      d.RangeEnd,
	}
}

// planJSON is the JSON body accepted by POST /plan.
type planJSON struct {
	Destinations []itinerary.DestinationEntry `json:"destinations"`
	Preferences  string                       `json:"preferences"`
}

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// decodePlanRequest reads a plan submission from either a JSON body or an
// application/x-www-form-urlencoded form.
func (h *Handlers) decodePlanRequest(w http.ResponseWriter, r *http.Request) (ops.GenerateInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "application/json" {
		var body planJSON
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.logger.Error("error parsing plan request body", "error", err)
			return ops.GenerateInput{}, errors.NewInvalidRequest("unable to parse request body")
		}
		return ops.GenerateInput{Destinations: body.Destinations, Preferences: body.Preferences}, nil
	}

	if err := r.ParseForm(); err != nil {
		h.logger.Error("error parsing form", "error", err)
		return ops.GenerateInput{}, errors.NewInvalidRequest("invalid form data")
	}

	var form planForm
	if err := h.decoder.Decode(&form, r.PostForm); err != nil {
		h.logger.Error("error decoding plan form", "error", err)
		return ops.GenerateInput{}, errors.NewInvalidRequest("invalid form data")
	}

	entries := make([]itinerary.DestinationEntry, len(form.Destinations))
	for i, d := range form.Destinations {
		entries[i] = d.entry()
	}
	return ops.GenerateInput{Destinations: entries, Preferences: form.Preferences}, nil
}

// defaultEntry is the blank row shown on a fresh form.
func defaultEntry() itinerary.DestinationEntry {
	return itinerary.DestinationEntry{Mode: itinerary.DateModeNone, NumDays: "7"}
}
