// Package itinerary defines the itinerary payload, history records and
// destination form extraction.
package itinerary

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// TimestampFormat is the ISO-8601 layout used for record timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// ErrMissingMarkdown is returned when an itinerary payload has no markdown string.
var ErrMissingMarkdown = errors.New("itinerary payload has no markdown field")

// Itinerary is the payload returned by the backend for a generated plan.
// Markdown is the only field the client interprets; every other top-level
// field is kept verbatim in Fields and written back on marshal.
type Itinerary struct {
	Markdown string
	Fields   map[string]json.RawMessage
}

// MarshalJSON writes markdown alongside the passthrough fields.
func (it Itinerary) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(it.Fields)+1)
	for k, v := range it.Fields {
		out[k] = v
	}
	md, err := json.Marshal(it.Markdown)
	if err != nil {
		return nil, err
	}
	out["markdown"] = md
	return json.Marshal(out)
}

// UnmarshalJSON requires a string markdown field and keeps the rest opaque.
func (it *Itinerary) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	mdRaw, ok := raw["markdown"]
	if !ok || string(mdRaw) == "null" {
		return ErrMissingMarkdown
	}
	var md string
	if err := json.Unmarshal(mdRaw, &md); err != nil {
		return ErrMissingMarkdown
	}
	delete(raw, "markdown")

	var fields map[string]json.RawMessage
	if len(raw) > 0 {
		fields = make(map[string]json.RawMessage, len(raw))
		for k, v := range raw {
			var buf bytes.Buffer
			if err := json.Compact(&buf, v); err != nil {
				return err
			}
			fields[k] = json.RawMessage(buf.Bytes())
		}
	}

	it.Markdown = md
	it.Fields = fields
	return nil
}

// Clone returns a deep copy of the itinerary.
func (it Itinerary) Clone() Itinerary {
	c := Itinerary{Markdown: it.Markdown}
	if it.Fields != nil {
		c.Fields = make(map[string]json.RawMessage, len(it.Fields))
		for k, v := range it.Fields {
			c.Fields[k] = append(json.RawMessage(nil), v...)
		}
	}
	return c
}

// Record is one entry of the itinerary history. Records are immutable once created.
type Record struct {
	ID                  string    `json:"id"`
	Timestamp           string    `json:"timestamp"`
	Itinerary           Itinerary `json:"itinerary"`
	DestinationsSummary string    `json:"destinationsSummary"`
	Preview             string    `json:"preview"`
}

// Time parses the record timestamp. It returns the zero time if the timestamp is malformed.
func (r Record) Time() time.Time {
	t, err := time.Parse(TimestampFormat, r.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatTimestamp renders t as a UTC ISO-8601 timestamp with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// Preview returns the first n characters (runes) of markdown, or all of it if shorter.
func Preview(markdown string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range markdown {
		if count == n {
			return markdown[:i]
		}
		count++
	}
	return markdown
}
