package itinerary

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateMode selects how a destination's travel dates are specified.
type DateMode string

const (
	DateModeNone     DateMode = "none"
	DateModeSingle   DateMode = "single"
	DateModeDuration DateMode = "duration"
	DateModeRange    DateMode = "range"
)

// DateModes lists the valid modes in display order.
var DateModes = []DateMode{DateModeNone, DateModeSingle, DateModeDuration, DateModeRange}

// DefaultNumDays is used for duration mode when the day count is absent or unparsable.
const DefaultNumDays = 7

// Day-count bounds offered by the form. Extraction does not enforce them.
const (
	MinNumDays = 1
	MaxNumDays = 365
)

const dateLayout = "2006-01-02"

// ParseDateMode parses a mode name. The empty string is DateModeNone.
func ParseDateMode(s string) (DateMode, error) {
	m := DateMode(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return DateModeNone, nil
	}
	for _, known := range DateModes {
		if m == known {
			return m, nil
		}
	}
	return DateModeNone, fmt.Errorf("unknown date mode %q", s)
}

// DestinationEntry is the raw state of one destination row in the form.
// Only the fields belonging to Mode are read during extraction.
type DestinationEntry struct {
	Name          string   `json:"name"`
	Mode          DateMode `json:"mode"`
	Date          string   `json:"date,omitempty"`           // single
	DurationStart string   `json:"duration_start,omitempty"` // duration
	NumDays       string   `json:"num_days,omitempty"`       // duration
	RangeStart    string   `json:"range_start,omitempty"`    // range
	RangeEnd      string   `json:"range_end,omitempty"`      // range
}

// Destination is a destination as sent to the backend.
type Destination struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Extract converts form entries into backend destinations.
// Entries whose name is empty after trimming are dropped.
func Extract(entries []DestinationEntry) []Destination {
	out := make([]Destination, 0, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		start, end := e.dates()
		out = append(out, Destination{Name: name, StartDate: start, EndDate: end})
	}
	return out
}

// dates resolves the start/end pair for the entry's mode.
// The mode is matched case-insensitively; unknown modes behave like DateModeNone.
func (e DestinationEntry) dates() (string, string) {
	mode, _ := ParseDateMode(string(e.Mode))
	switch mode {
	case DateModeSingle:
		return e.Date, e.Date
	case DateModeDuration:
		start := strings.TrimSpace(e.DurationStart)
		if start == "" {
			return "", ""
		}
		return start, AddDays(start, ParseNumDays(e.NumDays))
	case DateModeRange:
		return e.RangeStart, e.RangeEnd
	default:
		return "", ""
	}
}

// ParseNumDays reads the leading integer of s, so "10 days" is 10.
// Absent, unparsable and zero values yield DefaultNumDays.
func ParseNumDays(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return DefaultNumDays
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil || n == 0 {
		return DefaultNumDays
	}
	return n
}

// AddDays returns date (YYYY-MM-DD) plus n calendar days.
// It returns "" if date cannot be parsed.
func AddDays(date string, n int) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, n).Format(dateLayout)
}

// Summary joins destination names into the human-readable history summary.
func Summary(destinations []Destination) string {
	names := make([]string, 0, len(destinations))
	for _, d := range destinations {
		names = append(names, d.Name)
	}
	return strings.Join(names, ", ")
}
