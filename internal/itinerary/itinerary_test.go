package itinerary

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestItinerary_UnmarshalKeepsExtraFields(t *testing.T) {
	var it Itinerary
	data := `{"markdown": "# Trip", "itinerary": {"days": [1, 2]}, "model": "llama"}`
	if err := json.Unmarshal([]byte(data), &it); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if it.Markdown != "# Trip" {
		t.Errorf("Markdown = %q", it.Markdown)
	}
	if _, ok := it.Fields["markdown"]; ok {
		t.Error("markdown should not be duplicated in Fields")
	}
	if got := string(it.Fields["itinerary"]); got != `{"days":[1,2]}` {
		t.Errorf("Fields[itinerary] = %s, want compacted passthrough", got)
	}

	out, err := json.Marshal(it)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal(out) error = %v", err)
	}
	if back["markdown"] != "# Trip" || back["model"] != "llama" {
		t.Errorf("marshaled payload lost fields: %s", out)
	}
}

func TestItinerary_UnmarshalRequiresMarkdown(t *testing.T) {
	tests := []string{
		`{"itinerary": {}}`,
		`{"markdown": 42}`,
		`{"markdown": null}`,
	}
	for _, data := range tests {
		var it Itinerary
		if err := json.Unmarshal([]byte(data), &it); err != ErrMissingMarkdown {
			t.Errorf("Unmarshal(%s) error = %v, want ErrMissingMarkdown", data, err)
		}
	}
}

func TestItinerary_MarkdownOnlyHasNilFields(t *testing.T) {
	var it Itinerary
	if err := json.Unmarshal([]byte(`{"markdown": ""}`), &it); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if it.Fields != nil {
		t.Errorf("Fields = %v, want nil", it.Fields)
	}
}

func TestItinerary_Clone(t *testing.T) {
	orig := Itinerary{Markdown: "x", Fields: map[string]json.RawMessage{"a": json.RawMessage(`1`)}}
	c := orig.Clone()
	c.Fields["a"][0] = '2'
	c.Fields["b"] = json.RawMessage(`3`)

	if string(orig.Fields["a"]) != "1" {
		t.Errorf("clone shares raw bytes with original")
	}
	if _, ok := orig.Fields["b"]; ok {
		t.Errorf("clone shares map with original")
	}
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("a", 250)
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"shorter than limit", "# Short", 200, "# Short"},
		{"exactly limit", strings.Repeat("b", 200), 200, strings.Repeat("b", 200)},
		{"longer than limit", long, 200, long[:200]},
		{"empty", "", 200, ""},
		{"counts runes not bytes", "ééééé", 3, "ééé"},
		{"zero limit", "abc", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preview(tt.in, tt.n); got != tt.want {
				t.Errorf("Preview() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 678_000_000, time.FixedZone("X", 3600))
	got := FormatTimestamp(ts)
	if got != "2024-01-02T02:04:05.678Z" {
		t.Errorf("FormatTimestamp() = %q", got)
	}

	r := Record{Timestamp: got}
	if !r.Time().Equal(ts) {
		t.Errorf("Time() = %v, want %v", r.Time(), ts)
	}
	if !(Record{Timestamp: "garbage"}).Time().IsZero() {
		t.Error("Time() of malformed timestamp should be zero")
	}
}
