package export

import (
	"bytes"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/yourorg/wandermate/internal/itinerary"
	"github.com/yourorg/wandermate/pkg/types"
)

const sample = "Day 1: Arrival\nMorning: Settle in\n* Check into hotel\n* Explore nearby cafe\nAfternoon: City walk\nDay 2: Beaches\n- Baga beach at sunset"

func TestFileName(t *testing.T) {
	cases := []struct {
		meta Meta
		want string
	}{
		{Meta{Destination: "Goa", NumDays: 3}, "Goa_3Day_Itinerary.pdf"},
		{Meta{Destination: "New York", NumDays: 1}, "New York_1Day_Itinerary.pdf"},
		{Meta{Destination: `Bad"/Name`, NumDays: 2}, "BadName_2Day_Itinerary.pdf"},
		{Meta{NumDays: 3}, "Trip_3Day_Itinerary.pdf"},
	}
	for _, tc := range cases {
		if got := FileName(tc.meta); got != tc.want {
			t.Fatalf("FileName(%+v) = %q, want %q", tc.meta, got, tc.want)
		}
	}
}

func TestDateRange(t *testing.T) {
	if got := (Meta{DepartureDate: "2025-01-10", ReturnDate: "2025-01-12"}).DateRange(); got != "Jan 10, 2025 - Jan 12, 2025" {
		t.Fatalf("range = %q", got)
	}
	if got := (Meta{DepartureDate: "2025-01-10", ReturnDate: "soon"}).DateRange(); got != "Jan 10, 2025" {
		t.Fatalf("departure only = %q", got)
	}
	if got := (Meta{DepartureDate: "tomorrow"}).DateRange(); got != "" {
		t.Fatalf("unparseable = %q", got)
	}
}

func TestRenderPDF(t *testing.T) {
	var buf bytes.Buffer
	meta := Meta{Destination: "Goa", NumDays: 2, DepartureDate: "2025-01-10", ReturnDate: "2025-01-11"}
	if err := RenderPDF(&buf, meta, itinerary.Parse(sample)); err != nil {
		t.Fatalf("render pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("output is not a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestRenderPDFEmptyItinerary(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPDF(&buf, Meta{Destination: "Zürich", NumDays: 1}, nil); err != nil {
		t.Fatalf("render pdf: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("empty output")
	}
}

func TestRenderMarkdown(t *testing.T) {
	got := RenderMarkdown(Meta{Destination: "Goa", NumDays: 2}, itinerary.Parse(sample))
	want := "# Goa 2-Day Itinerary\n\n" +
		"## Day 1: Arrival\n\n" +
		"### Morning\n\nSettle in\n- Check into hotel\n- Explore nearby cafe\n\n" +
		"### Afternoon\n\nCity walk\n\n" +
		"## Day 2: Beaches\n\n" +
		"- Baga beach at sunset\n\n"
	if got != want {
		t.Fatalf("markdown mismatch:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderYAML(t *testing.T) {
	data, err := RenderYAML(Meta{Destination: "Goa", NumDays: 2}, itinerary.Parse(sample))
	if err != nil {
		t.Fatalf("render yaml: %v", err)
	}
	var doc struct {
		Trip struct {
			Destination string `yaml:"destination"`
		} `yaml:"trip"`
		Days []types.ParsedDay `yaml:"days"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Trip.Destination != "Goa" || len(doc.Days) != 2 || doc.Days[1].DayNum != 2 {
		t.Fatalf("unexpected doc %+v", doc)
	}
	if !strings.Contains(string(data), "type: activity") {
		t.Fatalf("missing item types:\n%s", data)
	}
}
