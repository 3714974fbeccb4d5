package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Meta is the trip information printed above the itinerary.
type Meta struct {
	Destination   string `yaml:"destination"`
	NumDays       int    `yaml:"num_days"`
	DepartureDate string `yaml:"departure_date,omitempty"`
	ReturnDate    string `yaml:"return_date,omitempty"`
}

func (m Meta) destination() string {
	if strings.TrimSpace(m.Destination) == "" {
		return "Trip"
	}
	return m.Destination
}

// Title is the document heading, e.g. "Goa 3-Day Itinerary".
func (m Meta) Title() string {
	return fmt.Sprintf("%s %d-Day Itinerary", m.destination(), m.NumDays)
}

// DateRange formats the travel dates, or "" when the departure date does
// not parse.
func (m Meta) DateRange() string {
	dep, err := time.Parse("2006-01-02", m.DepartureDate)
	if err != nil {
		return ""
	}
	out := dep.Format("Jan 2, 2006")
	if ret, err := time.Parse("2006-01-02", m.ReturnDate); err == nil {
		out += " - " + ret.Format("Jan 2, 2006")
	}
	return out
}

// FileName is the download name for the PDF export.
func FileName(m Meta) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '"', '/', '\\', '\r', '\n':
			return -1
		}
		return r
	}, m.destination())
	return name + "_" + strconv.Itoa(m.NumDays) + "Day_Itinerary.pdf"
}
