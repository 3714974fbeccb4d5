package itinerary

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind is the role of one itinerary line.
type Kind int

const (
	PlainText Kind = iota
	DayHeader
	TimeHeader
	Bullet
)

func (k Kind) String() string {
	switch k {
	case DayHeader:
		return "day"
	case TimeHeader:
		return "time"
	case Bullet:
		return "bullet"
	default:
		return "text"
	}
}

// Line is a classified, trimmed input line.
type Line struct {
	Kind Kind
	// DayNum is set for day headers; zero when the number does not fit an int.
	DayNum int
	// Label is the time-block name as written, e.g. "Morning".
	Label string
	// Content is the title for day headers, the trailing text for time
	// headers, the text after the marker for bullets, and the whole line
	// for plain text.
	Content string
}

var (
	dayRe    = regexp.MustCompile(`(?i)^Day\s+(\d+)[:\s]*(.*)$`)
	timeRe   = regexp.MustCompile(`(?i)^(Morning|Afternoon|Evening|Night|Breakfast|Lunch|Dinner):(.*)$`)
	bulletRe = regexp.MustCompile(`^[*\-•]\s+`)
)

// Classify checks day header, time header, bullet and plain text in that
// order. line must already be trimmed.
func Classify(line string) Line {
	if m := dayRe.FindStringSubmatch(line); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			n = 0
		}
		return Line{Kind: DayHeader, DayNum: n, Content: strings.TrimSpace(m[2])}
	}
	if m := timeRe.FindStringSubmatch(line); m != nil {
		return Line{Kind: TimeHeader, Label: strings.TrimSpace(m[1]), Content: strings.TrimSpace(m[2])}
	}
	if loc := bulletRe.FindStringIndex(line); loc != nil {
		return Line{Kind: Bullet, Content: line[loc[1]:]}
	}
	return Line{Kind: PlainText, Content: line}
}
