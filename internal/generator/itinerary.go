package generator

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/yourorg/wandermate/internal/redact"
	"github.com/yourorg/wandermate/internal/store"
)

const (
	// DefaultTTL is how long a generated itinerary stays cached.
	DefaultTTL = 7 * 24 * time.Hour
	// keyAttractions is how many attraction names feed the cache key.
	keyAttractions = 5
)

// ErrEmptyItinerary is returned when the model replies with blank text.
var ErrEmptyItinerary = errors.New("empty itinerary")

var boldRe = regexp.MustCompile(`\*\*(.*?)\*\*`)

// Result is the outcome of one model call.
type Result struct {
	Text string
	Err  error
}

func (r Result) OK() bool { return r.Err == nil }

// String renders a failure as the placeholder shown in place of an itinerary.
func (r Result) String() string {
	if r.Err != nil {
		return "Could not generate itinerary: " + redact.Error(r.Err)
	}
	return r.Text
}

// Itineraries generates itinerary text and memoizes successful results.
type Itineraries struct {
	Model  TextModel
	Cache  store.Cache
	TTL    time.Duration
	Logger *slog.Logger
}

// Generate returns cached text for the same normalized inputs, otherwise
// asks the model. Failures and blank replies come back as placeholder text
// and are not cached. A blank cached value counts as a miss.
func (g *Itineraries) Generate(ctx context.Context, destination string, attractions []string, numDays int) string {
	log := orDiscard(g.Logger)
	key := CacheKey(destination, attractions, numDays)

	if g.Cache != nil {
		cached, ok, err := g.Cache.Get(ctx, key)
		if err != nil {
			log.Warn("itinerary cache read failed", "key", key, "error", err)
		} else if ok && cached != "" {
			log.Info("using cached itinerary", "destination", destination, "days", numDays)
			return cached
		}
	}

	res := g.call(ctx, BuildItineraryPrompt(destination, attractions, numDays))
	if !res.OK() {
		log.Warn("itinerary generation failed", "destination", destination, "error", redact.Error(res.Err))
		return res.String()
	}

	if g.Cache != nil {
		ttl := g.TTL
		if ttl <= 0 {
			ttl = DefaultTTL
		}
		if err := g.Cache.Set(ctx, key, res.Text, ttl); err != nil {
			log.Warn("itinerary cache write failed", "key", key, "error", err)
		} else {
			log.Info("cached new itinerary", "destination", destination, "days", numDays)
		}
	}
	return res.Text
}

func (g *Itineraries) call(ctx context.Context, prompt string) Result {
	if g.Model == nil {
		return Result{Err: fmt.Errorf("no text model configured")}
	}
	raw, err := g.Model.Generate(ctx, prompt)
	if err != nil {
		return Result{Err: err}
	}
	text := StripBold(strings.TrimSpace(raw))
	if text == "" {
		return Result{Err: ErrEmptyItinerary}
	}
	return Result{Text: text}
}

// StripBold unwraps **bold** markup.
func StripBold(s string) string {
	return boldRe.ReplaceAllString(s, "$1")
}

// CacheKey derives the itinerary cache key. The destination is case-folded
// with whitespace runs collapsed; the first five attraction names are
// hashed in order.
func CacheKey(destination string, attractions []string, numDays int) string {
	dest := strings.Join(strings.Fields(cases.Fold().String(destination)), "_")
	names := attractions
	if len(names) > keyAttractions {
		names = names[:keyAttractions]
	}
	h := fnv.New64a()
	for _, n := range names {
		_, _ = h.Write([]byte(n))
		_, _ = h.Write([]byte{0x1f})
	}
	return fmt.Sprintf("itinerary_%s_%ddays_%x", dest, numDays, h.Sum64())
}
