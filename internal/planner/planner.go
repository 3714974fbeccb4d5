package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/yourorg/wandermate/internal/redact"
	"github.com/yourorg/wandermate/internal/store"
	"github.com/yourorg/wandermate/internal/upstream"
	"github.com/yourorg/wandermate/pkg/types"
)

const (
	dateLayout = "2006-01-02"
	// DefaultDays is the trip length when no usable return date is given.
	DefaultDays = 3

	MsgFlightServiceDown = "Unable to connect to flight search service."
	MsgNoOutbound        = "No outbound flights found for the selected route and date."
)

type Geocoder interface {
	Geocode(ctx context.Context, place string) (*types.Coordinates, error)
}

type FlightService interface {
	Token(ctx context.Context) (string, error)
	AirportCode(ctx context.Context, token, city string) (string, error)
	SearchFlights(ctx context.Context, token, origin, destination, date string, adults int) ([]types.FlightOffer, error)
	HotelsByCity(ctx context.Context, token, cityCode string) ([]types.Hotel, error)
}

type AttractionFinder interface {
	TopAttractions(ctx context.Context, city string) ([]types.Attraction, error)
}

type Forecaster interface {
	Forecast(ctx context.Context, city string) (*types.Weather, error)
}

type ItineraryWriter interface {
	Generate(ctx context.Context, destination string, attractions []string, numDays int) string
}

type TripSaver interface {
	SaveTrip(ctx context.Context, id string, trip store.TripState) error
}

// Planner aggregates every lookup for one trip. Each lookup degrades on
// its own; none aborts the others.
type Planner struct {
	Geocoder    Geocoder
	Flights     FlightService
	Attractions AttractionFinder
	Weather     Forecaster
	Itineraries ItineraryWriter
	Sessions    TripSaver
	Logger      *slog.Logger
	Now         func() time.Time
}

// Plan runs the lookups in order and, when sessionID is set, records the
// trip for later export and chat.
func (p *Planner) Plan(ctx context.Context, sessionID string, req types.TripRequest) *types.PlanContext {
	log := p.logger()
	departure := req.DepartureDate
	if departure == "" {
		departure = p.now().AddDate(0, 0, 1).Format(dateLayout)
	}
	numDays := TripDuration(departure, req.ReturnDate)

	pc := &types.PlanContext{
		Source:          req.SourceCity,
		Destination:     req.DestinationCity,
		DepartureDate:   departure,
		ReturnDate:      req.ReturnDate,
		NumDays:         numDays,
		OutboundFlights: []types.FlightOffer{},
		ReturnFlights:   []types.FlightOffer{},
		Attractions:     []types.Attraction{},
		Hotels:          []types.Hotel{},
	}

	pc.SourceCoords = p.geocode(ctx, req.SourceCity)
	pc.DestCoords = p.geocode(ctx, req.DestinationCity)

	token, destCode := p.flights(ctx, pc)

	if p.Attractions != nil {
		attractions, err := p.Attractions.TopAttractions(ctx, req.DestinationCity)
		if err != nil {
			p.degraded(ctx, "attractions", err)
		} else {
			pc.Attractions = attractions
		}
	}

	if p.Weather != nil {
		weather, err := p.Weather.Forecast(ctx, req.DestinationCity)
		if err != nil {
			p.degraded(ctx, "weather", err)
		} else {
			pc.Weather = weather
		}
	}

	if token != "" && destCode != "" {
		pc.CheckOutDate = CheckOutDate(departure, req.ReturnDate, numDays)
		hotels, err := p.Flights.HotelsByCity(ctx, token, destCode)
		if err != nil {
			p.degraded(ctx, "hotels", err)
		} else {
			pc.Hotels = hotels
		}
	}

	if p.Itineraries != nil {
		names := lo.Map(pc.Attractions, func(a types.Attraction, _ int) string { return a.Name })
		pc.Itinerary = p.Itineraries.Generate(ctx, req.DestinationCity, names, numDays)
	}

	pc.EstimatedCost = EstimateCost(pc.OutboundFlights, pc.ReturnFlights)

	log.Info("trip planned",
		"destination", req.DestinationCity,
		"days", numDays,
		"outbound", len(pc.OutboundFlights),
		"return", len(pc.ReturnFlights),
		"attractions", len(pc.Attractions),
		"hotels", len(pc.Hotels),
		"error_message", pc.ErrorMessage,
	)

	if sessionID != "" && p.Sessions != nil {
		err := p.Sessions.SaveTrip(ctx, sessionID, store.TripState{
			Destination:   req.DestinationCity,
			Itinerary:     pc.Itinerary,
			NumDays:       numDays,
			DepartureDate: req.DepartureDate,
			ReturnDate:    req.ReturnDate,
		})
		if err != nil {
			log.Warn("save trip to session failed", "session", sessionID, "error", err)
		}
	}
	return pc
}

// flights fills the flight fields and returns the token and destination
// code so hotels can reuse them.
func (p *Planner) flights(ctx context.Context, pc *types.PlanContext) (string, string) {
	log := p.logger()
	if p.Flights == nil {
		pc.ErrorMessage = MsgFlightServiceDown
		return "", ""
	}
	token, err := p.Flights.Token(ctx)
	if err != nil || token == "" {
		if err != nil {
			p.degraded(ctx, "flight token", err)
		}
		pc.ErrorMessage = MsgFlightServiceDown
		return "", ""
	}

	origin := p.airportCode(ctx, token, pc.Source)
	dest := p.airportCode(ctx, token, pc.Destination)
	log.Debug("airport codes resolved", "origin", origin, "destination", dest)
	if origin == "" || dest == "" {
		pc.ErrorMessage = fmt.Sprintf("Could not find airport codes. Origin: %s, Destination: %s", orNone(origin), orNone(dest))
		return token, dest
	}

	outbound, err := p.Flights.SearchFlights(ctx, token, origin, dest, pc.DepartureDate, 1)
	if err != nil {
		p.degraded(ctx, "outbound flights", err)
	}
	if len(outbound) == 0 {
		pc.ErrorMessage = MsgNoOutbound
	} else {
		pc.OutboundFlights = outbound
	}

	if pc.ReturnDate != "" {
		inbound, err := p.Flights.SearchFlights(ctx, token, dest, origin, pc.ReturnDate, 1)
		if err != nil {
			p.degraded(ctx, "return flights", err)
		}
		if len(inbound) == 0 {
			log.Info("no return flights found", "origin", dest, "destination", origin, "date", pc.ReturnDate)
		} else {
			pc.ReturnFlights = inbound
		}
	}
	return token, dest
}

func (p *Planner) airportCode(ctx context.Context, token, city string) string {
	code, err := p.Flights.AirportCode(ctx, token, city)
	if err != nil {
		p.degraded(ctx, "airport code", err)
		return ""
	}
	return code
}

func (p *Planner) geocode(ctx context.Context, place string) *types.Coordinates {
	if p.Geocoder == nil || place == "" {
		return nil
	}
	coords, err := p.Geocoder.Geocode(ctx, place)
	if err != nil {
		p.degraded(ctx, "geocode", err)
		return nil
	}
	return coords
}

func (p *Planner) degraded(ctx context.Context, lookup string, err error) {
	level := slog.LevelWarn
	if errors.Is(err, upstream.ErrNotConfigured) {
		level = slog.LevelDebug
	}
	p.logger().Log(ctx, level, "lookup degraded", "lookup", lookup, "error", redact.Error(err))
}

func (p *Planner) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

func (p *Planner) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

const secondsPerDay = 24 * 60 * 60

// TripDuration counts both travel days. Missing or unparseable dates give
// DefaultDays; a return before departure floors at 1.
func TripDuration(departure, ret string) int {
	if departure == "" || ret == "" {
		return DefaultDays
	}
	dep, err := time.Parse(dateLayout, departure)
	if err != nil {
		return DefaultDays
	}
	back, err := time.Parse(dateLayout, ret)
	if err != nil {
		return DefaultDays
	}
	days := int((back.Unix()-dep.Unix())/secondsPerDay) + 1
	if days < 1 {
		return 1
	}
	return days
}

// CheckOutDate is the return date, or departure plus numDays.
func CheckOutDate(departure, ret string, numDays int) string {
	if ret != "" {
		return ret
	}
	dep, err := time.Parse(dateLayout, departure)
	if err != nil {
		return ""
	}
	return dep.AddDate(0, 0, numDays).Format(dateLayout)
}

// EstimateCost sums the cheapest outbound and cheapest return fares.
// Unparseable prices are skipped. Nil when there is nothing to price.
func EstimateCost(outbound, inbound []types.FlightOffer) *float64 {
	total := cheapest(outbound) + cheapest(inbound)
	if total <= 0 {
		return nil
	}
	return &total
}

func cheapest(offers []types.FlightOffer) float64 {
	prices := lo.FilterMap(offers, func(o types.FlightOffer, _ int) (float64, bool) {
		v, err := strconv.ParseFloat(o.Price, 64)
		return v, err == nil
	})
	if len(prices) == 0 {
		return 0
	}
	return lo.Min(prices)
}

func orNone(code string) string {
	if code == "" {
		return "none"
	}
	return code
}
