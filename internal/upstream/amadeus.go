package upstream

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/yourorg/wandermate/pkg/types"
)

// Amadeus covers the token, location, flight-offer and hotel-list APIs.
type Amadeus struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Currency  string
	c         caller
}

func NewAmadeus(baseURL, apiKey, apiSecret, currency string, hc *http.Client, logger *slog.Logger) *Amadeus {
	return &Amadeus{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		APISecret: apiSecret,
		Currency:  currency,
		c:         newCaller("amadeus", hc, logger),
	}
}

// Token fetches a client-credentials access token.
func (a *Amadeus) Token(ctx context.Context) (string, error) {
	if a.APIKey == "" || a.APISecret == "" {
		return "", ErrNotConfigured
	}
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", a.APIKey)
	form.Set("client_secret", a.APISecret)
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := a.c.postForm(ctx, joinURL(a.BaseURL, "/v1/security/oauth2/token"), form, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.New("amadeus: empty access token")
	}
	return out.AccessToken, nil
}

// commonAirports short-circuits the location search for frequent cities.
var commonAirports = map[string]string{
	"delhi":         "DEL",
	"new delhi":     "DEL",
	"mumbai":        "BOM",
	"bombay":        "BOM",
	"bangalore":     "BLR",
	"bengaluru":     "BLR",
	"hyderabad":     "HYD",
	"chennai":       "MAA",
	"kolkata":       "CCU",
	"calcutta":      "CCU",
	"goa":           "GOI",
	"jaipur":        "JAI",
	"pune":          "PNQ",
	"ahmedabad":     "AMD",
	"london":        "LHR",
	"paris":         "CDG",
	"new york":      "JFK",
	"dubai":         "DXB",
	"singapore":     "SIN",
	"bangkok":       "BKK",
	"tokyo":         "NRT",
	"sydney":        "SYD",
	"los angeles":   "LAX",
	"san francisco": "SFO",
}

// KnownAirport looks city up in the static table.
func KnownAirport(city string) (string, bool) {
	code, ok := commonAirports[strings.ToLower(strings.TrimSpace(city))]
	return code, ok
}

// AirportCode resolves a city to an IATA code. The static table wins;
// otherwise the location search prefers an AIRPORT, then a CITY, then any
// code. An empty string with nil error means nothing matched.
func (a *Amadeus) AirportCode(ctx context.Context, token, city string) (string, error) {
	if code, ok := KnownAirport(city); ok {
		return code, nil
	}
	params := url.Values{}
	params.Set("keyword", city)
	params.Set("subType", "AIRPORT,CITY")
	var out struct {
		Data []struct {
			SubType  string `json:"subType"`
			IATACode string `json:"iataCode"`
		} `json:"data"`
	}
	if err := a.c.getJSON(ctx, joinURL(a.BaseURL, "/v1/reference-data/locations"), params, bearer(token), &out); err != nil {
		return "", err
	}
	for _, want := range []string{"AIRPORT", "CITY"} {
		for _, loc := range out.Data {
			if loc.SubType == want && loc.IATACode != "" {
				return loc.IATACode, nil
			}
		}
	}
	for _, loc := range out.Data {
		if loc.IATACode != "" {
			return loc.IATACode, nil
		}
	}
	return "", nil
}

type flightOffersResponse struct {
	Data []struct {
		Itineraries []struct {
			Duration string `json:"duration"`
			Segments []struct {
				CarrierCode string `json:"carrierCode"`
				Number      string `json:"number"`
				Departure   struct {
					IATACode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"departure"`
				Arrival struct {
					IATACode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"arrival"`
			} `json:"segments"`
		} `json:"itineraries"`
		Price struct {
			Total    string `json:"total"`
			Currency string `json:"currency"`
		} `json:"price"`
	} `json:"data"`
}

// SearchFlights returns up to five one-way offers, each flattened to its
// first itinerary's first segment.
func (a *Amadeus) SearchFlights(ctx context.Context, token, origin, destination, date string, adults int) ([]types.FlightOffer, error) {
	if adults <= 0 {
		adults = 1
	}
	params := url.Values{}
	params.Set("originLocationCode", origin)
	params.Set("destinationLocationCode", destination)
	params.Set("departureDate", date)
	params.Set("adults", strconv.Itoa(adults))
	params.Set("currencyCode", a.Currency)
	params.Set("max", "5")
	var out flightOffersResponse
	if err := a.c.getJSON(ctx, joinURL(a.BaseURL, "/v2/shopping/flight-offers"), params, bearer(token), &out); err != nil {
		return nil, err
	}
	offers := make([]types.FlightOffer, 0, len(out.Data))
	for _, d := range out.Data {
		if len(d.Itineraries) == 0 || len(d.Itineraries[0].Segments) == 0 {
			continue
		}
		it := d.Itineraries[0]
		seg := it.Segments[0]
		offers = append(offers, types.FlightOffer{
			Airline:          seg.CarrierCode,
			FlightNumber:     seg.Number,
			DepartureTime:    seg.Departure.At,
			ArrivalTime:      seg.Arrival.At,
			DepartureAirport: seg.Departure.IATACode,
			ArrivalAirport:   seg.Arrival.IATACode,
			Duration:         it.Duration,
			Price:            d.Price.Total,
			Currency:         d.Price.Currency,
			Stops:            len(it.Segments) - 1,
		})
	}
	return offers, nil
}

// HotelsByCity lists at most five hotels for an IATA city code.
func (a *Amadeus) HotelsByCity(ctx context.Context, token, cityCode string) ([]types.Hotel, error) {
	params := url.Values{}
	params.Set("cityCode", cityCode)
	var out struct {
		Data []struct {
			HotelID  string `json:"hotelId"`
			Name     string `json:"name"`
			IATACode string `json:"iataCode"`
			GeoCode  struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"geoCode"`
		} `json:"data"`
	}
	if err := a.c.getJSON(ctx, joinURL(a.BaseURL, "/v1/reference-data/locations/hotels/by-city"), params, bearer(token), &out); err != nil {
		return nil, err
	}
	n := len(out.Data)
	if n > 5 {
		n = 5
	}
	hotels := make([]types.Hotel, 0, n)
	for _, h := range out.Data[:n] {
		hotels = append(hotels, types.Hotel{HotelID: h.HotelID, Name: h.Name, IATACode: h.IATACode, Lat: h.GeoCode.Latitude, Lng: h.GeoCode.Longitude})
	}
	return hotels, nil
}

func bearer(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}
