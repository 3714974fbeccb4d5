package upstream

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/yourorg/wandermate/pkg/types"
)

// Geocoder resolves city names through the OpenCage forward geocoding API.
type Geocoder struct {
	BaseURL string
	APIKey  string
	c       caller
}

func NewGeocoder(baseURL, apiKey string, hc *http.Client, logger *slog.Logger) *Geocoder {
	return &Geocoder{BaseURL: baseURL, APIKey: apiKey, c: newCaller("opencage", hc, logger)}
}

// Geocode returns nil coordinates with a nil error when the place is unknown.
func (g *Geocoder) Geocode(ctx context.Context, place string) (*types.Coordinates, error) {
	if g.APIKey == "" {
		return nil, ErrNotConfigured
	}
	params := url.Values{}
	params.Set("q", place)
	params.Set("key", g.APIKey)
	params.Set("limit", "1")
	var out struct {
		Results []struct {
			Geometry struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := g.c.getJSON(ctx, joinURL(g.BaseURL, "/json"), params, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Results) == 0 {
		return nil, nil
	}
	geo := out.Results[0].Geometry
	return &types.Coordinates{Lat: geo.Lat, Lng: geo.Lng}, nil
}
