package upstream

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/yourorg/wandermate/pkg/types"
)

// PlaceholderImage is used for attractions without a photo.
const PlaceholderImage = "https://via.placeholder.com/400x300?text=No+Image"

// Places queries the Google Places text search API.
type Places struct {
	BaseURL string
	APIKey  string
	c       caller
}

func NewPlaces(baseURL, apiKey string, hc *http.Client, logger *slog.Logger) *Places {
	return &Places{BaseURL: baseURL, APIKey: apiKey, c: newCaller("places", hc, logger)}
}

// TopAttractions searches for "top attractions in <city>".
func (p *Places) TopAttractions(ctx context.Context, city string) ([]types.Attraction, error) {
	if p.APIKey == "" {
		return nil, ErrNotConfigured
	}
	params := url.Values{}
	params.Set("query", "top attractions in "+city)
	params.Set("key", p.APIKey)
	var out struct {
		Status  string `json:"status"`
		Results []struct {
			Name             string  `json:"name"`
			FormattedAddress string  `json:"formatted_address"`
			Rating           float64 `json:"rating"`
			PlaceID          string  `json:"place_id"`
			Geometry         struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
			Photos []struct {
				PhotoReference string `json:"photo_reference"`
			} `json:"photos"`
		} `json:"results"`
	}
	if err := p.c.getJSON(ctx, joinURL(p.BaseURL, "/textsearch/json"), params, nil, &out); err != nil {
		return nil, err
	}
	attractions := make([]types.Attraction, 0, len(out.Results))
	for _, r := range out.Results {
		image := PlaceholderImage
		if len(r.Photos) > 0 && r.Photos[0].PhotoReference != "" {
			image = p.photoURL(r.Photos[0].PhotoReference)
		}
		attractions = append(attractions, types.Attraction{
			Name:     r.Name,
			Address:  r.FormattedAddress,
			Rating:   r.Rating,
			PlaceID:  r.PlaceID,
			ImageURL: image,
			Lat:      r.Geometry.Location.Lat,
			Lng:      r.Geometry.Location.Lng,
		})
	}
	return attractions, nil
}

// The browser loads the photo directly, so the URL carries the key.
func (p *Places) photoURL(ref string) string {
	params := url.Values{}
	params.Set("maxwidth", "400")
	params.Set("photo_reference", ref)
	params.Set("key", p.APIKey)
	return joinURL(p.BaseURL, "/photo") + "?" + params.Encode()
}
