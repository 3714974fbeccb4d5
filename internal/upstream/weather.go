package upstream

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/yourorg/wandermate/pkg/types"
)

// forecastSlots is one day of three-hour slots.
const forecastSlots = 8

// Weather queries the OpenWeather forecast API.
type Weather struct {
	BaseURL string
	APIKey  string
	c       caller
}

func NewWeather(baseURL, apiKey string, hc *http.Client, logger *slog.Logger) *Weather {
	return &Weather{BaseURL: baseURL, APIKey: apiKey, c: newCaller("openweather", hc, logger)}
}

// Forecast returns ErrNotConfigured without calling out when no key is set.
func (w *Weather) Forecast(ctx context.Context, city string) (*types.Weather, error) {
	if w.APIKey == "" {
		return nil, ErrNotConfigured
	}
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", w.APIKey)
	params.Set("units", "metric")
	params.Set("cnt", strconv.Itoa(forecastSlots))
	var out struct {
		City struct {
			Name string `json:"name"`
		} `json:"city"`
		List []struct {
			DtTxt string `json:"dt_txt"`
			Main  struct {
				Temp float64 `json:"temp"`
			} `json:"main"`
			Weather []struct {
				Description string `json:"description"`
				Icon        string `json:"icon"`
			} `json:"weather"`
		} `json:"list"`
	}
	if err := w.c.getJSON(ctx, joinURL(w.BaseURL, "/forecast"), params, nil, &out); err != nil {
		return nil, err
	}
	name := out.City.Name
	if name == "" {
		name = city
	}
	result := &types.Weather{City: name, Forecast: []types.Forecast{}}
	for i, entry := range out.List {
		if i == forecastSlots {
			break
		}
		f := types.Forecast{Time: entry.DtTxt, TempC: entry.Main.Temp}
		if len(entry.Weather) > 0 {
			f.Description = entry.Weather[0].Description
			f.Icon = entry.Weather[0].Icon
		}
		result.Forecast = append(result.Forecast, f)
	}
	return result, nil
}
