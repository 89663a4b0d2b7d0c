package providers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/weather-etl/internal/weather"
)

// DefaultWeatherURL is OpenWeather's current weather endpoint.
const DefaultWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// UnitsStandard returns temperatures in Kelvin, which is also the API default.
const UnitsStandard = "standard"

const weatherFailure = "Could not get weather."

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	units   string
	client  *http.Client
}

func NewOpenWeatherProvider(client *http.Client, apiKey, baseURL, units string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultWeatherURL
	}
	if units == "" {
		units = UnitsStandard
	}
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: baseURL,
		units:   units,
		client:  client,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Reading, error) {
	if p.apiKey == "" {
		return weather.Reading{}, errNoAPIKey
	}

	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	values.Set("appid", p.apiKey)
	values.Set("units", p.units)

	var payload struct {
		Dt   *int64 `json:"dt"`
		Main *struct {
			Temp    float64 `json:"temp"`
			TempMin float64 `json:"temp_min"`
			TempMax float64 `json:"temp_max"`
		} `json:"main"`
	}

	if err := getJSON(ctx, p.client, p.baseURL, values, weatherFailure, &payload); err != nil {
		return weather.Reading{}, err
	}
	if payload.Dt == nil || payload.Main == nil {
		return weather.Reading{}, &StatusError{StatusCode: http.StatusOK, Reason: weatherFailure}
	}

	return weather.Reading{
		ProviderName: p.name,
		Timestamp:    time.Unix(*payload.Dt, 0).UTC(),
		Temp:         payload.Main.Temp,
		TempHigh:     payload.Main.TempMax,
		TempLow:      payload.Main.TempMin,
	}, nil
}
