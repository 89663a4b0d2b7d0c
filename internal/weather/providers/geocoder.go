package providers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/i474232898/weather-etl/internal/weather"
)

// DefaultGeocoderURL is OpenWeather's direct geocoding endpoint.
const DefaultGeocoderURL = "https://api.openweathermap.org/geo/1.0/direct"

const geocodeFailure = "Could not geolocate."

// OpenWeatherGeocoder implements weather.Geocoder using OpenWeather direct geocoding.
type OpenWeatherGeocoder struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewOpenWeatherGeocoder(client *http.Client, apiKey, baseURL string) *OpenWeatherGeocoder {
	if baseURL == "" {
		baseURL = DefaultGeocoderURL
	}
	return &OpenWeatherGeocoder{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
	}
}

// Geocode resolves city using the first match returned by the API.
func (g *OpenWeatherGeocoder) Geocode(ctx context.Context, city string) (weather.Location, error) {
	if g.apiKey == "" {
		return weather.Location{}, errNoAPIKey
	}

	values := url.Values{}
	values.Set("q", city)
	values.Set("appid", g.apiKey)

	var payload []struct {
		Name    string  `json:"name"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		Country string  `json:"country"`
		State   string  `json:"state"`
	}

	if err := getJSON(ctx, g.client, g.baseURL, values, geocodeFailure, &payload); err != nil {
		return weather.Location{}, err
	}
	if len(payload) == 0 {
		return weather.Location{}, &StatusError{StatusCode: http.StatusOK, Reason: geocodeFailure}
	}

	first := payload[0]
	return weather.Location{
		Country: first.Country,
		State:   first.State,
		City:    city,
		Lat:     first.Lat,
		Lon:     first.Lon,
	}, nil
}
