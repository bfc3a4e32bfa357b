package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/i474232898/cityweather/internal/upstream"
	"github.com/i474232898/cityweather/internal/weather"
)

// DefaultOpenWeatherURL is the OpenWeatherMap current weather endpoint.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherProvider implements weather.Fetcher for OpenWeatherMap.
type OpenWeatherProvider struct {
	apiKey  string
	baseURL string
	client  *upstream.Client
}

func NewOpenWeatherProvider(client *upstream.Client, baseURL, apiKey string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	return &OpenWeatherProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
	}
}

type openWeatherPayload struct {
	Coord *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main *struct {
		Temp     *float64 `json:"temp"`
		Humidity float64  `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

// FetchWeather issues one request for city. Temperatures are requested in
// the API's default unit, Kelvin.
func (p *OpenWeatherProvider) FetchWeather(ctx context.Context, city string) (weather.Detail, error) {
	if p.apiKey == "" {
		return weather.Detail{}, weather.ErrMissingAPIKey
	}
	city = strings.TrimSpace(city)
	if city == "" {
		return weather.Detail{}, fmt.Errorf("city name is required")
	}

	values := url.Values{}
	values.Set("q", city)
	values.Set("appid", p.apiKey)

	var payload openWeatherPayload
	if err := p.client.GetJSON(ctx, p.baseURL, values, &payload); err != nil {
		return weather.Detail{}, err
	}

	if payload.Coord == nil {
		return weather.Detail{}, upstream.NewMalformedError(p.client.Name(), "response has no coord", nil)
	}
	if payload.Main == nil || payload.Main.Temp == nil {
		return weather.Detail{}, upstream.NewMalformedError(p.client.Name(), "response has no main.temp", nil)
	}

	detail := weather.Detail{
		CityName:          payload.Name,
		CountryCode:       payload.Sys.Country,
		TemperatureKelvin: *payload.Main.Temp,
		HumidityPercent:   payload.Main.Humidity,
		WindSpeedMps:      payload.Wind.Speed,
		Condition:         weather.ConditionUnknown,
		Coordinates: weather.Coordinates{
			Lat: payload.Coord.Lat,
			Lon: payload.Coord.Lon,
		},
	}
	if detail.CityName == "" {
		detail.CityName = city
	}
	if len(payload.Weather) > 0 {
		detail.Description = payload.Weather[0].Description
		detail.Condition = mapOpenWeatherCondition(payload.Weather[0].Main)
		if detail.Condition == weather.ConditionUnknown {
			detail.Condition = weather.ConditionFromText(detail.Description)
		}
	}

	return detail, nil
}

func mapOpenWeatherCondition(main string) weather.Condition {
	switch main {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionCloudy
	case "Rain", "Drizzle":
		return weather.ConditionRain
	case "Snow":
		return weather.ConditionSnow
	case "Thunderstorm", "Squall", "Tornado":
		return weather.ConditionStorm
	case "Mist", "Fog", "Haze", "Smoke", "Dust", "Sand", "Ash":
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}
