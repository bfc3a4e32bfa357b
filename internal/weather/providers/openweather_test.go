package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/cityweather/internal/upstream"
	"github.com/i474232898/cityweather/internal/weather"
)

const parisPayload = `{
	"coord": {"lon": 2.3488, "lat": 48.8534},
	"weather": [{"id": 803, "main": "Clouds", "description": "broken clouds"}],
	"main": {"temp": 285.5, "humidity": 71},
	"wind": {"speed": 4.12},
	"sys": {"country": "FR"},
	"name": "Paris"
}`

func newProvider(t *testing.T, apiKey string, h http.HandlerFunc) *OpenWeatherProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	client := upstream.NewClient(upstream.Config{Name: "openweather", Logger: zerolog.Nop()})
	return NewOpenWeatherProvider(client, srv.URL, apiKey)
}

func TestOpenWeatherFetch(t *testing.T) {
	p := newProvider(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "São Paulo", r.URL.Query().Get("q"))
		assert.Equal(t, "secret", r.URL.Query().Get("appid"))
		assert.Empty(t, r.URL.Query().Get("units"), "temperature must stay in Kelvin")
		_, _ = w.Write([]byte(parisPayload))
	})

	d, err := p.FetchWeather(context.Background(), "São Paulo")
	require.NoError(t, err)
	assert.Equal(t, weather.Detail{
		CityName:          "Paris",
		CountryCode:       "FR",
		TemperatureKelvin: 285.5,
		HumidityPercent:   71,
		WindSpeedMps:      4.12,
		Description:       "broken clouds",
		Condition:         weather.ConditionCloudy,
		Coordinates:       weather.Coordinates{Lat: 48.8534, Lon: 2.3488},
	}, d)
}

func TestOpenWeatherMissingAPIKey(t *testing.T) {
	p := newProvider(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without an api key")
	})

	_, err := p.FetchWeather(context.Background(), "Paris")
	assert.ErrorIs(t, err, weather.ErrMissingAPIKey)
}

func TestOpenWeatherCityNotFound(t *testing.T) {
	p := newProvider(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	})

	_, err := p.FetchWeather(context.Background(), "Atlantis")
	require.Error(t, err)
	code, ok := upstream.StatusCode(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestOpenWeatherMalformed(t *testing.T) {
	p := newProvider(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name": "Paris", "main": {"humidity": 70}}`))
	})

	_, err := p.FetchWeather(context.Background(), "Paris")
	assert.ErrorIs(t, err, upstream.ErrMalformedResponse)
}

func TestOpenWeatherMissingTemperature(t *testing.T) {
	p := newProvider(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"coord": {"lat": 1, "lon": 2}, "main": {"humidity": 70}}`))
	})

	_, err := p.FetchWeather(context.Background(), "Paris")
	assert.ErrorIs(t, err, upstream.ErrMalformedResponse)
}

func TestMapOpenWeatherCondition(t *testing.T) {
	cases := map[string]weather.Condition{
		"Clear":        weather.ConditionClear,
		"Drizzle":      weather.ConditionRain,
		"Snow":         weather.ConditionSnow,
		"Thunderstorm": weather.ConditionStorm,
		"Fog":          weather.ConditionMist,
		"":             weather.ConditionUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, mapOpenWeatherCondition(in), in)
	}
}
