package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/cityweather/internal/cities"
	"github.com/i474232898/cityweather/internal/store"
	"github.com/i474232898/cityweather/internal/upstream"
	"github.com/i474232898/cityweather/internal/weather"
)

type fakePages struct {
	records []cities.Record
	err     error
	offset  int
	limit   int
}

func (f *fakePages) FetchPage(_ context.Context, offset, pageSize int) ([]cities.Record, error) {
	f.offset, f.limit = offset, pageSize
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type fakeWeather struct {
	mu   sync.Mutex
	err  error
	seen []string
}

func (f *fakeWeather) FetchWeather(_ context.Context, city string) (weather.Detail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, city)
	if f.err != nil {
		return weather.Detail{}, f.err
	}
	return weather.Detail{CityName: city, CountryCode: "US", TemperatureKelvin: 273.15, HumidityPercent: 50}, nil
}

func newTestApp(pages cities.Fetcher, wf weather.Fetcher) *fiber.App {
	return newCachedTestApp(pages, wf, nil)
}

// newCachedTestApp backs the weather service with ms when it is not nil.
func newCachedTestApp(pages cities.Fetcher, wf weather.Fetcher, ms *store.MemoryStore) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(zerolog.Nop())})
	var (
		ws    weather.Store
		stats CacheStats
	)
	if ms != nil {
		ws, stats = ms, ms
	}
	RegisterOps(app, "cityweather", stats)
	RegisterRoutes(app, pages, 10, weather.NewService(wf, ws, zerolog.Nop()))
	return app
}

func doGet(t *testing.T, app *fiber.App, target string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(body) > 0 && body[0] == '{' {
		require.NoError(t, json.Unmarshal(body, &out))
	}
	return resp, out
}

func TestRootRedirectsToCities(t *testing.T) {
	app := newTestApp(&fakePages{}, &fakeWeather{})

	resp, _ := doGet(t, app, "/")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/cities", resp.Header.Get(fiber.HeaderLocation))
}

func TestCitiesPage(t *testing.T) {
	pages := &fakePages{records: []cities.Record{
		{Name: "Paris", Country: "France", Population: 2138551},
		{Name: "Lyon", Country: "France", Population: 513275},
		{Name: "Osaka", Country: "Japan", Population: 2691000},
	}}
	app := newTestApp(pages, &fakeWeather{})

	resp, body := doGet(t, app, "/cities?offset=20&limit=3&q=FRANCE")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 20, pages.offset)
	assert.Equal(t, 3, pages.limit)
	assert.Len(t, body["records"], 2)
	assert.EqualValues(t, 23, body["nextOffset"])
	assert.Equal(t, true, body["hasMore"])
}

func TestCitiesDefaultsToPageSize(t *testing.T) {
	pages := &fakePages{records: []cities.Record{{Name: "Paris"}}}
	app := newTestApp(pages, &fakeWeather{})

	resp, body := doGet(t, app, "/cities")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, pages.offset)
	assert.Equal(t, 10, pages.limit)
	assert.Equal(t, false, body["hasMore"])
}

func TestCitiesQueryValidation(t *testing.T) {
	app := newTestApp(&fakePages{}, &fakeWeather{})

	for _, target := range []string{
		"/cities?limit=0",
		"/cities?limit=101",
		"/cities?offset=-1",
		"/cities?offset=first",
	} {
		t.Run(target, func(t *testing.T) {
			resp, body := doGet(t, app, target)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, true, body["error"])
		})
	}
}

func TestCitiesUpstreamFailure(t *testing.T) {
	pages := &fakePages{err: upstream.NewStatusError("cities", http.StatusInternalServerError)}
	app := newTestApp(pages, &fakeWeather{})

	resp, body := doGet(t, app, "/cities")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body["message"], "unexpected status 500")
}

func TestWeatherDecodesCityName(t *testing.T) {
	wf := &fakeWeather{}
	app := newTestApp(&fakePages{}, wf)

	resp, body := doGet(t, app, "/weather/New%20York")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, []string{"New York"}, wf.seen)
	assert.Equal(t, "New York", body["cityName"])
	assert.InDelta(t, 273.15, body["temperatureKelvin"], 1e-9)
	assert.InDelta(t, 0.0, body["temperatureCelsius"], 1e-9)
	assert.InDelta(t, 32.0, body["temperatureFahrenheit"], 1e-9)
}

func TestWeatherCachesEachCityUnderItsOwnName(t *testing.T) {
	wf := &fakeWeather{}
	ms := store.NewMemoryStore(time.Minute)
	app := newCachedTestApp(&fakePages{}, wf, ms)

	for _, city := range []string{"paris", "romex", "paris", "romex"} {
		resp, body := doGet(t, app, "/weather/"+city)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, city, body["cityName"])
	}

	assert.Equal(t, []string{"paris", "romex"}, wf.seen, "repeat requests are served from the cache")
	for _, city := range []string{"paris", "romex"} {
		d, err := ms.GetDetail(city)
		require.NoError(t, err, city)
		assert.Equal(t, city, d.CityName)
	}

	_, body := doGet(t, app, "/health")
	assert.Equal(t, map[string]any{"pages": 0.0, "details": 2.0}, body["cache"])
}

func TestWeatherErrorMapping(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"unknown city":  {upstream.NewStatusError("openweather", http.StatusNotFound), http.StatusNotFound},
		"upstream down": {upstream.NewStatusError("openweather", http.StatusServiceUnavailable), http.StatusBadGateway},
		"bad payload":   {upstream.NewMalformedError("openweather", "response has no coord", nil), http.StatusBadGateway},
		"missing key":   {weather.ErrMissingAPIKey, http.StatusServiceUnavailable},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			app := newTestApp(&fakePages{}, &fakeWeather{err: tc.err})

			resp, body := doGet(t, app, "/weather/Atlantis")
			assert.Equal(t, tc.want, resp.StatusCode)
			assert.Equal(t, tc.err.Error(), body["message"])
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(&fakePages{}, &fakeWeather{})

	resp, body := doGet(t, app, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotContains(t, body, "cache")

	resp, _ = doGet(t, app, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
