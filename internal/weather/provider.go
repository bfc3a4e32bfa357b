package weather

import (
	"context"
	"errors"
)

// ErrMissingAPIKey is returned by fetchers that need credentials they were not given.
var ErrMissingAPIKey = errors.New("weather api key is not configured")

// Fetcher looks up the current weather for a city by name with a single upstream call.
type Fetcher interface {
	FetchWeather(ctx context.Context, city string) (Detail, error)
}

// Store is the contract the in-memory detail cache must satisfy.
type Store interface {
	SaveDetail(city string, detail Detail)
	GetDetail(city string) (Detail, error)
}
