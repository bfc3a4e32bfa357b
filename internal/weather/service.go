package weather

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Service serves weather details through a short-lived cache. Concurrent
// requests for the same city share one upstream call.
type Service struct {
	fetcher Fetcher
	store   Store
	group   singleflight.Group
	logger  zerolog.Logger
}

// NewService creates a new Service. store may be nil to disable caching.
func NewService(fetcher Fetcher, store Store, logger zerolog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
	}
}

// GetWeather returns the cached detail for city, fetching it on a miss.
func (s *Service) GetWeather(ctx context.Context, city string) (Detail, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return Detail{}, fmt.Errorf("city name is required")
	}

	if s.store != nil {
		if d, err := s.store.GetDetail(city); err == nil {
			return d, nil
		}
	}

	v, err, shared := s.group.Do(CacheKey(city), func() (any, error) {
		return s.refresh(ctx, city)
	})
	if err != nil {
		return Detail{}, err
	}
	if shared {
		s.logger.Debug().Str("city", city).Msg("weather request coalesced")
	}
	return v.(Detail), nil
}

// Refresh fetches city and replaces any cached entry.
func (s *Service) Refresh(ctx context.Context, city string) error {
	_, err := s.refresh(ctx, city)
	return err
}

func (s *Service) refresh(ctx context.Context, city string) (Detail, error) {
	d, err := s.fetcher.FetchWeather(ctx, city)
	if err != nil {
		return Detail{}, err
	}
	if s.store != nil {
		s.store.SaveDetail(city, d)
	}
	return d, nil
}
