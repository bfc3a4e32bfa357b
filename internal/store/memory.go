package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/i474232898/cityweather/internal/cities"
	"github.com/i474232898/cityweather/internal/weather"
)

var (
	// ErrNotFound is returned when nothing is cached for a key.
	ErrNotFound = errors.New("not cached")
)

// MemoryStore is a concurrency-safe TTL cache for city pages and weather
// details. It only backs the HTTP surface; list views always go upstream.
type MemoryStore struct {
	pages   *cache.Cache
	details *cache.Cache
}

// NewMemoryStore creates a MemoryStore whose entries expire after ttl.
// A ttl <= 0 keeps entries for the life of the process.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	expiration := ttl
	cleanup := 2 * ttl
	if ttl <= 0 {
		expiration = cache.NoExpiration
		cleanup = 0
	}
	return &MemoryStore{
		pages:   cache.New(expiration, cleanup),
		details: cache.New(expiration, cleanup),
	}
}

func pageKey(offset, limit int) string {
	return fmt.Sprintf("%d:%d", offset, limit)
}

// SavePage stores one upstream page.
func (s *MemoryStore) SavePage(offset, limit int, records []cities.Record) {
	cp := make([]cities.Record, len(records))
	copy(cp, records)
	s.pages.Set(pageKey(offset, limit), cp, cache.DefaultExpiration)
}

// GetPage returns a copy of the cached page.
func (s *MemoryStore) GetPage(offset, limit int) ([]cities.Record, error) {
	v, ok := s.pages.Get(pageKey(offset, limit))
	if !ok {
		return nil, ErrNotFound
	}
	records := v.([]cities.Record)
	cp := make([]cities.Record, len(records))
	copy(cp, records)
	return cp, nil
}

// SaveDetail stores the weather for a city.
func (s *MemoryStore) SaveDetail(city string, detail weather.Detail) {
	s.details.Set(weather.CacheKey(city), detail, cache.DefaultExpiration)
}

// GetDetail returns the cached weather for a city.
func (s *MemoryStore) GetDetail(city string) (weather.Detail, error) {
	v, ok := s.details.Get(weather.CacheKey(city))
	if !ok {
		return weather.Detail{}, ErrNotFound
	}
	return v.(weather.Detail), nil
}

// Len returns the number of cached pages and details.
func (s *MemoryStore) Len() (pages, details int) {
	return s.pages.ItemCount(), s.details.ItemCount()
}

