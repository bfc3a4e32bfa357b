package cities

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// PageCache stores whole upstream pages keyed by offset and limit.
type PageCache interface {
	SavePage(offset, limit int, records []Record)
	GetPage(offset, limit int) ([]Record, error)
}

// CachedFetcher serves pages from a PageCache and collapses concurrent
// misses for the same page into one upstream call.
type CachedFetcher struct {
	next   Fetcher
	cache  PageCache
	group  singleflight.Group
	logger zerolog.Logger
}

func NewCachedFetcher(next Fetcher, cache PageCache, logger zerolog.Logger) *CachedFetcher {
	return &CachedFetcher{
		next:   next,
		cache:  cache,
		logger: logger,
	}
}

// FetchPage implements Fetcher.
func (f *CachedFetcher) FetchPage(ctx context.Context, offset, pageSize int) ([]Record, error) {
	if records, err := f.cache.GetPage(offset, pageSize); err == nil {
		return records, nil
	}

	v, err, shared := f.group.Do(fmt.Sprintf("%d:%d", offset, pageSize), func() (any, error) {
		return f.refresh(ctx, offset, pageSize)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		f.logger.Debug().Int("offset", offset).Msg("page request coalesced")
	}
	records := v.([]Record)
	out := make([]Record, len(records))
	copy(out, records)
	return out, nil
}

// Warm fetches a page upstream and replaces the cached copy.
func (f *CachedFetcher) Warm(ctx context.Context, offset, pageSize int) error {
	_, err := f.refresh(ctx, offset, pageSize)
	return err
}

func (f *CachedFetcher) refresh(ctx context.Context, offset, pageSize int) ([]Record, error) {
	records, err := f.next.FetchPage(ctx, offset, pageSize)
	if err != nil {
		return nil, err
	}
	f.cache.SavePage(offset, pageSize, records)
	return records, nil
}
