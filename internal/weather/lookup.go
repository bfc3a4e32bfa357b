package weather

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// LookupState is the state of a detail view's weather request.
type LookupState string

const (
	LookupLoading LookupState = "loading"
	LookupLoaded  LookupState = "loaded"
	LookupErrored LookupState = "errored"
)

// Result is a snapshot of a Lookup.
type Result struct {
	City   string
	State  LookupState
	Detail Detail
	Err    string
}

// Lookup fetches the weather for one city exactly once, for the lifetime of
// one detail view. It starts in LookupLoading and settles in LookupLoaded or
// LookupErrored; it is never retried.
type Lookup struct {
	fetcher Fetcher
	city    string
	logger  zerolog.Logger

	mu      sync.Mutex
	result  Result
	started bool
	closed  bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewLookup(fetcher Fetcher, city string, logger zerolog.Logger) *Lookup {
	return &Lookup{
		fetcher: fetcher,
		city:    city,
		logger:  logger.With().Str("city", city).Logger(),
		result:  Result{City: city, State: LookupLoading},
		done:    make(chan struct{}),
	}
}

// Start issues the request. Calls after the first are no-ops.
func (l *Lookup) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started || l.closed {
		return
	}
	l.started = true

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	go l.run(ctx)
}

// Wait blocks until the lookup has settled or ctx is done.
func (l *Lookup) Wait(ctx context.Context) (Result, error) {
	select {
	case <-ctx.Done():
		return l.Result(), ctx.Err()
	case <-l.done:
		return l.Result(), nil
	}
}

func (l *Lookup) Result() Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.result
}

// Close releases the lookup. A response arriving afterwards is discarded.
func (l *Lookup) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	if l.cancel != nil {
		l.cancel()
	}
	if !l.started {
		close(l.done)
	}
}

func (l *Lookup) run(ctx context.Context) {
	defer close(l.done)

	detail, err := l.fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.cancel()
	if l.closed {
		l.logger.Debug().Msg("discarding weather for closed view")
		return
	}
	if err != nil {
		l.logger.Warn().Err(err).Msg("weather lookup failed")
		l.result.State = LookupErrored
		l.result.Err = err.Error()
		return
	}
	l.result.State = LookupLoaded
	l.result.Detail = detail
}

func (l *Lookup) fetch(ctx context.Context) (detail Detail, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("weather lookup for %q: %v", l.city, r)
		}
	}()
	return l.fetcher.FetchWeather(ctx, l.city)
}
