package cities

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Store accumulates pages of the remote collection in arrival order.
//
// At most one fetch is in flight at any time. RequestNextPage while a fetch
// is running is a no-op, hasMore turns false on the first short page and
// stays false until Reset, and a failed fetch never touches merged records.
type Store struct {
	fetcher  Fetcher
	pageSize int
	logger   zerolog.Logger

	mu      sync.Mutex
	records []Record
	hasMore bool
	cursor  int
	loading bool
	phase   Phase
	errMsg  string

	closed bool
	// gen is bumped by Reset and Close; a response tagged with an older
	// generation is discarded.
	gen           uint64
	reloadPending bool
	cancel        context.CancelFunc
	done          chan struct{}

	updates chan State
}

// NewStore creates an empty store. Nothing is fetched until RequestNextPage.
func NewStore(fetcher Fetcher, pageSize int, logger zerolog.Logger) *Store {
	if pageSize < 1 {
		pageSize = 1
	}
	return &Store{
		fetcher:  fetcher,
		pageSize: pageSize,
		logger:   logger,
		hasMore:  true,
		phase:    PhaseIdle,
		updates:  make(chan State, 1),
	}
}

// PageSize returns the fixed page size of this store.
func (s *Store) PageSize() int {
	return s.pageSize
}

// RequestNextPage starts fetching the page at the current cursor.
// It returns false without doing anything when a fetch is already running,
// the collection is exhausted or the store is closed.
func (s *Store) RequestNextPage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.startLocked()
}

// CanLoadMore reports whether RequestNextPage would start a fetch.
func (s *Store) CanLoadMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.closed && !s.loading && s.hasMore
}

// Reset empties the collection and immediately requests the first page.
// A fetch still in flight is cancelled and its response dropped; the first
// page is requested as soon as it has returned.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.gen++
	s.records = nil
	s.cursor = 0
	s.hasMore = true
	s.errMsg = ""

	if s.loading {
		s.reloadPending = true
		s.cancel()
		s.logger.Debug().Msg("reset while loading; first page deferred until in-flight fetch returns")
		s.publishLocked()
		return
	}

	s.phase = PhaseIdle
	s.startLocked()
}

// State returns a copy of the current collection state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// Updates delivers the latest state after every transition. Intermediate
// states may be skipped if the reader is slow. The channel is closed by Close.
func (s *Store) Updates() <-chan State {
	return s.updates
}

// wait blocks until no fetch is in flight or ctx is done.
func (s *Store) wait(ctx context.Context) error {
	for {
		s.mu.Lock()
		if !s.loading {
			s.mu.Unlock()
			return nil
		}
		done := s.done
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
		}
	}
}

// Close detaches the store from its view. The in-flight fetch, if any, is
// cancelled and whatever it returns is discarded.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.gen++
	s.reloadPending = false
	if s.cancel != nil {
		s.cancel()
	}
	close(s.updates)
}

func (s *Store) startLocked() bool {
	if s.closed || s.loading || !s.hasMore {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.loading = true
	s.phase = PhaseLoading
	s.cancel = cancel
	s.done = done

	gen, offset := s.gen, s.cursor
	s.logger.Debug().Int("offset", offset).Int("pageSize", s.pageSize).Msg("requesting page")
	s.publishLocked()

	go s.fetch(ctx, gen, offset, done)
	return true
}

func (s *Store) fetch(ctx context.Context, gen uint64, offset int, done chan struct{}) {
	defer close(done)

	batch, err := s.fetchPage(ctx, offset)
	s.complete(gen, offset, batch, err)
}

func (s *Store) fetchPage(ctx context.Context, offset int) (batch []Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch page at offset %d: %v", offset, r)
		}
	}()
	return s.fetcher.FetchPage(ctx, offset, s.pageSize)
}

func (s *Store) complete(gen uint64, offset int, batch []Record, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	s.cancel = nil
	s.loading = false

	if s.closed {
		s.logger.Debug().Int("offset", offset).Msg("discarding page for closed store")
		return
	}

	if gen != s.gen {
		s.logger.Debug().Int("offset", offset).Msg("discarding stale page")
		s.phase = PhaseIdle
		if s.reloadPending {
			s.reloadPending = false
			s.startLocked()
			return
		}
		s.publishLocked()
		return
	}

	if err != nil {
		s.phase = PhaseErrored
		s.errMsg = err.Error()
		s.logger.Warn().Err(err).Int("offset", offset).Msg("page fetch failed")
		s.publishLocked()
		return
	}

	s.records = append(s.records, batch...)
	s.hasMore = len(batch) == s.pageSize
	s.cursor += s.pageSize
	s.errMsg = ""
	s.phase = PhaseLoaded

	s.logger.Debug().
		Int("offset", offset).
		Int("received", len(batch)).
		Int("total", len(s.records)).
		Bool("hasMore", s.hasMore).
		Msg("page merged")
	s.publishLocked()
}

func (s *Store) snapshotLocked() State {
	records := make([]Record, len(s.records))
	copy(records, s.records)
	return State{
		Records: records,
		HasMore: s.hasMore,
		Cursor:  s.cursor,
		Loading: s.loading,
		Err:     s.errMsg,
		Phase:   s.phase,
	}
}

// publishLocked replaces any unread state with the current one.
func (s *Store) publishLocked() {
	if s.closed {
		return
	}
	st := s.snapshotLocked()
	select {
	case <-s.updates:
	default:
	}
	s.updates <- st
}
