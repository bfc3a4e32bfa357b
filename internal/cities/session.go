package cities

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Session is the state behind one mounted list view: the collection store,
// the scroll loader feeding it and the live search string.
type Session struct {
	id           string
	store        *Store
	loader       *Loader
	resetOnEmpty bool
	logger       zerolog.Logger

	mu     sync.Mutex
	search string

	closeOnce sync.Once
}

// NewSession wires a Store and Loader for opts. Call Start to load the
// first page and Close when the view goes away.
func NewSession(fetcher Fetcher, opts Options, logger zerolog.Logger) *Session {
	id := uuid.NewString()
	logger = logger.With().Str("session", id).Logger()

	store := NewStore(fetcher, opts.PageSize, logger)
	loader := NewLoader(store, LoaderConfig{
		Debounce:  opts.Debounce,
		Threshold: opts.Threshold,
	}, logger)

	return &Session{
		id:           id,
		store:        store,
		loader:       loader,
		resetOnEmpty: opts.ResetOnEmptySearch,
		logger:       logger,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Start requests the first page.
func (s *Session) Start() bool {
	s.logger.Info().Int("pageSize", s.store.PageSize()).Msg("list session started")
	return s.store.RequestNextPage()
}

// SetSearch updates the search string. Searching only filters what is
// already loaded; with ResetOnEmptySearch, clearing a non-empty search
// resets the collection and reloads the first page.
func (s *Session) SetSearch(search string) {
	s.mu.Lock()
	prev := s.search
	s.search = search
	s.mu.Unlock()

	if s.resetOnEmpty && prev != "" && search == "" {
		s.logger.Debug().Msg("search cleared; reloading from first page")
		s.store.Reset()
	}
}

func (s *Session) Search() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.search
}

// Reload is the explicit user reload.
func (s *Session) Reload() {
	s.logger.Debug().Msg("reload requested")
	s.store.Reset()
}

// Scroll forwards a viewport position to the loader.
func (s *Session) Scroll(pos ScrollPosition) bool {
	return s.loader.Observe(pos)
}

// ScrollPending reports whether a debounced next-page request is waiting.
func (s *Session) ScrollPending() bool {
	return s.loader.Pending()
}

// Updates is the store's state feed.
func (s *Session) Updates() <-chan State {
	return s.store.Updates()
}

// View derives the filtered view from the current store state.
func (s *Session) View() View {
	return s.ViewOf(s.store.State())
}

// ViewOf derives the filtered view from an already captured state.
func (s *Session) ViewOf(st State) View {
	search := s.Search()
	return View{
		Records: Filter(st.Records, search),
		Total:   len(st.Records),
		Search:  search,
		HasMore: st.HasMore,
		Loading: st.Loading,
		Err:     st.Err,
		Phase:   st.Phase,
	}
}

// Close tears the session down: the pending scroll request is cancelled
// and any in-flight page is discarded.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.loader.Close()
		s.store.Close()
		s.logger.Info().Msg("list session closed")
	})
}
