package cities

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/cityweather/internal/upstream"
)

// fakeFetcher serves scripted pages keyed by offset. When gate is set, every
// fetch blocks until a value is sent on it or its context is cancelled.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[int][]Record
	errs  map[int]error
	calls []int
	gate  chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: make(map[int][]Record),
		errs:  make(map[int]error),
	}
}

func (f *fakeFetcher) FetchPage(ctx context.Context, offset, pageSize int) ([]Record, error) {
	f.mu.Lock()
	f.calls = append(f.calls, offset)
	batch, err, gate := f.pages[offset], f.errs[offset], f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return batch, err
}

func (f *fakeFetcher) Calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]int(nil), f.calls...)
}

func (f *fakeFetcher) setErr(offset int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err == nil {
		delete(f.errs, offset)
		return
	}
	f.errs[offset] = err
}

func makeRecords(prefix string, n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = Record{Name: fmt.Sprintf("%s-%d", prefix, i), Country: "Testland", Population: int64(1000 + i)}
	}
	return out
}

func waitIdle(t *testing.T, s *Store) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.wait(ctx))
	return s.State()
}

func TestStoreShortPageEndsCollection(t *testing.T) {
	f := newFakeFetcher()
	f.pages[0] = makeRecords("a", 10)
	f.pages[10] = makeRecords("b", 4)

	s := NewStore(f, 10, zerolog.Nop())
	defer s.Close()

	require.True(t, s.RequestNextPage())
	st := waitIdle(t, s)
	assert.True(t, st.HasMore)
	assert.Equal(t, 10, st.Cursor)
	assert.Len(t, st.Records, 10)
	assert.Equal(t, PhaseLoaded, st.Phase)

	require.True(t, s.RequestNextPage())
	st = waitIdle(t, s)
	assert.False(t, st.HasMore)
	assert.Len(t, st.Records, 14)
	assert.Equal(t, "a-0", st.Records[0].Name)
	assert.Equal(t, "b-3", st.Records[13].Name)

	assert.False(t, s.RequestNextPage(), "exhausted collection must not fetch again")
	loader := NewLoader(s, LoaderConfig{}, zerolog.Nop())
	assert.False(t, loader.Observe(ScrollPosition{Offset: 4, Viewport: 10, Content: 14}))

	assert.Equal(t, []int{0, 10}, f.Calls())
}

func TestStoreRecordCountIsSumOfBatches(t *testing.T) {
	f := newFakeFetcher()
	sizes := []int{5, 5, 5, 3}
	for i, n := range sizes {
		f.pages[i*5] = makeRecords(fmt.Sprintf("p%d", i), n)
	}

	s := NewStore(f, 5, zerolog.Nop())
	defer s.Close()

	want := 0
	for _, n := range sizes {
		require.True(t, s.RequestNextPage())
		st := waitIdle(t, s)
		want += n
		assert.Len(t, st.Records, want)
	}
	assert.False(t, s.State().HasMore)
}

func TestStoreFailedPageKeepsRecords(t *testing.T) {
	f := newFakeFetcher()
	f.pages[0] = makeRecords("a", 10)
	f.pages[10] = makeRecords("b", 10)
	f.setErr(10, upstream.NewStatusError("cities", http.StatusInternalServerError))

	s := NewStore(f, 10, zerolog.Nop())
	defer s.Close()

	require.True(t, s.RequestNextPage())
	waitIdle(t, s)

	require.True(t, s.RequestNextPage())
	st := waitIdle(t, s)
	assert.Len(t, st.Records, 10)
	assert.NotEmpty(t, st.Err)
	assert.False(t, st.Loading)
	assert.True(t, st.HasMore)
	assert.Equal(t, 10, st.Cursor)
	assert.Equal(t, PhaseErrored, st.Phase)

	// The same page can be requested again once the upstream recovers.
	f.setErr(10, nil)
	require.True(t, s.RequestNextPage())
	st = waitIdle(t, s)
	assert.Len(t, st.Records, 20)
	assert.Empty(t, st.Err)
	assert.Equal(t, []int{0, 10, 10}, f.Calls())
}

func TestStoreSingleFetchInFlight(t *testing.T) {
	f := newFakeFetcher()
	f.pages[0] = makeRecords("a", 3)
	f.gate = make(chan struct{})

	s := NewStore(f, 3, zerolog.Nop())
	defer s.Close()

	require.True(t, s.RequestNextPage())
	assert.True(t, s.State().Loading)
	assert.False(t, s.CanLoadMore())
	assert.False(t, s.RequestNextPage())
	assert.False(t, s.RequestNextPage())

	f.gate <- struct{}{}
	st := waitIdle(t, s)
	assert.Len(t, st.Records, 3)
	assert.Equal(t, []int{0}, f.Calls())
}

func TestStoreResetReloadsFirstPage(t *testing.T) {
	f := newFakeFetcher()
	f.pages[0] = makeRecords("a", 2)
	f.pages[2] = makeRecords("b", 2)

	s := NewStore(f, 2, zerolog.Nop())
	defer s.Close()

	s.RequestNextPage()
	waitIdle(t, s)
	s.RequestNextPage()
	st := waitIdle(t, s)
	require.Len(t, st.Records, 4)

	s.Reset()
	st = waitIdle(t, s)
	assert.Len(t, st.Records, 2)
	assert.Equal(t, 2, st.Cursor)
	assert.True(t, st.HasMore)
	assert.Equal(t, []int{0, 2, 0}, f.Calls())
}

func TestStoreResetWhileLoadingDropsStalePage(t *testing.T) {
	f := newFakeFetcher()
	f.pages[0] = makeRecords("a", 2)
	f.pages[2] = makeRecords("b", 2)

	s := NewStore(f, 2, zerolog.Nop())
	defer s.Close()

	s.RequestNextPage()
	waitIdle(t, s)

	f.mu.Lock()
	f.gate = make(chan struct{})
	f.mu.Unlock()

	require.True(t, s.RequestNextPage()) // offset 2, blocked
	s.Reset()

	st := s.State()
	assert.Empty(t, st.Records)
	assert.True(t, st.Loading, "stale fetch is still in flight")
	assert.False(t, s.RequestNextPage())

	// The stale fetch observes cancellation; the first page is then requested
	// and blocks on the gate until released here.
	require.Eventually(t, func() bool { return len(f.Calls()) == 3 }, 2*time.Second, 5*time.Millisecond)
	f.gate <- struct{}{}
	st = waitIdle(t, s)
	assert.Equal(t, makeRecords("a", 2), st.Records)
	assert.Equal(t, 2, st.Cursor)
	assert.Equal(t, []int{0, 2, 0}, f.Calls())
}

func TestStoreCloseDiscardsLateResponse(t *testing.T) {
	f := newFakeFetcher()
	f.pages[0] = makeRecords("a", 2)
	f.gate = make(chan struct{})

	s := NewStore(f, 2, zerolog.Nop())
	require.True(t, s.RequestNextPage())
	s.Close()

	waitIdle(t, s)
	st := s.State()
	assert.Empty(t, st.Records)
	assert.False(t, s.RequestNextPage())

	// Drain to the closed channel.
	for range s.Updates() {
	}
}

func TestStoreFetcherPanicBecomesError(t *testing.T) {
	s := NewStore(panicFetcher{}, 5, zerolog.Nop())
	defer s.Close()

	require.True(t, s.RequestNextPage())
	st := waitIdle(t, s)
	assert.Equal(t, PhaseErrored, st.Phase)
	assert.Contains(t, st.Err, "boom")
}

type panicFetcher struct{}

func (panicFetcher) FetchPage(context.Context, int, int) ([]Record, error) {
	panic("boom")
}

func TestStorePublishesUpdates(t *testing.T) {
	f := newFakeFetcher()
	f.pages[0] = makeRecords("a", 1)

	s := NewStore(f, 5, zerolog.Nop())
	defer s.Close()

	s.RequestNextPage()
	waitIdle(t, s)

	select {
	case st := <-s.Updates():
		assert.Equal(t, PhaseLoaded, st.Phase)
		assert.Len(t, st.Records, 1)
		assert.False(t, st.HasMore)
	case <-time.After(time.Second):
		t.Fatal("no update published")
	}
}

func TestStoreErrorIsFetchError(t *testing.T) {
	f := newFakeFetcher()
	f.setErr(0, upstream.NewTransportError("cities", errors.New("dial tcp: refused")))

	s := NewStore(f, 5, zerolog.Nop())
	defer s.Close()

	s.RequestNextPage()
	st := waitIdle(t, s)
	assert.Equal(t, "cities: request failed: dial tcp: refused", st.Err)
}
