package cities

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ScrollPosition describes a viewport over the rendered list, in rows.
type ScrollPosition struct {
	Offset   int // first visible row
	Viewport int // visible rows
	Content  int // total rows
}

// Remaining is the number of rows below the viewport.
func (p ScrollPosition) Remaining() int {
	return p.Content - (p.Offset + p.Viewport)
}

// PageRequester is the part of Store the Loader drives.
type PageRequester interface {
	RequestNextPage() bool
	CanLoadMore() bool
}

// LoaderConfig controls when scrolling near the end loads the next page.
type LoaderConfig struct {
	// Debounce delays the request; every trigger inside the window restarts it.
	// Zero requests synchronously on the triggering event.
	Debounce time.Duration
	// Threshold is how many rows may remain below the viewport for the
	// position to count as "at the bottom".
	Threshold int
}

// Loader turns scroll positions into next-page requests.
// It owns the debounce timer, which Close releases.
type Loader struct {
	target    PageRequester
	debounce  time.Duration
	threshold int
	logger    zerolog.Logger

	mu     sync.Mutex
	timer  *time.Timer
	seq    uint64
	closed bool
}

func NewLoader(target PageRequester, cfg LoaderConfig, logger zerolog.Logger) *Loader {
	threshold := cfg.Threshold
	if threshold < 0 {
		threshold = 0
	}
	return &Loader{
		target:    target,
		debounce:  cfg.Debounce,
		threshold: threshold,
		logger:    logger,
	}
}

// Observe handles one scroll event. It returns true if a page request was
// issued or scheduled.
func (l *Loader) Observe(pos ScrollPosition) bool {
	if pos.Remaining() > l.threshold {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || !l.target.CanLoadMore() {
		return false
	}

	if l.debounce <= 0 {
		return l.target.RequestNextPage()
	}

	if l.timer != nil {
		l.timer.Stop()
	}
	l.seq++
	seq := l.seq
	l.timer = time.AfterFunc(l.debounce, func() { l.fire(seq) })
	l.logger.Debug().Dur("debounce", l.debounce).Msg("next page scheduled")
	return true
}

// Pending reports whether a debounced request is waiting to fire.
func (l *Loader) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.timer != nil
}

// Close cancels any pending request. Later events are ignored.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

func (l *Loader) fire(seq uint64) {
	l.mu.Lock()
	if l.closed || seq != l.seq {
		l.mu.Unlock()
		return
	}
	l.timer = nil
	l.mu.Unlock()

	if l.target.CanLoadMore() {
		l.target.RequestNextPage()
	}
}
