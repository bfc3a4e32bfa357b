package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// PageWarmer refreshes one cached city page.
type PageWarmer interface {
	Warm(ctx context.Context, offset, pageSize int) error
}

// WeatherWarmer refreshes the cached weather of one city.
type WeatherWarmer interface {
	Refresh(ctx context.Context, city string) error
}

// Scheduler periodically refreshes the HTTP surface's cache: the first page
// of the city list and the weather of the configured cities.
type Scheduler struct {
	scheduler *gocron.Scheduler
	pages     PageWarmer
	weather   WeatherWarmer
	pageSize  int
	cities    []string
	interval  time.Duration
	logger    zerolog.Logger
}

// New creates a new Scheduler.
func New(pages PageWarmer, pageSize int, weather WeatherWarmer, cities []string, interval time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		pages:     pages,
		weather:   weather,
		pageSize:  pageSize,
		cities:    cities,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the warm job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info().Msg("scheduler: cache warming disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce performs one warm cycle. Failures are logged; the previous cache
// entries stay in place until they expire.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.logger.Debug().Msg("scheduler: running cache warm job")

	var wg sync.WaitGroup
	if s.pages != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.pages.Warm(ctx, 0, s.pageSize); err != nil {
				s.logger.Warn().Err(err).Msg("scheduler: first page warm failed")
			}
		}()
	}
	if s.weather != nil {
		for _, city := range s.cities {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.weather.Refresh(ctx, city); err != nil {
					s.logger.Warn().Err(err).Str("city", city).Msg("scheduler: weather warm failed")
				}
			}()
		}
	}
	wg.Wait()

	s.logger.Debug().Msg("scheduler: completed cache warm job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
