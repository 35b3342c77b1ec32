package trash

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nimbusdrive/nimbus/pkg/drive"
	"github.com/nimbusdrive/nimbus/pkg/metrics"
)

// SweeperConfig configures the background retention sweeper.
type SweeperConfig struct {
	// Enabled controls whether the sweeper runs (default: true when
	// constructed via config).
	Enabled bool

	// Interval is how often to scan the trash (default: 1h).
	Interval time.Duration

	// Retention is how long items stay in the trash before they are
	// purged automatically (default: 30 days).
	Retention time.Duration
}

// Sweeper permanently deletes trashed items older than the retention
// window. It runs as a background goroutine; Start and Stop bound its
// lifecycle.
type Sweeper struct {
	service *Service
	store   drive.Store
	config  SweeperConfig
	metrics metrics.DriveMetrics
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSweeper creates a sweeper. Call Start to begin sweeping.
func NewSweeper(service *Service, store drive.Store, m metrics.DriveMetrics, config SweeperConfig) *Sweeper {
	if config.Interval == 0 {
		config.Interval = time.Hour
	}
	if config.Retention == 0 {
		config.Retention = 30 * 24 * time.Hour
	}

	return &Sweeper{
		service: service,
		store:   store,
		config:  config,
		metrics: m,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start launches the background worker. No-op when disabled.
func (s *Sweeper) Start() {
	if !s.config.Enabled {
		log.Info().Msg("trash sweeper disabled")
		close(s.doneCh)
		return
	}

	log.Info().
		Dur("interval", s.config.Interval).
		Dur("retention", s.config.Retention).
		Msg("starting trash sweeper")
	go s.worker()
}

// Stop signals the worker to stop and waits for the in-progress sweep,
// if any, to finish. Returns the context's error on timeout.
func (s *Sweeper) Stop(ctx context.Context) error {
	close(s.stopCh)
	select {
	case <-s.doneCh:
		return nil
	case <-ctx.Done():
		log.Warn().Msg("trash sweeper shutdown timeout")
		return ctx.Err()
	}
}

// RunNow triggers an immediate sweep and returns the number of items
// purged. Useful for tests and admin triggers.
func (s *Sweeper) RunNow(ctx context.Context) (int, error) {
	return s.sweep(ctx)
}

func (s *Sweeper) worker() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			purged, err := s.sweep(ctx)
			cancel()

			if err != nil {
				log.Error().Err(err).Msg("trash sweep failed")
			} else if purged > 0 {
				log.Info().Int("purged", purged).Msg("trash sweep completed")
			}

		case <-s.stopCh:
			return
		}
	}
}

// sweep purges every expired cascade root. Descendants disappear with
// their root, so items already gone by the time we reach them are
// skipped.
func (s *Sweeper) sweep(ctx context.Context) (int, error) {
	start := time.Now()
	cutoff := start.UTC().Add(-s.config.Retention)

	expired, err := s.store.ListTrashedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	trashed := make(map[uuid.UUID]bool, len(expired))
	for _, item := range expired {
		trashed[item.ID] = true
	}

	var purged int
	for _, item := range expired {
		if item.ParentID != nil && trashed[*item.ParentID] {
			continue
		}
		err := s.service.Purge(ctx, item.OwnerID, item.ID)
		if drive.IsCode(err, drive.ErrNotFound) {
			continue
		}
		if err != nil {
			return purged, err
		}
		purged++
	}

	s.metrics.RecordSweep(purged, time.Since(start))
	return purged, nil
}
