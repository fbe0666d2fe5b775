package jobs

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const flushTimeout = 10 * time.Second

// Flusher is the part of the store the scheduler drives.
type Flusher interface {
	Save(ctx context.Context) error
	Cleanup()
}

type Scheduler struct {
	cron     *cron.Cron
	store    Flusher
	log      zerolog.Logger
	interval time.Duration
	cleanup  string
	running  atomic.Bool
}

func NewScheduler(store Flusher, interval time.Duration, cleanupSchedule string, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:     c,
		store:    store,
		log:      log.With().Str("component", "scheduler").Logger(),
		interval: interval,
		cleanup:  cleanupSchedule,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.flush); err != nil {
		return fmt.Errorf("schedule flush: %w", err)
	}
	if s.cleanup != "" {
		if _, err := s.cron.AddFunc(s.cleanup, s.compact); err != nil {
			return fmt.Errorf("schedule cleanup: %w", err)
		}
	}

	s.cron.Start()
	s.log.Info().Dur("interval", s.interval).Str("cleanup", s.cleanup).Msg("scheduler started")
	return nil
}

// Stop halts the cron and waits for a running job to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

// flush skips its turn when the previous flush is still running.
func (s *Scheduler) flush() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := s.store.Save(ctx); err != nil {
		s.log.Error().Err(err).Msg("periodic flush failed")
	}
}

func (s *Scheduler) compact() {
	s.store.Cleanup()
	s.log.Info().Msg("retention cleanup applied")
	s.flush()
}

// FlushOnSignal saves the store every time a signal arrives until ctx ends.
func FlushOnSignal(ctx context.Context, signals <-chan os.Signal, store Flusher, log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-signals:
			if !ok {
				return
			}
			saveCtx, cancel := context.WithTimeout(ctx, flushTimeout)
			if err := store.Save(saveCtx); err != nil {
				log.Error().Err(err).Str("signal", sig.String()).Msg("signal flush failed")
			} else {
				log.Info().Str("signal", sig.String()).Msg("snapshot flushed")
			}
			cancel()
		}
	}
}
