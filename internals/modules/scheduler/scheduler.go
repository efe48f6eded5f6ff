package scheduler

import (
	"context"
	"sync"
	"time"

	"endpoint-monitor/config"
	"endpoint-monitor/internals/modules/monitor"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type TickRunner interface {
	RunTick(ctx context.Context, now time.Time) (monitor.TickReport, error)
}

type Recorder interface {
	TickSkipped()
}

// Scheduler fires RunTick on a fixed cadence. A firing that finds the
// previous tick still running is dropped, so ticks never overlap.
type Scheduler struct {
	cron       *cron.Cron
	runner     TickRunner
	interval   time.Duration
	runOnStart bool

	busy sync.Mutex
	wg   sync.WaitGroup

	// ticks run on their own context so shutdown can let them finish
	runCtx    context.Context
	cancelRun context.CancelFunc

	metrics Recorder
	logger  *zerolog.Logger
	now     func() time.Time
}

func NewScheduler(runner TickRunner, cfg config.SchedulerConfig, metrics Recorder, logger *zerolog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	runCtx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		runner:     runner,
		interval:   cfg.Interval,
		runOnStart: cfg.RunOnStart,
		runCtx:     runCtx,
		cancelRun:  cancel,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Start registers the tick job and returns immediately.
func (s *Scheduler) Start() {
	s.cron.Schedule(cron.Every(s.interval), cron.FuncJob(func() { s.Fire() }))
	s.cron.Start()

	if s.runOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.Fire()
		}()
	}

	s.logger.Info().Dur("interval", s.interval).Bool("run_on_start", s.runOnStart).Msg("scheduler started")
}

// Fire runs one tick unless another is in progress. It reports whether the
// tick ran.
func (s *Scheduler) Fire() bool {
	if !s.busy.TryLock() {
		if s.metrics != nil {
			s.metrics.TickSkipped()
		}
		s.logger.Warn().Msg("previous tick still running, skipping this firing")
		return false
	}
	defer s.busy.Unlock()

	if s.runCtx.Err() != nil {
		return false
	}

	if _, err := s.runner.RunTick(s.runCtx, s.now()); err != nil {
		s.logger.Error().Err(err).Msg("tick failed")
	}
	return true
}

// Stop prevents new firings and waits for a running tick. If ctx expires
// first the running tick is cancelled and Stop returns ctx's error once it
// has unwound.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronDone := s.cron.Stop().Done()
	done := make(chan struct{})
	go func() {
		<-cronDone
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancelRun()
		s.logger.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancelRun()
		<-done
		s.logger.Warn().Msg("scheduler stopped before the running tick finished")
		return ctx.Err()
	}
}

type cronLogger struct {
	logger *zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
