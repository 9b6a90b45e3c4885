// Package scheduler runs the periodic occurrence sweep on a cron schedule.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/spendlog/backend/internal/logger"
)

const jobName = "occurrence-sweep"

// Sweeper materializes the due occurrences of every active recurrence and
// reports how many rows it created.
type Sweeper interface {
	ReconcileAll(ctx context.Context) (int, error)
}

// Config holds the scheduler configuration
type Config struct {
	// Schedule is a standard five field cron expression (e.g., "0 2 * * *" for daily at 02:00)
	Schedule string
	// Timeout bounds a complete sweep
	Timeout time.Duration
	// Enabled determines if the scheduler should run
	Enabled bool
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Schedule: "0 2 * * *",
		Timeout:  2 * time.Minute,
		Enabled:  false,
	}
}

// Scheduler triggers the sweep on its schedule. Scheduled and manual runs
// share one job wrapped in cron.SkipIfStillRunning, so a trigger that fires
// while a sweep is in progress is dropped.
type Scheduler struct {
	cron    *cron.Cron
	job     cron.Job
	sweeper Sweeper
	config  Config
	entryID cron.EntryID

	// manual tracks RunNow goroutines, which cron's own job tracking misses.
	manual sync.WaitGroup
}

// New creates a new Scheduler instance
func New(cfg Config, sweeper Sweeper) *Scheduler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	cronLog := cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Logger().Handler(), slog.LevelInfo))
	s := &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithLogger(cronLog)),
		sweeper: sweeper,
		config:  cfg,
	}
	s.job = cron.NewChain(cron.SkipIfStillRunning(cronLog)).Then(cron.FuncJob(s.sweep))
	return s
}

// Start begins the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		logger.Info("Occurrence sweep is disabled, skipping start")
		return nil
	}

	// The cron runs with a seconds field; sweeps fire at second zero.
	entryID, err := s.cron.AddJob("0 "+s.config.Schedule, s.job)
	if err != nil {
		return err
	}

	s.entryID = entryID
	s.cron.Start()

	logger.Info("Occurrence sweep scheduled",
		slog.String("schedule", s.config.Schedule),
		slog.Duration("timeout", s.config.Timeout),
		slog.Time("next_run", s.NextRunTime()),
	)
	return nil
}

// Stop halts the schedule. The returned context is done once every sweep in
// progress, scheduled or manual, has finished.
func (s *Scheduler) Stop() context.Context {
	logger.Info("Stopping occurrence sweep...")
	scheduled := s.cron.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-scheduled.Done()
		s.manual.Wait()
		cancel()
	}()
	return ctx
}

// RunNow sweeps immediately in the background.
func (s *Scheduler) RunNow() {
	s.manual.Add(1)
	go func() {
		defer s.manual.Done()
		s.job.Run()
	}()
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(logger.WithJob(context.Background(), jobName), s.config.Timeout)
	defer cancel()
	log := logger.FromContext(ctx)

	start := time.Now()
	log.Info("Starting occurrence sweep")

	created, err := s.sweeper.ReconcileAll(ctx)
	duration := time.Since(start)
	if err != nil {
		log.Error("Occurrence sweep failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)
		return
	}

	log.Info("Occurrence sweep completed",
		slog.Int("occurrences_created", created),
		slog.Duration("duration", duration),
	)
}

// NextRunTime returns the next scheduled sweep, or the zero time when the
// scheduler was never started.
func (s *Scheduler) NextRunTime() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}
