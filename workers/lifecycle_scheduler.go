package workers

import (
	"context"
	"fmt"
	"time"

	"game-session-system/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Sweeper runs one lifecycle sweep at now.
type Sweeper interface {
	ProcessLifecycle(ctx context.Context, now time.Time) (services.LifecycleResult, error)
}

// ArchiveSink receives the ids archived by a sweep.
type ArchiveSink interface {
	RecordArchived(ctx context.Context, sweptAt time.Time, ids []string) error
}

// LifecycleScheduler triggers sweeps on a fixed interval inside the server
// process. Overlapping runs are never started: a tick that fires while a sweep
// is still running is rescheduled.
type LifecycleScheduler struct {
	sweeper  Sweeper
	sink     ArchiveSink
	clock    clockwork.Clock
	interval time.Duration
	log      *zap.Logger

	sched gocron.Scheduler
}

func NewLifecycleScheduler(sweeper Sweeper, sink ArchiveSink, clock clockwork.Clock, interval time.Duration, log *zap.Logger) *LifecycleScheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LifecycleScheduler{
		sweeper:  sweeper,
		sink:     sink,
		clock:    clock,
		interval: interval,
		log:      log.Named("lifecycle-scheduler"),
	}
}

// RunOnce sweeps at the scheduler clock's current time and forwards archived
// ids to the sink. A sink failure is logged and does not fail the sweep.
func (s *LifecycleScheduler) RunOnce(ctx context.Context) (services.LifecycleResult, error) {
	now := s.clock.Now()
	res, err := s.sweeper.ProcessLifecycle(ctx, now)

	if s.sink != nil && len(res.ArchivedIDs) > 0 {
		if sinkErr := s.sink.RecordArchived(ctx, now, res.ArchivedIDs); sinkErr != nil {
			s.log.Warn("archive manifest not recorded", zap.Int("archived", len(res.ArchivedIDs)), zap.Error(sinkErr))
		}
	}
	return res, err
}

// Start schedules the sweep job. A non-positive interval leaves the scheduler
// off; sweeps then only run through the admin route or the CLI.
func (s *LifecycleScheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		s.log.Info("lifecycle scheduler disabled")
		return nil
	}

	sched, err := gocron.NewScheduler(gocron.WithClock(s.clock))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			res, err := s.RunOnce(ctx)
			if err != nil {
				// already logged with its phase by the service
				return
			}
			s.log.Debug("scheduled sweep",
				zap.Int("auto_completed", res.AutoCompletedCount),
				zap.Int("archived", res.ArchivedCompletedCount),
			)
		}),
		gocron.WithName("session-lifecycle-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule sweep: %w", err)
	}

	sched.Start()
	s.sched = sched
	s.log.Info("lifecycle scheduler started", zap.Duration("interval", s.interval))
	return nil
}

func (s *LifecycleScheduler) Shutdown() error {
	if s.sched == nil {
		return nil
	}
	return s.sched.Shutdown()
}
