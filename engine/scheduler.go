package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultPenaltyInterval = 60 * time.Second
	DefaultTrophyInterval  = 10 * time.Second
)

// Sweeper is the subset of Tracker the scheduler drives.
type Sweeper interface {
	PenaltySweep(ctx context.Context) (PenaltyResult, error)
	TrophySweep(ctx context.Context) (TrophyResult, error)
}

// Scheduler runs the penalty and trophy sweeps on their own intervals, once on
// start and whenever Trigger is called. Triggers arriving while a run is in
// flight are coalesced into a single follow-up run.
type Scheduler struct {
	sweeper         Sweeper
	penaltyInterval time.Duration
	trophyInterval  time.Duration
	log             *slog.Logger

	mu      sync.Mutex
	wakeup  chan string
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
}

func NewScheduler(s Sweeper, penaltyInterval, trophyInterval time.Duration, logger *slog.Logger) *Scheduler {
	if penaltyInterval <= 0 {
		penaltyInterval = DefaultPenaltyInterval
	}
	if trophyInterval <= 0 {
		trophyInterval = DefaultTrophyInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		sweeper:         s,
		penaltyInterval: penaltyInterval,
		trophyInterval:  trophyInterval,
		log:             logger,
		wakeup:          make(chan string, 1),
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
}

// Start launches the loop. The first run happens immediately with reason
// "mount". Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	go s.loop(ctx)
}

// Stop ends the loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	s.mu.Unlock()
	<-s.doneCh
}

// Trigger requests an out-of-band run of both sweeps, e.g. when the display
// regains focus or the store was changed by another process.
func (s *Scheduler) Trigger(reason string) {
	select {
	case s.wakeup <- reason:
	default:
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.doneCh)

	penalty := time.NewTicker(s.penaltyInterval)
	defer penalty.Stop()
	trophy := time.NewTicker(s.trophyInterval)
	defer trophy.Stop()

	s.runAll(ctx, "mount")
	for {
		select {
		case <-penalty.C:
			s.runPenalty(ctx, "tick")
		case <-trophy.C:
			s.runTrophy(ctx, "tick")
		case reason := <-s.wakeup:
			s.runAll(ctx, reason)
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) runAll(ctx context.Context, reason string) {
	s.runPenalty(ctx, reason)
	s.runTrophy(ctx, reason)
}

func (s *Scheduler) runPenalty(ctx context.Context, reason string) {
	res, err := s.sweeper.PenaltySweep(ctx)
	if err != nil {
		s.log.Error("penalty sweep failed", "reason", reason, "error", err)
		return
	}
	if len(res.Penalties) > 0 {
		s.log.Debug("penalty sweep", "reason", reason, "penalties", len(res.Penalties))
	}
}

func (s *Scheduler) runTrophy(ctx context.Context, reason string) {
	res, err := s.sweeper.TrophySweep(ctx)
	if err != nil {
		s.log.Error("trophy sweep failed", "reason", reason, "error", err)
		return
	}
	if len(res.Unlocked) > 0 {
		s.log.Debug("trophy sweep", "reason", reason, "unlocked", len(res.Unlocked))
	}
}
