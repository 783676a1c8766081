package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kiranze/FPVNoobBot/internal/engine"
)

// Loop is a long-running unit of work the supervisor keeps alive.
type Loop struct {
	Name string
	Run  func(ctx context.Context) error
}

// Supervisor runs loops until ctx is cancelled, restarting any loop
// that returns an error or panics. A crash in one loop never takes
// down the others.
type Supervisor struct {
	restartDelay time.Duration
	sleeper      engine.Sleeper
	logger       *slog.Logger
}

func NewSupervisor(restartDelay time.Duration, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		restartDelay: restartDelay,
		sleeper:      engine.RealSleeper{},
		logger:       logger,
	}
}

// Start blocks until ctx is cancelled and every loop has returned.
func (s *Supervisor) Start(ctx context.Context, loops ...Loop) {
	var wg sync.WaitGroup
	for _, loop := range loops {
		wg.Add(1)
		go func(loop Loop) {
			defer wg.Done()
			s.keepAlive(ctx, loop)
		}(loop)
	}
	wg.Wait()
}

func (s *Supervisor) keepAlive(ctx context.Context, loop Loop) {
	for {
		if ctx.Err() != nil {
			return
		}
		err := s.runOnce(ctx, loop)
		if ctx.Err() != nil {
			s.logger.Info("loop stopped", "loop", loop.Name)
			return
		}
		if err == nil {
			err = fmt.Errorf("loop returned without error before shutdown")
		}
		s.logger.Error("loop crashed, restarting",
			"loop", loop.Name, "restart_delay", s.restartDelay, "error", err)
		if serr := s.sleeper.Sleep(ctx, s.restartDelay); serr != nil {
			return
		}
	}
}

// runOnce converts a panic inside the loop into an error so the
// restart policy applies uniformly.
func (s *Supervisor) runOnce(ctx context.Context, loop Loop) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return loop.Run(ctx)
}
