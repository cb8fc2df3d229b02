package stream

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Start runs the background work on its own goroutine until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.stopped.Load() {
		return ErrStopped
	}
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cancel != nil {
		return errRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.work(gctx) })
	s.cancel, s.group = cancel, g
	s.log.Info("scheduler worker started", "interval", s.opts.Interval)
	return nil
}

func (s *Scheduler) running() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.cancel != nil
}

func (s *Scheduler) work(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := s.step(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if n > 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-s.wake:
		case <-ticker.C:
		}
	}
}

// Stop ends the background worker and waits for it. Later calls to Tick,
// Step, Start and SetVoxel return ErrStopped.
func (s *Scheduler) Stop() error {
	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}
	s.runMu.Lock()
	cancel, g := s.cancel, s.group
	s.cancel, s.group = nil, nil
	s.runMu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	err := g.Wait()
	s.log.Info("scheduler worker stopped")
	return err
}
