package services

import (
	"sync"
	"time"

	"github.com/arkanlabs/docchat/internal/logger"
)

// Sweeper runs the session expiry sweep on a fixed interval in a
// background goroutine.
type Sweeper struct {
	store    *SessionStore
	interval time.Duration

	mu      sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewSweeper creates a sweeper for the given store. A non-positive
// interval falls back to the store's configured sweep interval.
func NewSweeper(store *SessionStore, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = store.settings.SweepInterval
	}
	return &Sweeper{
		store:    store,
		interval: interval,
	}
}

// Start launches the sweep loop. Calling Start on a running sweeper is
// a no-op.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})

	s.wg.Add(1)
	go s.run(s.stopCh)

	logger.Info("session sweeper started (interval: %s)", s.interval)
}

// Stop terminates the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	logger.Info("session sweeper stopped")
}

func (s *Sweeper) run(stopCh chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if n := s.store.Sweep(); n > 0 {
				logger.Debug("sweep removed %d expired session(s)", n)
			}
		}
	}
}
