package jobs

import (
	"sync"
	"time"

	"github.com/Ananth-NQI/evebot-backend/internal/logger"
	"github.com/Ananth-NQI/evebot-backend/internal/metrics"
	"github.com/Ananth-NQI/evebot-backend/internal/storage"
	"go.uber.org/zap"
)

// SessionSweeper periodically evicts pending sessions that outlived their TTL
type SessionSweeper struct {
	store    storage.SessionStore
	interval time.Duration
	metrics  *metrics.Metrics

	mu        sync.Mutex
	isRunning bool
	stop      chan struct{}
	done      chan struct{}
}

// NewSessionSweeper creates a sweeper that runs every interval
func NewSessionSweeper(store storage.SessionStore, interval time.Duration, m *metrics.Metrics) *SessionSweeper {
	return &SessionSweeper{
		store:    store,
		interval: interval,
		metrics:  m,
	}
}

// Start begins sweeping in the background
func (s *SessionSweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		logger.Info("Session sweeper already running")
		return
	}

	s.isRunning = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.done)

	logger.Info("Session sweeper started", zap.Duration("interval", s.interval))
}

// Stop halts the sweeper and waits for the current sweep to finish
func (s *SessionSweeper) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
	logger.Info("Session sweeper stopped")
}

func (s *SessionSweeper) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}

// Sweep evicts expired sessions once and returns how many were removed
func (s *SessionSweeper) Sweep(now time.Time) int {
	evicted := s.store.EvictExpired(now)
	s.metrics.AddEvicted(evicted)
	s.metrics.SetPending(s.store.Count())

	if evicted > 0 {
		logger.Info("Cleaned up expired sessions", zap.Int("evicted", evicted))
	}
	return evicted
}
