package jobs

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/Ananth-NQI/evebot-backend/internal/metrics"
	"github.com/Ananth-NQI/evebot-backend/internal/models"
	"github.com/Ananth-NQI/evebot-backend/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSessionSweeperSweep(t *testing.T) {
	store := storage.NewMemorySessionStore(time.Minute)
	m := metrics.New(prometheus.NewRegistry())
	sweeper := NewSessionSweeper(store, time.Hour, m)

	old := time.Now().Add(-2 * time.Minute)
	store.Step("+1", &models.Session{ImageURL: "https://media/1", CreatedAt: old})
	store.Step("+2", &models.Session{ImageURL: "https://media/2"})

	assert.Equal(t, 1, sweeper.Sweep(time.Now()))
	assert.Equal(t, 1, store.Count())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsEvicted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PendingSessions))
}

type countingStore struct {
	storage.SessionStore
	sweeps int32
}

func (c *countingStore) EvictExpired(now time.Time) int {
	atomic.AddInt32(&c.sweeps, 1)
	return c.SessionStore.EvictExpired(now)
}

func TestSessionSweeperRunsInBackground(t *testing.T) {
	store := &countingStore{SessionStore: storage.NewMemorySessionStore(time.Millisecond)}
	sweeper := NewSessionSweeper(store, 5*time.Millisecond, nil)

	sweeper.Start()
	sweeper.Start() // no-op while running
	defer sweeper.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&store.sweeps) >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestSessionSweeperStopIsIdempotent(t *testing.T) {
	sweeper := NewSessionSweeper(storage.NewMemorySessionStore(time.Minute), time.Hour, nil)

	sweeper.Stop()
	sweeper.Start()
	sweeper.Stop()
	sweeper.Stop()
}
