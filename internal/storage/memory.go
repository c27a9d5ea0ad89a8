package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Ananth-NQI/evebot-backend/internal/models"
)

// MemorySessionStore keeps sessions in a map guarded by a single mutex, so
// the read-then-delete of a sender's session can never interleave.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionStore creates a session store. A zero ttl keeps sessions until consumed.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*models.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemorySessionStore) Step(sender string, incoming *models.Session) (*models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[sender]; ok {
		delete(m.sessions, sender)
		if !existing.Expired(m.ttl, m.now()) {
			return existing, false
		}
	}

	if incoming == nil {
		return nil, false
	}

	if incoming.CreatedAt.IsZero() {
		incoming.CreatedAt = m.now()
	}
	incoming.Sender = sender
	m.sessions[sender] = incoming
	return nil, true
}

func (m *MemorySessionStore) Peek(sender string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sender]
	if !ok || session.Expired(m.ttl, m.now()) {
		return nil, fmt.Errorf("session for %s: %w", sender, ErrNotFound)
	}
	copied := *session
	return &copied, nil
}

func (m *MemorySessionStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for _, session := range m.sessions {
		if !session.Expired(m.ttl, now) {
			n++
		}
	}
	return n
}

func (m *MemorySessionStore) EvictExpired(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for sender, session := range m.sessions {
		if session.Expired(m.ttl, now) {
			delete(m.sessions, sender)
			evicted++
		}
	}
	return evicted
}

// MemoryHistoryStore keeps the most recent analyses in memory
type MemoryHistoryStore struct {
	mu      sync.RWMutex
	records []*models.Analysis
	limit   int
	counter uint
}

// NewMemoryHistoryStore keeps at most limit records; older ones are dropped.
func NewMemoryHistoryStore(limit int) *MemoryHistoryStore {
	if limit <= 0 {
		limit = 500
	}
	return &MemoryHistoryStore{limit: limit}
}

func (m *MemoryHistoryStore) SaveAnalysis(ctx context.Context, analysis *models.Analysis) error {
	if err := analysis.BeforeCreate(nil); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++
	now := time.Now()
	analysis.ID = m.counter
	analysis.CreatedAt = now
	analysis.UpdatedAt = now

	m.records = append(m.records, analysis)
	if len(m.records) > m.limit {
		m.records = m.records[len(m.records)-m.limit:]
	}
	return nil
}

func (m *MemoryHistoryStore) RecentAnalyses(ctx context.Context, sender string, limit int) ([]*models.Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := []*models.Analysis{}
	for i := len(m.records) - 1; i >= 0; i-- {
		if limit > 0 && len(results) >= limit {
			break
		}
		record := m.records[i]
		if sender != "" && record.Sender != sender {
			continue
		}
		results = append(results, record)
	}
	return results, nil
}

func (m *MemoryHistoryStore) Ping(ctx context.Context) error {
	return nil
}
