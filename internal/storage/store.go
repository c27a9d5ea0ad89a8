package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Ananth-NQI/evebot-backend/internal/models"
)

var ErrNotFound = errors.New("record not found")

// SessionStore holds at most one pending image per sender.
type SessionStore interface {
	// Step applies one inbound message to the sender's session atomically.
	// If a live session exists it is removed and returned. Otherwise, when
	// incoming is non-nil it becomes the sender's session and created is true.
	Step(sender string, incoming *models.Session) (pending *models.Session, created bool)

	// Peek returns the live session for sender without consuming it.
	Peek(sender string) (*models.Session, error)

	// Count returns the number of live sessions.
	Count() int

	// EvictExpired removes sessions older than the store's TTL.
	EvictExpired(now time.Time) int
}

// HistoryStore keeps completed analyses
type HistoryStore interface {
	SaveAnalysis(ctx context.Context, analysis *models.Analysis) error
	// RecentAnalyses returns up to limit records, newest first. An empty
	// sender matches every sender.
	RecentAnalyses(ctx context.Context, sender string, limit int) ([]*models.Analysis, error)
	Ping(ctx context.Context) error
}
