package storage

import (
	"context"
	"fmt"

	"github.com/Ananth-NQI/evebot-backend/internal/models"
	"gorm.io/gorm"
)

// DatabaseHistoryStore persists analyses in PostgreSQL through gorm
type DatabaseHistoryStore struct {
	db *gorm.DB
}

func NewDatabaseHistoryStore(db *gorm.DB) *DatabaseHistoryStore {
	return &DatabaseHistoryStore{db: db}
}

func (d *DatabaseHistoryStore) SaveAnalysis(ctx context.Context, analysis *models.Analysis) error {
	if err := d.db.WithContext(ctx).Create(analysis).Error; err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

func (d *DatabaseHistoryStore) RecentAnalyses(ctx context.Context, sender string, limit int) ([]*models.Analysis, error) {
	query := d.db.WithContext(ctx).Order("created_at DESC")
	if sender != "" {
		query = query.Where("sender = ?", sender)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var analyses []*models.Analysis
	if err := query.Find(&analyses).Error; err != nil {
		return nil, fmt.Errorf("failed to load analyses: %w", err)
	}
	return analyses, nil
}

func (d *DatabaseHistoryStore) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
