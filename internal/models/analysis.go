package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Analysis outcomes
const (
	OutcomeSuccess       = "success"
	OutcomeMediaError    = "media_error"
	OutcomeUpstreamError = "upstream_error"
	OutcomeRequestError  = "request_error"
)

// Analysis records one completed image analysis
type Analysis struct {
	gorm.Model
	AnalysisID  string `json:"analysis_id" gorm:"uniqueIndex;not null"`
	Sender      string `json:"sender" gorm:"index;not null"`
	MediaURL    string `json:"media_url"`
	ContentType string `json:"content_type"`
	Prompt      string `json:"prompt"`
	Reply       string `json:"reply"`
	Outcome     string `json:"outcome" gorm:"index"`
	Provider    string `json:"provider"`
	DurationMs  int64  `json:"duration_ms"`
}

// BeforeCreate assigns the public AnalysisID
func (a *Analysis) BeforeCreate(tx *gorm.DB) error {
	if a.AnalysisID == "" {
		a.AnalysisID = uuid.NewString()
	}
	return nil
}

// Succeeded reports whether the reply came from the model.
func (a *Analysis) Succeeded() bool {
	return a.Outcome == OutcomeSuccess
}
