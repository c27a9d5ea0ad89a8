package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionExpired(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s := &Session{Sender: "+15550001", ImageURL: "https://api.twilio.com/media/1", CreatedAt: created}

	assert.False(t, s.Expired(0, created.Add(24*time.Hour)), "zero ttl never expires")
	assert.False(t, s.Expired(time.Minute, created.Add(59*time.Second)))
	assert.True(t, s.Expired(time.Minute, created.Add(time.Minute)))
}

func TestAnalysisBeforeCreateAssignsID(t *testing.T) {
	a := &Analysis{Sender: "+15550001"}
	assert.NoError(t, a.BeforeCreate(nil))
	assert.NotEmpty(t, a.AnalysisID)

	keep := &Analysis{AnalysisID: "fixed"}
	assert.NoError(t, keep.BeforeCreate(nil))
	assert.Equal(t, "fixed", keep.AnalysisID)
}
