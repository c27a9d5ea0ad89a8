package models

import "time"

// Session is one sender's pending image, waiting for the follow-up prompt.
type Session struct {
	Sender      string    `json:"sender"`
	ImageURL    string    `json:"image_url"`
	ContentType string    `json:"content_type,omitempty"` // as declared by the gateway, may be empty
	CreatedAt   time.Time `json:"created_at"`
}

// Expired reports whether the session outlived ttl. A zero ttl never expires.
func (s *Session) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.CreatedAt) >= ttl
}
