package services

import (
	"errors"
	"fmt"
)

var (
	ErrMediaDownload     = errors.New("media download failed")
	ErrMalformedResponse = errors.New("malformed upstream response")
	ErrNoCandidates      = errors.New("no candidates in response")
)

// UpstreamStatusError is returned when a generation API answers with a non-success status.
type UpstreamStatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("%s API request failed with status %d: %s", e.Provider, e.StatusCode, e.Body)
}
