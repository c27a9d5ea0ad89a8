package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/Ananth-NQI/evebot-backend/internal/config"
)

const defaultImageMIMEType = "image/jpeg"

// Image is a downloaded attachment ready to be sent to a vision model
type Image struct {
	Data     []byte
	MIMEType string
}

// MediaSource retrieves attachment bytes from the messaging gateway.
type MediaSource interface {
	Fetch(ctx context.Context, url, declaredType string) (*Image, error)
}

// MediaFetcher downloads Twilio media, authenticating with the account
// credentials when they are configured.
type MediaFetcher struct {
	httpClient *http.Client
	accountSID string
	authToken  string
	maxBytes   int64
}

func NewMediaFetcher(httpClient *http.Client, twilio config.TwilioConfig, maxBytes int64) *MediaFetcher {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &MediaFetcher{
		httpClient: httpClient,
		accountSID: twilio.AccountSID,
		authToken:  twilio.AuthToken,
		maxBytes:   maxBytes,
	}
}

// Fetch downloads the media at url. Every error wraps ErrMediaDownload.
func (f *MediaFetcher) Fetch(ctx context.Context, url, declaredType string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrMediaDownload, err)
	}
	if f.accountSID != "" && f.authToken != "" {
		req.SetBasicAuth(f.accountSID, f.authToken)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMediaDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrMediaDownload, resp.StatusCode)
	}

	reader := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrMediaDownload, err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: media exceeds %d bytes", ErrMediaDownload, f.maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMediaDownload)
	}

	return &Image{
		Data:     data,
		MIMEType: resolveMIMEType(declaredType, resp.Header.Get("Content-Type"), data),
	}, nil
}

// resolveMIMEType prefers the gateway-declared type, then the response
// header, then content sniffing. Non-image types are ignored.
func resolveMIMEType(declared, header string, data []byte) string {
	for _, candidate := range []string{declared, header} {
		if candidate == "" {
			continue
		}
		mediaType, _, err := mime.ParseMediaType(candidate)
		if err == nil && strings.HasPrefix(mediaType, "image/") {
			return mediaType
		}
	}
	if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	return defaultImageMIMEType
}
