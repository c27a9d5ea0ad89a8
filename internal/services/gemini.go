package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Ananth-NQI/evebot-backend/internal/config"
)

// GeminiProvider calls the Gemini generateContent endpoint with inline image data.
type GeminiProvider struct {
	apiKey     string
	authMode   string
	url        string
	model      string
	httpClient *http.Client
}

func NewGeminiProvider(cfg config.GeminiConfig, httpClient *http.Client) *GeminiProvider {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &GeminiProvider{
		apiKey:     cfg.APIKey,
		authMode:   cfg.AuthMode,
		url:        fmt.Sprintf("%s/%s/models/%s:generateContent", cfg.BaseURL, cfg.APIVersion, cfg.Model),
		model:      cfg.Model,
		httpClient: httpClient,
	}
}

func (g *GeminiProvider) Name() string {
	return "Gemini"
}

func (g *GeminiProvider) Model() string {
	return g.model
}

func (g *GeminiProvider) Generate(ctx context.Context, prompt string, img *Image) (string, error) {
	request := geminiRequest{
		Contents: []geminiContent{
			{
				Parts: []geminiPart{
					{Text: &prompt},
					{InlineData: &geminiInlineData{
						MIMEType: img.MIMEType,
						Data:     base64.StdEncoding.EncodeToString(img.Data),
					}},
				},
			},
		},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	endpoint := g.url
	if g.authMode != config.GeminiAuthBearer {
		endpoint += "?key=" + url.QueryEscape(g.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.authMode == config.GeminiAuthBearer {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		// url.Error embeds the request URL, which may carry the key.
		if urlErr, ok := err.(*url.Error); ok {
			err = urlErr.Err
		}
		return "", fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamStatusError{Provider: g.Name(), StatusCode: resp.StatusCode, Body: string(body)}
	}

	var response geminiResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return response.firstText()
}

// firstText returns the first text part of the first candidate.
func (r *geminiResponse) firstText() (string, error) {
	if len(r.Candidates) == 0 {
		return "", ErrNoCandidates
	}
	for _, part := range r.Candidates[0].Content.Parts {
		if part.Text != "" {
			return part.Text, nil
		}
	}
	return "", fmt.Errorf("%w: first candidate has no text part", ErrMalformedResponse)
}

// Gemini API types
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       *string           `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content      geminiResponseContent `json:"content"`
	FinishReason string                `json:"finishReason"`
}

type geminiResponseContent struct {
	Role  string               `json:"role"`
	Parts []geminiResponsePart `json:"parts"`
}

type geminiResponsePart struct {
	Text string `json:"text"`
}
