package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Ananth-NQI/evebot-backend/internal/config"
	"github.com/ollama/ollama/api"
)

// OllamaProvider sends the image to a local multimodal model such as llava.
type OllamaProvider struct {
	client *api.Client
	model  string
}

func NewOllamaProvider(cfg config.OllamaConfig, httpClient *http.Client) (*OllamaProvider, error) {
	base, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_HOST %q: %w", cfg.Host, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OllamaProvider{
		client: api.NewClient(base, httpClient),
		model:  cfg.Model,
	}, nil
}

func (o *OllamaProvider) Name() string {
	return "Ollama"
}

func (o *OllamaProvider) Model() string {
	return o.model
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, img *Image) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Images: []api.ImageData{img.Data},
		Stream: &stream,
	}

	var sb strings.Builder
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			body := statusErr.ErrorMessage
			if body == "" {
				body = statusErr.Status
			}
			return "", &UpstreamStatusError{Provider: o.Name(), StatusCode: statusErr.StatusCode, Body: body}
		}
		return "", fmt.Errorf("error making request: %w", err)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrNoCandidates
	}
	return text, nil
}
