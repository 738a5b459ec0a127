package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/minhct/snapflow/internal/core/domain"
)

// HTTPProvider implements Provider against a capture service endpoint.
type HTTPProvider struct {
	name       string
	endpoint   string
	httpClient *http.Client
}

// NewHTTPProvider creates a new HTTP-based capture provider.
func NewHTTPProvider(name, endpoint string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		name:     name,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// GetName returns the provider's name.
func (p *HTTPProvider) GetName() string {
	return p.name
}

// Capture requests one artifact from the capture service.
func (p *HTTPProvider) Capture(ctx context.Context) (*domain.CaptureResult, error) {
	reqBody := map[string]any{"format": "png"}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("capture call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	var captureResp struct {
		Artifact    string   `json:"artifact"` // base64
		ContentType string   `json:"content_type"`
		Steps       []string `json:"steps"`
	}
	if err := json.Unmarshal(body, &captureResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(captureResp.Artifact)
	if err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}

	contentType := captureResp.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &domain.CaptureResult{
		Artifact: &domain.Artifact{Data: data, ContentType: contentType},
		Steps:    captureResp.Steps,
	}, nil
}

// Close cleans up resources.
func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
