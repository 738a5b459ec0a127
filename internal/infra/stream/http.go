package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/minhct/snapflow/internal/core/domain"
)

// HTTPProvider implements Provider against a stream service.
type HTTPProvider struct {
	name       string
	endpoint   string
	httpClient *http.Client
}

// NewHTTPProvider creates a new HTTP-based stream provider.
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

// Acquire obtains a live stream handle from the service.
func (p *HTTPProvider) Acquire(ctx context.Context) (*domain.StreamHandle, error) {
	var h domain.StreamHandle
	if err := p.post(ctx, p.endpoint+"/acquire", map[string]any{}, &h); err != nil {
		return nil, err
	}
	if h.ID == "" {
		return nil, fmt.Errorf("stream service returned no handle")
	}
	return &h, nil
}

// Clone duplicates the stream; the service attaches its listeners to the
// returned handle.
func (p *HTTPProvider) Clone(ctx context.Context, h *domain.StreamHandle) (*domain.StreamHandle, error) {
	if h == nil || h.ID == "" {
		return nil, fmt.Errorf("clone requires an acquired handle")
	}
	var clone domain.StreamHandle
	if err := p.post(ctx, p.endpoint+"/clone", map[string]any{"id": h.ID}, &clone); err != nil {
		return nil, err
	}
	if clone.ID == "" {
		return nil, fmt.Errorf("stream service returned no clone handle")
	}
	return &clone, nil
}

func (p *HTTPProvider) post(ctx context.Context, url string, reqBody map[string]any, out any) error {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stream call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// Close cleans up resources.
func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
