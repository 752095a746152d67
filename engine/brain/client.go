// Package brain is the HTTP client for the memory service. All three
// exchanges share one pooled transport with a bounded total timeout so a
// hung memory service cannot stall the request pipeline.
package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/shodh-ai/cortex/pkg/config"
)

const dialTimeout = 5 * time.Second

// Client talks to the memory service.
type Client struct {
	http *resty.Client
}

// NewClient builds a client from the brain configuration.
func NewClient(cfg *config.BrainConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-API-Key", cfg.APIKey.Value())
	client.SetTransport(&http.Transport{
		DialContext:         (&net.Dialer{Timeout: dialTimeout}).DialContext,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
	})
	return &Client{http: client}
}

// Activate queries the memory service for memories relevant to the current
// exchange. Transport errors, non-success statuses, and malformed bodies
// all return an error; the caller maps that to an empty result plus a
// circuit-breaker failure.
func (c *Client) Activate(ctx context.Context, req *ProactiveContextRequest) (*ProactiveContextResponse, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(req).Post("/api/proactive_context")
	if err != nil {
		return nil, fmt.Errorf("activation request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("activation returned status %d", resp.StatusCode())
	}
	var out ProactiveContextResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("failed to parse activation response: %w", err)
	}
	return &out, nil
}

// Remember stores a completed interaction as a new memory.
func (c *Client) Remember(ctx context.Context, req *RememberRequest) (*RememberResponse, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(req).Post("/api/remember")
	if err != nil {
		return nil, fmt.Errorf("remember request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("remember returned status %d", resp.StatusCode())
	}
	var out RememberResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("failed to parse remember response: %w", err)
	}
	return &out, nil
}

// Reinforce signals whether previously surfaced memories were helpful.
func (c *Client) Reinforce(ctx context.Context, req *ReinforceRequest) (*ReinforceResponse, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(req).Post("/api/reinforce")
	if err != nil {
		return nil, fmt.Errorf("reinforce request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("reinforce returned status %d", resp.StatusCode())
	}
	var out ReinforceResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("failed to parse reinforce response: %w", err)
	}
	return &out, nil
}
