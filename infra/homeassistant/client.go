// Package homeassistant implements the Home Assistant REST client used to
// read robot telemetry and send service calls.
package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/oauth2"

	coreha "github.com/kilianp07/homemind/core/homeassistant"
	"github.com/kilianp07/homemind/infra/logger"
)

const maxErrorBody = 512

// Client talks to the Home Assistant REST API with a long-lived access token.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
	log     logger.Logger
}

var _ coreha.API = (*Client)(nil)

// NewClient builds a client authenticated with cfg.Token as bearer token.
func NewClient(cfg Config, log logger.Logger) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	base := &http.Client{Timeout: cfg.RequestTimeout()}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
	return &Client{
		base:    strings.TrimSuffix(cfg.URL, "/"),
		http:    oauth2.NewClient(ctx, src),
		timeout: cfg.RequestTimeout(),
		log:     log,
	}, nil
}

// GetState reads the current state of an entity. States are never cached.
func (c *Client) GetState(ctx context.Context, entityID string) (coreha.Entity, error) {
	op := "get state " + entityID
	body, err := c.do(ctx, http.MethodGet, "/api/states/"+url.PathEscape(entityID), nil, op)
	if err != nil {
		return coreha.Entity{}, err
	}
	var ent coreha.Entity
	if err := json.Unmarshal(body, &ent); err != nil {
		return coreha.Entity{}, fmt.Errorf("%s: %w: %v", op, coreha.ErrMalformedResponse, err)
	}
	if ent.EntityID == "" && ent.State == "" {
		return coreha.Entity{}, fmt.Errorf("%s: %w: missing state", op, coreha.ErrMalformedResponse)
	}
	return ent, nil
}

// CallService posts data to /api/services/{domain}/{service}.
func (c *Client) CallService(ctx context.Context, domain, service string, data map[string]any) error {
	op := domain + "/" + service
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%s: encode body: %w", op, err)
	}
	path := "/api/services/" + url.PathEscape(domain) + "/" + url.PathEscape(service)
	if _, err := c.do(ctx, http.MethodPost, path, payload, op); err != nil {
		return err
	}
	c.log.Debugw("service called", map[string]any{"service": op, "data": data})
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, op string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := truncate(strings.TrimSpace(string(data)), maxErrorBody)
		return nil, &coreha.StatusError{Op: op, StatusCode: resp.StatusCode, Body: snippet}
	}
	return data, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
