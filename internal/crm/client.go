// Package crm pushes cleaned leads into GoHighLevel.
//
// Client wraps the LeadConnector REST API (contacts, opportunities,
// pipelines, tags and custom fields). Exporter walks cleaned rows
// sequentially and upserts each one, logging failures and moving on.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL    = "https://services.leadconnectorhq.com"
	DefaultAPIVersion = "2021-07-28"
)

// ErrNotConfigured is returned when the private key or location is missing.
var ErrNotConfigured = errors.New("GoHighLevel credentials not configured")

// APIError is a non-2xx response from GoHighLevel.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GHL API Error: %d - %s", e.Status, e.Body)
}

// Config holds connection settings for a single location.
type Config struct {
	BaseURL           string
	PrivateKey        string
	LocationID        string
	APIVersion        string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client is a GoHighLevel API client scoped to one location.
type Client struct {
	baseURL    string
	key        string
	locationID string
	version    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.PrivateKey == "" || cfg.LocationID == "" {
		return nil, errors.Join(ErrNotConfigured, errors.New("GHL_PRIVATE_KEY and GHL_LOCATION_ID are required"))
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		key:        cfg.PrivateKey,
		locationID: cfg.LocationID,
		version:    cfg.APIVersion,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}, nil
}

func (c *Client) LocationID() string { return c.locationID }

// request sends an authenticated JSON request and decodes the response into
// out when out is non-nil. An empty response body leaves out untouched.
func (c *Client) request(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Version", c.version)

	slog.Debug("ghl request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
