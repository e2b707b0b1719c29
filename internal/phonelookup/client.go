package phonelookup

import (
	"context"
	"errors"

	"github.com/JonMunkholm/propscrub/internal/scrub"
)

// Client calls a remote /api/validatePhone endpoint. It is what the CLI
// uses when the credentials live on a server.
type Client struct {
	url  string
	http transport
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.ProxyURL == "" {
		return nil, errors.Join(ErrNotConfigured, errors.New("PHONE_LOOKUP_PROXY_URL is required"))
	}
	return &Client{
		url:  cfg.ProxyURL,
		http: newTransport("phone lookup proxy", cfg.Timeout, cfg.RequestsPerSecond),
	}, nil
}

// Lookup posts {"phone": ...}. Transport failures and non-2xx statuses are
// errors; the proxy's own error results are returned as results.
func (c *Client) Lookup(ctx context.Context, phone string) (scrub.PhoneResult, error) {
	var res scrub.PhoneResult
	if err := c.http.postJSON(ctx, c.url, map[string]string{"phone": phone}, &res); err != nil {
		return scrub.PhoneResult{}, err
	}
	return res, nil
}
