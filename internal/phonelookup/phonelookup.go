// Package phonelookup implements scrub.PhoneLookup against carrier
// intelligence services: HLR Lookup, Twilio Lookup v2, or a remote proxy
// that exposes the /api/validatePhone contract.
package phonelookup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/JonMunkholm/propscrub/internal/scrub"
)

// Provider names accepted by New.
const (
	ProviderHLR    = "hlr"
	ProviderTwilio = "twilio"
	ProviderProxy  = "proxy"
)

var (
	// ErrNotConfigured is returned when a provider lacks credentials.
	ErrNotConfigured = errors.New("phone lookup credentials not configured")
)

// StatusError is a non-2xx response from an upstream service.
type StatusError struct {
	Service string
	Status  int
	Body    string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s API error: %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s API error: %d: %s", e.Service, e.Status, e.Body)
}

// Config selects and configures a provider.
type Config struct {
	Provider string

	HLRURL    string
	HLRKey    string
	HLRSecret string

	TwilioURL        string
	TwilioAccountSID string
	TwilioAuthToken  string

	ProxyURL string

	Timeout           time.Duration
	RequestsPerSecond float64
}

// New builds the configured provider.
func New(cfg Config) (scrub.PhoneLookup, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderHLR, "":
		return NewHLR(cfg)
	case ProviderTwilio:
		return NewTwilio(cfg)
	case ProviderProxy:
		return NewClient(cfg)
	default:
		return nil, fmt.Errorf("unknown phone lookup provider %q", cfg.Provider)
	}
}

// transport is the rate-limited HTTP plumbing shared by providers.
type transport struct {
	service    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func newTransport(service string, timeout time.Duration, rps float64) transport {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return transport{
		service:    service,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// do sends req after waiting on the limiter. Non-2xx statuses are returned
// as *StatusError with the response body for diagnostics.
func (t transport) do(req *http.Request, out any) error {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return fmt.Errorf("%s rate limit: %w", t.service, err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", t.service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s read response: %w", t.service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Service: t.service, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s decode response: %w", t.service, err)
	}
	return nil
}

func (t transport) postJSON(ctx context.Context, url string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s encode request: %w", t.service, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s build request: %w", t.service, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return t.do(req, out)
}

// Missing is the result for a blank phone.
func Missing(msg string) scrub.PhoneResult {
	return scrub.PhoneResult{Type: scrub.PhoneTypeMissing, LiveStatus: "MISSING", Error: msg}
}

// Failed is the result reported to clients when a lookup errors.
func Failed(err error) scrub.PhoneResult {
	return scrub.PhoneResult{Type: scrub.PhoneTypeError, LiveStatus: scrub.StatusError, Error: err.Error()}
}
