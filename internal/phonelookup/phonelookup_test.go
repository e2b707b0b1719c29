package phonelookup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/propscrub/internal/scrub"
)

func hlrServer(t *testing.T, result map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req hlrRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "key", req.APIKey)
		assert.Equal(t, "secret", req.APISecret)
		require.Len(t, req.Requests, 1)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"body": map[string]any{"results": []any{result}},
		})
	}))
}

func TestHLR_Live(t *testing.T) {
	srv := hlrServer(t, map[string]any{
		"error":                    "NONE",
		"live_status":              "LIVE",
		"telephone_number_type":    "MOBILE",
		"is_ported":                "YES",
		"original_network":         "A",
		"current_network":          "B",
		"original_network_details": map[string]any{"name": "Sprint"},
		"current_network_details":  map[string]any{"name": "T-Mobile"},
	})
	defer srv.Close()

	h, err := NewHLR(Config{HLRURL: srv.URL, HLRKey: "key", HLRSecret: "secret"})
	require.NoError(t, err)

	got, err := h.Lookup(context.Background(), " +15551234567 ")
	require.NoError(t, err)

	assert.Equal(t, scrub.PhoneResult{
		Valid:           true,
		Type:            "mobile",
		Carrier:         "T-Mobile",
		LiveStatus:      "LIVE",
		IsPorted:        true,
		IsRoaming:       true,
		OriginalCarrier: "Sprint",
		CurrentCarrier:  "T-Mobile",
	}, got)
}

func TestHLR_NotRoamingWhenUnavailable(t *testing.T) {
	srv := hlrServer(t, map[string]any{
		"error":                    "NONE",
		"live_status":              "DEAD",
		"telephone_number_type":    "LANDLINE",
		"is_ported":                "NO",
		"original_network":         "A",
		"current_network":          "UNAVAILABLE",
		"original_network_details": map[string]any{"name": "AT&T"},
	})
	defer srv.Close()

	h, err := NewHLR(Config{HLRURL: srv.URL, HLRKey: "key", HLRSecret: "secret"})
	require.NoError(t, err)

	got, err := h.Lookup(context.Background(), "5551234567")
	require.NoError(t, err)

	assert.False(t, got.Valid)
	assert.False(t, got.IsRoaming)
	assert.Equal(t, "AT&T", got.Carrier)
	assert.Equal(t, "landline", got.Type)
}

func TestHLR_ProviderError(t *testing.T) {
	srv := hlrServer(t, map[string]any{"error": "INVALID_NUMBER"})
	defer srv.Close()

	h, err := NewHLR(Config{HLRURL: srv.URL, HLRKey: "key", HLRSecret: "secret"})
	require.NoError(t, err)

	got, err := h.Lookup(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, scrub.PhoneResult{Type: "invalid", LiveStatus: "ERROR", Error: "INVALID_NUMBER"}, got)
}

func TestHLR_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	h, err := NewHLR(Config{HLRURL: srv.URL, HLRKey: "key", HLRSecret: "secret"})
	require.NoError(t, err)

	_, err = h.Lookup(context.Background(), "123")
	var se *StatusError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, http.StatusBadGateway, se.Status)
}

func TestHLR_MissingCredentials(t *testing.T) {
	_, err := NewHLR(Config{})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestHLR_EmptyPhone(t *testing.T) {
	h, err := NewHLR(Config{HLRURL: "http://127.0.0.1:0", HLRKey: "key", HLRSecret: "secret"})
	require.NoError(t, err)

	got, err := h.Lookup(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, "missing", got.Type)
	assert.Equal(t, "MISSING", got.LiveStatus)
}

func TestTwilio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "tok", pass)
		assert.Equal(t, "line_type_intelligence", r.URL.Query().Get("Fields"))

		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"valid":true,"line_type_intelligence":{"type":"mobile","carrier_name":"Verizon"}}`))
	}))
	defer srv.Close()

	tw, err := NewTwilio(Config{TwilioURL: srv.URL, TwilioAccountSID: "AC123", TwilioAuthToken: "tok"})
	require.NoError(t, err)

	got, err := tw.Lookup(context.Background(), "+15551234567")
	require.NoError(t, err)
	assert.Equal(t, scrub.PhoneResult{Valid: true, Type: "mobile", Carrier: "Verizon"}, got)

	got, err = tw.Lookup(context.Background(), "bad")
	require.NoError(t, err)
	assert.False(t, got.Valid)
	assert.Equal(t, "invalid", got.Type)
}

func TestClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["phone"] == "500" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(scrub.PhoneResult{Valid: true, Type: "mobile", Carrier: "Acme", LiveStatus: "LIVE"})
	}))
	defer srv.Close()

	c, err := NewClient(Config{ProxyURL: srv.URL})
	require.NoError(t, err)

	got, err := c.Lookup(context.Background(), "555")
	require.NoError(t, err)
	assert.True(t, got.Valid)
	assert.Equal(t, "Acme", got.Carrier)

	_, err = c.Lookup(context.Background(), "500")
	assert.Error(t, err)
}

func TestClient_CachedThroughValidator(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(Config{ProxyURL: srv.URL})
	require.NoError(t, err)

	v := scrub.NewPhoneValidator(c, nil)
	first := v.Validate(context.Background(), "555")
	second := v.Validate(context.Background(), "555")

	assert.Equal(t, "error", first.Type)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}
