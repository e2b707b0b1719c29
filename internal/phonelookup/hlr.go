package phonelookup

import (
	"context"
	"errors"
	"strings"

	"github.com/JonMunkholm/propscrub/internal/scrub"
)

// DefaultHLRURL is the HLR Lookup v2 endpoint.
const DefaultHLRURL = "https://api.hlrlookup.com/apiv2/hlr"

type hlrRequest struct {
	APIKey    string          `json:"api_key"`
	APISecret string          `json:"api_secret"`
	Requests  []hlrRequestRow `json:"requests"`
}

type hlrRequestRow struct {
	TelephoneNumber string `json:"telephone_number"`
}

type hlrNetwork struct {
	Name string `json:"name"`
}

type hlrResult struct {
	Error                  string      `json:"error"`
	LiveStatus             string      `json:"live_status"`
	TelephoneNumberType    string      `json:"telephone_number_type"`
	IsPorted               string      `json:"is_ported"`
	OriginalNetwork        string      `json:"original_network"`
	CurrentNetwork         string      `json:"current_network"`
	OriginalNetworkDetails *hlrNetwork `json:"original_network_details"`
	CurrentNetworkDetails  *hlrNetwork `json:"current_network_details"`
}

type hlrResponse struct {
	Body struct {
		Results []hlrResult `json:"results"`
	} `json:"body"`
}

// HLR queries HLR Lookup for live status, line type and carrier.
type HLR struct {
	url    string
	key    string
	secret string
	http   transport
}

func NewHLR(cfg Config) (*HLR, error) {
	if cfg.HLRKey == "" || cfg.HLRSecret == "" {
		return nil, errors.Join(ErrNotConfigured, errors.New("HLRLOOKUP_API_KEY and HLRLOOKUP_API_SECRET are required"))
	}
	url := cfg.HLRURL
	if url == "" {
		url = DefaultHLRURL
	}
	return &HLR{
		url:    url,
		key:    cfg.HLRKey,
		secret: cfg.HLRSecret,
		http:   newTransport("HLRLookup", cfg.Timeout, cfg.RequestsPerSecond),
	}, nil
}

// Lookup returns an invalid result when HLR reports a per-number error and
// an error only for transport failures or malformed responses.
func (h *HLR) Lookup(ctx context.Context, phone string) (scrub.PhoneResult, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return Missing("Phone number is empty"), nil
	}

	req := hlrRequest{
		APIKey:    h.key,
		APISecret: h.secret,
		Requests:  []hlrRequestRow{{TelephoneNumber: phone}},
	}
	var resp hlrResponse
	if err := h.http.postJSON(ctx, h.url, req, &resp); err != nil {
		return scrub.PhoneResult{}, err
	}
	if len(resp.Body.Results) == 0 {
		return scrub.PhoneResult{}, errors.New("invalid response from HLRLookup API")
	}

	return mapHLRResult(resp.Body.Results[0]), nil
}

func mapHLRResult(r hlrResult) scrub.PhoneResult {
	if r.Error != "NONE" {
		return scrub.PhoneResult{
			Type:       scrub.PhoneTypeInvalid,
			LiveStatus: scrub.StatusError,
			Error:      r.Error,
		}
	}

	current := networkName(r.CurrentNetworkDetails)
	original := networkName(r.OriginalNetworkDetails)

	carrier := current
	if carrier == "" {
		carrier = original
	}
	if carrier == "" {
		carrier = scrub.DetailUnknown
	}

	lineType := strings.ToLower(r.TelephoneNumberType)
	if lineType == "" {
		lineType = scrub.DetailUnknown
	}

	res := scrub.PhoneResult{
		Valid:           r.LiveStatus == "LIVE",
		Type:            lineType,
		Carrier:         carrier,
		LiveStatus:      r.LiveStatus,
		IsPorted:        r.IsPorted == "YES",
		IsRoaming:       r.CurrentNetwork != r.OriginalNetwork && r.CurrentNetwork != "UNAVAILABLE",
		OriginalCarrier: original,
		CurrentCarrier:  current,
	}
	if res.OriginalCarrier == "" {
		res.OriginalCarrier = scrub.DetailUnknown
	}
	if res.CurrentCarrier == "" {
		res.CurrentCarrier = carrier
	}
	return res
}

func networkName(n *hlrNetwork) string {
	if n == nil {
		return ""
	}
	return n.Name
}
