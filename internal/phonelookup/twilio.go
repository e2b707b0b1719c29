package phonelookup

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/JonMunkholm/propscrub/internal/scrub"
)

// DefaultTwilioURL is the Lookup v2 base.
const DefaultTwilioURL = "https://lookups.twilio.com/v2/PhoneNumbers"

type twilioResponse struct {
	Valid                *bool `json:"valid"`
	LineTypeIntelligence *struct {
		Type        string `json:"type"`
		CarrierName string `json:"carrier_name"`
	} `json:"line_type_intelligence"`
}

// Twilio uses Lookup v2 line type intelligence. It cannot report live
// status, so every number Twilio recognises is valid.
type Twilio struct {
	baseURL string
	sid     string
	token   string
	http    transport
}

func NewTwilio(cfg Config) (*Twilio, error) {
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" {
		return nil, errors.Join(ErrNotConfigured, errors.New("TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN are required"))
	}
	base := cfg.TwilioURL
	if base == "" {
		base = DefaultTwilioURL
	}
	return &Twilio{
		baseURL: strings.TrimRight(base, "/"),
		sid:     cfg.TwilioAccountSID,
		token:   cfg.TwilioAuthToken,
		http:    newTransport("Twilio", cfg.Timeout, cfg.RequestsPerSecond),
	}, nil
}

func (t *Twilio) Lookup(ctx context.Context, phone string) (scrub.PhoneResult, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return Missing("Phone number is empty"), nil
	}

	u := t.baseURL + "/" + url.PathEscape(phone) + "?Fields=line_type_intelligence"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return scrub.PhoneResult{}, err
	}
	req.SetBasicAuth(t.sid, t.token)

	var resp twilioResponse
	if err := t.http.do(req, &resp); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return scrub.PhoneResult{Type: scrub.PhoneTypeInvalid, Error: "Invalid phone number format"}, nil
		}
		return scrub.PhoneResult{}, err
	}

	if resp.Valid != nil && !*resp.Valid {
		return scrub.PhoneResult{Type: scrub.PhoneTypeInvalid, Error: "Invalid phone number format"}, nil
	}

	res := scrub.PhoneResult{Valid: true, Type: scrub.DetailUnknown, Carrier: scrub.DetailUnknown}
	if lti := resp.LineTypeIntelligence; lti != nil {
		if lti.Type != "" {
			res.Type = lti.Type
		}
		if lti.CarrierName != "" {
			res.Carrier = lti.CarrierName
		}
	}
	return res, nil
}
