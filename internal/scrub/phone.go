package scrub

import (
	"context"
	"strings"
)

// Phone result types that the pipeline treats specially.
const (
	PhoneTypeMissing = "missing"
	PhoneTypeError   = "error"
	PhoneTypeInvalid = "invalid"
)

// PhoneResult is the wire shape returned by the phone lookup service.
type PhoneResult struct {
	Valid           bool   `json:"valid"`
	Type            string `json:"type"`
	Carrier         string `json:"carrier,omitempty"`
	LiveStatus      string `json:"liveStatus,omitempty"`
	IsPorted        bool   `json:"isPorted,omitempty"`
	IsRoaming       bool   `json:"isRoaming,omitempty"`
	OriginalCarrier string `json:"originalCarrier,omitempty"`
	CurrentCarrier  string `json:"currentCarrier,omitempty"`
	Error           string `json:"error,omitempty"`
}

// PhoneLookup checks a single phone number against an external service.
// Implementations return an error for transport or non-2xx failures.
type PhoneLookup interface {
	Lookup(ctx context.Context, phone string) (PhoneResult, error)
}

// PhoneLookupFunc adapts a function to PhoneLookup.
type PhoneLookupFunc func(ctx context.Context, phone string) (PhoneResult, error)

func (f PhoneLookupFunc) Lookup(ctx context.Context, phone string) (PhoneResult, error) {
	return f(ctx, phone)
}

// PhoneCache memoizes results by the exact raw phone string for one pass.
// It is not safe for concurrent use.
type PhoneCache struct {
	results map[string]PhoneResult
	lookups int
}

func NewPhoneCache() *PhoneCache {
	return &PhoneCache{results: make(map[string]PhoneResult)}
}

func (c *PhoneCache) Get(phone string) (PhoneResult, bool) {
	r, ok := c.results[phone]
	return r, ok
}

func (c *PhoneCache) Put(phone string, r PhoneResult) {
	c.results[phone] = r
}

func (c *PhoneCache) Len() int { return len(c.results) }

// Lookups is the number of external calls made through this cache.
func (c *PhoneCache) Lookups() int { return c.lookups }

// PhoneValidator wraps a PhoneLookup with a PhoneCache.
type PhoneValidator struct {
	lookup PhoneLookup
	cache  *PhoneCache
}

func NewPhoneValidator(lookup PhoneLookup, cache *PhoneCache) *PhoneValidator {
	if cache == nil {
		cache = NewPhoneCache()
	}
	return &PhoneValidator{lookup: lookup, cache: cache}
}

func (v *PhoneValidator) Cache() *PhoneCache { return v.cache }

// Validate returns the cached result for phone or performs one lookup.
// Blank input and lookup failures become results, never errors, and are
// cached like any other outcome.
func (v *PhoneValidator) Validate(ctx context.Context, phone string) PhoneResult {
	if r, ok := v.cache.Get(phone); ok {
		return r
	}

	if strings.TrimSpace(phone) == "" {
		r := PhoneResult{Type: PhoneTypeMissing}
		v.cache.Put(phone, r)
		return r
	}

	v.cache.lookups++
	r, err := v.lookup.Lookup(ctx, phone)
	if err != nil {
		r = PhoneResult{Type: PhoneTypeError, Error: err.Error()}
	}
	v.cache.Put(phone, r)
	return r
}
