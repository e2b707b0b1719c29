package scrub

import (
	"context"
	"errors"
	"testing"
)

func TestPhoneValidator_EmptyIsCachedWithoutLookup(t *testing.T) {
	lookup := &countingLookup{}
	v := NewPhoneValidator(lookup, nil)

	for _, in := range []string{"", "   ", ""} {
		r := v.Validate(context.Background(), in)
		if r.Valid || r.Type != PhoneTypeMissing {
			t.Errorf("Validate(%q) = %+v, want missing", in, r)
		}
	}
	if len(lookup.calls) != 0 {
		t.Errorf("lookup called %d times, want 0", len(lookup.calls))
	}
	if v.Cache().Len() != 2 {
		t.Errorf("cache size = %d, want 2", v.Cache().Len())
	}
}

func TestPhoneValidator_ErrorCachedAsResult(t *testing.T) {
	lookup := &countingLookup{fail: map[string]error{"555": errors.New("HTTP error! status: 500")}}
	v := NewPhoneValidator(lookup, nil)

	first := v.Validate(context.Background(), "555")
	second := v.Validate(context.Background(), "555")

	if first.Valid || first.Type != PhoneTypeError || first.Error == "" {
		t.Errorf("Validate() = %+v, want error result", first)
	}
	if first != second {
		t.Errorf("cached result = %+v, want %+v", second, first)
	}
	if len(lookup.calls) != 1 {
		t.Errorf("lookup calls = %d, want 1", len(lookup.calls))
	}
	if v.Cache().Lookups() != 1 {
		t.Errorf("Lookups() = %d, want 1", v.Cache().Lookups())
	}
}

func TestPhoneValidator_RawKey(t *testing.T) {
	lookup := &countingLookup{}
	v := NewPhoneValidator(lookup, nil)

	v.Validate(context.Background(), "555-0100")
	v.Validate(context.Background(), "5550100")

	if len(lookup.calls) != 2 {
		t.Errorf("lookup calls = %d, want 2 for differently formatted numbers", len(lookup.calls))
	}
}
