package scrub

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		wantValid      bool
		wantDisposable bool
		wantErr        string
	}{
		{name: "simple", input: "jo@test.com", wantValid: true},
		{name: "trimmed and lowercased", input: "  Jo.Smith@Example.COM ", wantValid: true},
		{name: "plus addressing", input: "a+b@sub.domain.org", wantValid: true},
		{name: "empty", input: "", wantErr: "Email is empty"},
		{name: "whitespace", input: "   ", wantErr: "Email is empty"},
		{name: "no at sign", input: "bad-email", wantErr: "Invalid email format"},
		{name: "two at signs", input: "a@b@c.com", wantErr: "Invalid email format"},
		{name: "domain starts with hyphen", input: "a@-b.com", wantErr: "Invalid email format"},
		{name: "too long", input: strings.Repeat("a", 250) + "@b.com", wantErr: "Email is too long"},
		{name: "local part too long", input: strings.Repeat("a", 65) + "@b.com", wantErr: "Email local part is too long"},
		{name: "disposable", input: "x@mailinator.com", wantValid: true, wantDisposable: true},
		{name: "disposable subdomain", input: "x@mx.yopmail.com", wantValid: true, wantDisposable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateEmail(tt.input)
			if got.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if got.IsDisposable != tt.wantDisposable {
				t.Errorf("IsDisposable = %v, want %v", got.IsDisposable, tt.wantDisposable)
			}
			if got.Error != tt.wantErr {
				t.Errorf("Error = %q, want %q", got.Error, tt.wantErr)
			}
		})
	}
}

func TestValidateEmails(t *testing.T) {
	got := ValidateEmails([]string{"a@b.com", "nope"})
	if !got["a@b.com"].Valid {
		t.Error("a@b.com should be valid")
	}
	if got["nope"].Valid {
		t.Error("nope should be invalid")
	}
}
