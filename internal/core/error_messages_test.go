package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/propscrub/internal/billing"
	"github.com/JonMunkholm/propscrub/internal/crm"
	"github.com/JonMunkholm/propscrub/internal/importer"
	"github.com/JonMunkholm/propscrub/internal/scrub"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "file too large",
			err:         fmt.Errorf("leads.csv: %w", ErrFileTooLarge),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the upload size limit",
		},
		{
			name:        "legacy workbook",
			err:         fmt.Errorf("old.xls: legacy .xls workbooks: %w", importer.ErrUnsupportedFormat),
			wantCode:    "FILE002",
			wantMessage: "This file type cannot be read",
		},
		{
			name:        "header only file",
			err:         fmt.Errorf("import: %w", scrub.ErrEmptyInput),
			wantCode:    "FILE006",
			wantMessage: "File has no leads",
		},
		{
			name:        "slot count out of range",
			err:         scrub.ErrInvalidSlotCount,
			wantCode:    "MAP001",
			wantMessage: "Phone and email counts must be between 1 and 5",
		},
		{
			name:        "session expired",
			err:         fmt.Errorf("abc: %w", ErrSessionNotFound),
			wantCode:    "SCRUB001",
			wantMessage: "Import session not found",
		},
		{
			name:        "limiter full",
			err:         ErrTooManyScrubs,
			wantCode:    "SCRUB004",
			wantMessage: "System is busy processing other lists",
		},
		{
			name:        "insufficient balance",
			err:         fmt.Errorf("scrub 120 records: %w", billing.ErrInsufficientBalance),
			wantCode:    "BAL001",
			wantMessage: "Not enough bubbles for this scrub",
		},
		{
			name:        "crm unauthorized before generic crm",
			err:         &crm.APIError{Status: 401, Body: "Invalid JWT"},
			wantCode:    "CRM002",
			wantMessage: "GoHighLevel rejected the integration key",
		},
		{
			name:        "crm rejected",
			err:         &crm.APIError{Status: 422, Body: "bad phone"},
			wantCode:    "CRM003",
			wantMessage: "GoHighLevel rejected the request",
		},
		{
			name:        "prison without lookup",
			err:         scrub.ErrNoPhoneLookup,
			wantCode:    "LOOK001",
			wantMessage: "Prison scrub is not available",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("SESSION NOT FOUND"),
			wantCode:    "SCRUB001",
			wantMessage: "Import session not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(billing.ErrInsufficientBalance)

	expected := "Not enough bubbles for this scrub (Code: BAL001). Purchase more bubbles or bars of soap"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrScrubRunning, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("export: %w", ErrNotScrubbed)
		userErr := NewUserError(techErr)

		if userErr.Error() != "This list has not been scrubbed yet" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, ErrNotScrubbed) {
			t.Error("Unwrap() should return original error")
		}
	})
}
