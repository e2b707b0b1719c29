package scrub

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewSchema_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		phones  int
		emails  int
		wantErr bool
	}{
		{"minimum", 1, 1, false},
		{"maximum", 5, 5, false},
		{"zero phones", 0, 1, true},
		{"six emails", 1, 6, true},
		{"negative", -1, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.phones, tt.emails, false)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSchema(%d, %d) error = %v, wantErr %v", tt.phones, tt.emails, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSlotCount) {
				t.Errorf("error = %v, want ErrInvalidSlotCount", err)
			}
		})
	}
}

func TestSchema_Fields(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
		want   []string
	}{
		{
			name:   "single slots use bare names",
			schema: Schema{Phones: 1, Emails: 1},
			want:   []string{"First Name", "Last Name", "Phone", "Email", "Property Address"},
		},
		{
			name:   "multiple slots are numbered from one",
			schema: Schema{Phones: 2, Emails: 3},
			want: []string{"First Name", "Last Name", "Phone 1", "Phone 2",
				"Email 1", "Email 2", "Email 3", "Property Address"},
		},
		{
			name:   "crm fields appended",
			schema: Schema{Phones: 1, Emails: 2, CRMFields: true},
			want: []string{"First Name", "Last Name", "Phone", "Email 1", "Email 2", "Property Address",
				"Contact Type", "Opportunity Name", "Stage", "Pipeline", "Tags"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.schema.Fields(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Fields() = %v, want %v", got, tt.want)
			}
		})
	}
}
