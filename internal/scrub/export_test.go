package scrub

import (
	"encoding/csv"
	"reflect"
	"strings"
	"testing"
)

func TestEscapeField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"", ""},
		{" leading space", " leading space"},
		{"a,b", `"a,b"`},
		{`a,"b"`, `"a,""b"""`},
		{"line\nbreak", "\"line\nbreak\""},
		{`say "hi"`, `"say ""hi"""`},
	}
	for _, tt := range tests {
		if got := EscapeField(tt.in); got != tt.want {
			t.Errorf("EscapeField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeField_RoundTrip(t *testing.T) {
	original := `a,"b"`
	r := csv.NewReader(strings.NewReader(EscapeField(original)))
	rec, err := r.Read()
	if err != nil {
		t.Fatalf("csv Read error = %v", err)
	}
	if rec[0] != original {
		t.Errorf("round trip = %q, want %q", rec[0], original)
	}
}

func TestExportFields(t *testing.T) {
	tests := []struct {
		name       string
		schema     Schema
		tier       Tier
		includeCRM bool
		want       []string
	}{
		{
			name:   "basic single slots",
			schema: Schema{Phones: 1, Emails: 1},
			tier:   TierBasic,
			want:   []string{"First Name", "Last Name", "Phone", "Email", "Property Address"},
		},
		{
			name:   "prison adds phone details",
			schema: Schema{Phones: 2, Emails: 1},
			tier:   TierPrison,
			want: []string{"First Name", "Last Name",
				"Phone 1", "Phone 1 Type", "Phone 1 Carrier",
				"Phone 2", "Phone 2 Type", "Phone 2 Carrier",
				"Email", "Property Address"},
		},
		{
			name:       "crm fields",
			schema:     Schema{Phones: 1, Emails: 2, CRMFields: true},
			tier:       TierBasic,
			includeCRM: true,
			want: []string{"First Name", "Last Name", "Phone", "Email 1", "Email 2", "Property Address",
				"Contact Type", "Opportunity Name", "Stage", "Pipeline", "Tags"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExportFields(tt.schema, tt.tier, tt.includeCRM); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExportFields() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToCSV(t *testing.T) {
	schema := Schema{Phones: 1, Emails: 1}
	rows := []CleanedRow{
		NewCleanedRow(Record{"First Name": "Jo", "Last Name": "Smith", "Phone": "555-1111",
			"Email": "jo@test.com", "Property Address": "1 Elm St, Austin"}, schema),
		NewCleanedRow(Record{"First Name": `Bo "B"`, "Phone": "555-2222"}, schema),
	}

	got := ToCSV(rows, schema, TierBasic, false)
	want := "First Name,Last Name,Phone,Email,Property Address\n" +
		"Jo,Smith,555-1111,jo@test.com,\"1 Elm St, Austin\"\n" +
		"\"Bo \"\"B\"\"\",,555-2222,,"

	if got != want {
		t.Errorf("ToCSV() =\n%s\nwant\n%s", got, want)
	}
}

func TestToCSV_PrisonDetails(t *testing.T) {
	schema := Schema{Phones: 1, Emails: 1}
	row := NewCleanedRow(Record{"Phone": "555"}, schema)
	row.Phones[0].Type = "mobile"
	row.Phones[0].Carrier = "Verizon, Inc"

	got := ToCSV([]CleanedRow{row}, schema, TierPrison, false)
	want := "First Name,Last Name,Phone,Phone Type,Phone Carrier,Email,Property Address\n" +
		",,555,mobile,\"Verizon, Inc\",,"
	if got != want {
		t.Errorf("ToCSV() =\n%s\nwant\n%s", got, want)
	}
}

func TestToCSV_NoRows(t *testing.T) {
	got := ToCSV(nil, Schema{Phones: 1, Emails: 1}, TierBasic, false)
	if got != "First Name,Last Name,Phone,Email,Property Address" {
		t.Errorf("ToCSV(nil) = %q", got)
	}
}
