package scrub

import (
	"reflect"
	"testing"
)

func sampleRows() []CleanedRow {
	return []CleanedRow{
		{FirstName: "A", PropertyAddress: "1 Elm St, Austin, TX 78701", PhoneValid: true, EmailValid: true},
		{FirstName: "B", PropertyAddress: "1 elm st, austin, tx 78701", PhoneValid: true, EmailValid: true, DuplicateAddress: true},
		{FirstName: "C", PropertyAddress: "9 Pine Rd, Dallas, TX 75201", MissingPhone: true, EmailValid: true},
		{FirstName: "D", PropertyAddress: "4 Bay Ct, Tampa, FL 33601", PhoneValid: true, EmailValid: false},
		{FirstName: "E", PropertyAddress: "", PhoneValid: false, EmailValid: true},
	}
}

func names(rows []CleanedRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.FirstName
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		settings FilterSettings
		want     []string
	}{
		{
			name:     "nothing enabled keeps all",
			settings: FilterSettings{},
			want:     []string{"A", "B", "C", "D", "E"},
		},
		{
			name:     "duplicates",
			settings: FilterSettings{RemoveDuplicates: true},
			want:     []string{"A", "C", "D", "E"},
		},
		{
			name:     "missing phone",
			settings: FilterSettings{RemoveMissingPhone: true},
			want:     []string{"A", "B", "D", "E"},
		},
		{
			name:     "invalid email",
			settings: FilterSettings{RemoveInvalidEmail: true},
			want:     []string{"A", "B", "C", "E"},
		},
		{
			name:     "invalid phone",
			settings: FilterSettings{RemoveInvalidPhone: true},
			want:     []string{"A", "B", "D"},
		},
		{
			name:     "all toggles",
			settings: DefaultFilterSettings(),
			want:     []string{"A"},
		},
		{
			name:     "market search any term case insensitive",
			settings: FilterSettings{MarketSearch: " AUSTIN , 33601,, "},
			want:     []string{"A", "B", "D"},
		},
		{
			name:     "market search blank is ignored",
			settings: FilterSettings{MarketSearch: " , "},
			want:     []string{"A", "B", "C", "D", "E"},
		},
		{
			name:     "market search combined with toggles",
			settings: FilterSettings{MarketSearch: "tx", RemoveDuplicates: true},
			want:     []string{"A", "C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(Filter(sampleRows(), tt.settings))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_Idempotent(t *testing.T) {
	settings := FilterSettings{RemoveDuplicates: true, RemoveInvalidPhone: true, MarketSearch: "tx"}
	once := Filter(sampleRows(), settings)
	twice := Filter(once, settings)
	if !reflect.DeepEqual(names(once), names(twice)) {
		t.Errorf("second pass = %v, want %v", names(twice), names(once))
	}
}

func TestSummarize(t *testing.T) {
	all := sampleRows()
	filtered := Filter(all, DefaultFilterSettings())
	st := Summarize(all, filtered)

	want := Stats{Total: 5, Showing: 1, Excluded: 4, Duplicates: 1, MissingPhones: 1, InvalidEmails: 1, InvalidPhones: 2}
	if st != want {
		t.Errorf("Summarize() = %+v, want %+v", st, want)
	}
}
