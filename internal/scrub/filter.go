package scrub

import "strings"

// FilterSettings holds the user's filter toggles and slot counts.
type FilterSettings struct {
	RemoveDuplicates   bool   `json:"removeDuplicates"`
	RemoveMissingPhone bool   `json:"removeMissingPhone"`
	RemoveInvalidEmail bool   `json:"removeInvalidEmail"`
	RemoveInvalidPhone bool   `json:"removeInvalidPhone"`
	NumberOfPhones     int    `json:"numberOfPhones"`
	NumberOfEmails     int    `json:"numberOfEmails"`
	MarketSearch       string `json:"marketSearch"`
}

// DefaultFilterSettings enables every toggle with one phone and one email slot.
func DefaultFilterSettings() FilterSettings {
	return FilterSettings{
		RemoveDuplicates:   true,
		RemoveMissingPhone: true,
		RemoveInvalidEmail: true,
		RemoveInvalidPhone: true,
		NumberOfPhones:     1,
		NumberOfEmails:     1,
	}
}

// Schema builds the canonical schema implied by the slot counts.
func (s FilterSettings) Schema(crm bool) (Schema, error) {
	return NewSchema(s.NumberOfPhones, s.NumberOfEmails, crm)
}

// MarketTerms splits a comma-separated search into trimmed, lowercased terms.
func MarketTerms(search string) []string {
	var terms []string
	for _, t := range strings.Split(search, ",") {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// Filter returns the rows that pass all active predicates, in original order.
func Filter(rows []CleanedRow, settings FilterSettings) []CleanedRow {
	terms := MarketTerms(settings.MarketSearch)
	out := make([]CleanedRow, 0, len(rows))
	for _, r := range rows {
		if keep(r, settings, terms) {
			out = append(out, r)
		}
	}
	return out
}

func keep(r CleanedRow, s FilterSettings, terms []string) bool {
	if s.RemoveDuplicates && r.DuplicateAddress {
		return false
	}
	if s.RemoveMissingPhone && r.MissingPhone {
		return false
	}
	if s.RemoveInvalidEmail && !r.EmailValid {
		return false
	}
	if s.RemoveInvalidPhone && !r.PhoneValid {
		return false
	}
	if len(terms) > 0 {
		addr := strings.ToLower(r.PropertyAddress)
		for _, t := range terms {
			if strings.Contains(addr, t) {
				return true
			}
		}
		return false
	}
	return true
}

// Stats summarizes a filter pass.
type Stats struct {
	Total    int `json:"total"`
	Showing  int `json:"showing"`
	Excluded int `json:"excluded"`

	Duplicates    int `json:"duplicates"`
	MissingPhones int `json:"missingPhones"`
	InvalidEmails int `json:"invalidEmails"`
	InvalidPhones int `json:"invalidPhones"`
}

// Summarize counts flags across all rows and the size of the filtered subset.
func Summarize(all, filtered []CleanedRow) Stats {
	st := Stats{Total: len(all), Showing: len(filtered), Excluded: len(all) - len(filtered)}
	for _, r := range all {
		if r.DuplicateAddress {
			st.Duplicates++
		}
		if r.MissingPhone {
			st.MissingPhones++
		}
		if !r.EmailValid {
			st.InvalidEmails++
		}
		if !r.PhoneValid {
			st.InvalidPhones++
		}
	}
	return st
}
