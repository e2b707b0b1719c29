package scrub

import (
	"regexp"
	"strings"
)

// headerSynonyms maps a lowercased source header to a canonical field.
var headerSynonyms = map[string]string{
	"fname":      FieldFirstName,
	"first":      FieldFirstName,
	"first name": FieldFirstName,
	"firstname":  FieldFirstName,
	"first_name": FieldFirstName,

	"lname":     FieldLastName,
	"last":      FieldLastName,
	"lastname":  FieldLastName,
	"last name": FieldLastName,
	"last_name": FieldLastName,

	"contact":      FieldContactType,
	"contact type": FieldContactType,
	"contact_type": FieldContactType,

	"address":          FieldPropertyAddress,
	"property address": FieldPropertyAddress,
	"property_address": FieldPropertyAddress,
	"street address":   FieldPropertyAddress,

	"deal":             FieldOpportunityName,
	"opportunity":      FieldOpportunityName,
	"opportunity name": FieldOpportunityName,
	"opportunity_name": FieldOpportunityName,
	"client_name":      FieldOpportunityName,
	"client name":      FieldOpportunityName,
	"name":             FieldOpportunityName,
	"full name":        FieldOpportunityName,

	"stage":    FieldStage,
	"pipeline": FieldPipeline,
	"tags":     FieldTags,
	"tag":      FieldTags,
}

var (
	phoneHints = []string{"phone", "mobile", "cell"}
	emailHints = []string{"email", "mail"}

	addressPartPattern = regexp.MustCompile(`(?i)address|street|city|state|zip`)
)

// AutoMapResult is a suggested mapping plus the number of fields it filled.
type AutoMapResult struct {
	Mapping Mapping `json:"mapping"`
	Mapped  int     `json:"mapped"`
}

// AutoMap suggests a mapping from detected headers. Targets are visited in
// schema order and each takes the first unused matching column, so a column
// is consumed at most once. If Property Address is still unmapped and more
// than one unused column looks like an address part, they are merged.
func AutoMap(headers []string, schema Schema) AutoMapResult {
	fields := schema.Fields()
	mapping := make(Mapping, len(fields))
	used := make(map[string]bool)
	mapped := 0

	phoneSlots := setOf(schema.PhoneFields())
	emailSlots := setOf(schema.EmailFields())

	for _, field := range fields {
		var match func(string) bool
		switch {
		case phoneSlots[field]:
			match = containsAny(phoneHints)
		case emailSlots[field]:
			match = containsAny(emailHints)
		default:
			target := field
			match = func(lower string) bool {
				return headerSynonyms[lower] == target || lower == strings.ToLower(target)
			}
		}

		col, ok := firstUnused(headers, used, match)
		if !ok {
			mapping[field] = Unmapped()
			continue
		}
		mapping[field] = Single(col)
		used[col] = true
		mapped++
	}

	if !mapping.IsMapped(FieldPropertyAddress) {
		var parts []string
		for _, h := range headers {
			if !used[h] && addressPartPattern.MatchString(h) {
				parts = append(parts, h)
			}
		}
		if len(parts) > 1 {
			mapping[FieldPropertyAddress] = Merge(parts...)
			mapped++
		}
	}

	return AutoMapResult{Mapping: mapping, Mapped: mapped}
}

func firstUnused(headers []string, used map[string]bool, match func(string) bool) (string, bool) {
	for _, h := range headers {
		if used[h] {
			continue
		}
		if match(strings.ToLower(strings.TrimSpace(h))) {
			return h, true
		}
	}
	return "", false
}

func containsAny(hints []string) func(string) bool {
	return func(lower string) bool {
		for _, hint := range hints {
			if strings.Contains(lower, hint) {
				return true
			}
		}
		return false
	}
}

func setOf(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}
