// Package scrub is the lead-cleaning engine: it maps arbitrary source columns
// onto a generated canonical schema, validates phones and emails, flags
// duplicate addresses, filters rows and renders CSV.
//
// Everything in this package is free of I/O except through the PhoneLookup
// interface, which callers supply.
package scrub

import (
	"errors"
	"fmt"
	"strconv"
)

// Canonical field names that do not depend on slot counts.
const (
	FieldFirstName       = "First Name"
	FieldLastName        = "Last Name"
	FieldPropertyAddress = "Property Address"
	FieldContactType     = "Contact Type"
	FieldOpportunityName = "Opportunity Name"
	FieldStage           = "Stage"
	FieldPipeline        = "Pipeline"
	FieldTags            = "Tags"

	// Derived flags as they appear at the UI boundary.
	FieldMissingPhone   = "Missing Phone"
	FieldDuplicatePhone = "Duplicate Phone"
	FieldPhoneValid     = "Phone Valid"
	FieldEmailValid     = "Email Valid"
)

// MinSlots and MaxSlots bound the number of phone and email slots.
const (
	MinSlots = 1
	MaxSlots = 5
)

// CRMFields lists the extra fields carried only when exporting to the CRM.
var CRMFields = []string{
	FieldContactType,
	FieldOpportunityName,
	FieldStage,
	FieldPipeline,
	FieldTags,
}

// Per-slot phone detail suffixes, in export order.
const (
	PhoneSuffixType    = "Type"
	PhoneSuffixCarrier = "Carrier"
	PhoneSuffixStatus  = "Status"
	PhoneSuffixPorted  = "Ported"
	PhoneSuffixRoaming = "Roaming"
)

var phoneDetailSuffixes = []string{
	PhoneSuffixType,
	PhoneSuffixCarrier,
	PhoneSuffixStatus,
	PhoneSuffixPorted,
	PhoneSuffixRoaming,
}

// ErrInvalidSlotCount is returned when a phone or email count is outside 1..5.
var ErrInvalidSlotCount = errors.New("slot count must be between 1 and 5")

// Schema is the canonical target shape for one import session.
type Schema struct {
	Phones    int
	Emails    int
	CRMFields bool
}

// NewSchema builds a schema, rejecting slot counts outside the allowed range.
func NewSchema(phones, emails int, crm bool) (Schema, error) {
	if phones < MinSlots || phones > MaxSlots {
		return Schema{}, fmt.Errorf("phones=%d: %w", phones, ErrInvalidSlotCount)
	}
	if emails < MinSlots || emails > MaxSlots {
		return Schema{}, fmt.Errorf("emails=%d: %w", emails, ErrInvalidSlotCount)
	}
	return Schema{Phones: phones, Emails: emails, CRMFields: crm}, nil
}

// PhoneField returns the name of phone slot i (1-based).
func (s Schema) PhoneField(i int) string {
	return slotName("Phone", s.Phones, i)
}

// EmailField returns the name of email slot i (1-based).
func (s Schema) EmailField(i int) string {
	return slotName("Email", s.Emails, i)
}

// PhoneFields returns every phone slot name in order.
func (s Schema) PhoneFields() []string {
	out := make([]string, 0, s.Phones)
	for i := 1; i <= s.Phones; i++ {
		out = append(out, s.PhoneField(i))
	}
	return out
}

// EmailFields returns every email slot name in order.
func (s Schema) EmailFields() []string {
	out := make([]string, 0, s.Emails)
	for i := 1; i <= s.Emails; i++ {
		out = append(out, s.EmailField(i))
	}
	return out
}

// Fields returns the ordered target field list for this schema.
func (s Schema) Fields() []string {
	fields := []string{FieldFirstName, FieldLastName}
	fields = append(fields, s.PhoneFields()...)
	fields = append(fields, s.EmailFields()...)
	fields = append(fields, FieldPropertyAddress)
	if s.CRMFields {
		fields = append(fields, CRMFields...)
	}
	return fields
}

// PhoneDetailField names a per-slot lookup column, e.g. "Phone 2 Carrier".
func PhoneDetailField(slot, suffix string) string {
	return slot + " " + suffix
}

// slotName applies the singular-when-one naming rule shared by phones and emails.
func slotName(base string, count, i int) string {
	if count == 1 {
		return base
	}
	return base + " " + strconv.Itoa(i)
}
