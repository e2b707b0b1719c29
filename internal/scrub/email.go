package scrub

import (
	"regexp"
	"strings"
)

const (
	maxEmailLength     = 254
	maxEmailLocalBytes = 64
)

// Practical RFC 5322 approximation.
var emailPattern = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

// DisposableDomains are flagged but never invalidate an address.
var DisposableDomains = []string{
	"tempmail.com",
	"throwaway.email",
	"10minutemail.com",
	"guerrillamail.com",
	"mailinator.com",
	"trashmail.com",
	"yopmail.com",
	"temp-mail.org",
}

// EmailResult is the outcome of ValidateEmail.
type EmailResult struct {
	Valid        bool   `json:"valid"`
	IsDisposable bool   `json:"isDisposable,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ValidateEmail checks syntax and length limits after trimming and lowercasing.
func ValidateEmail(email string) EmailResult {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return EmailResult{Error: "Email is empty"}
	}
	if len(e) > maxEmailLength {
		return EmailResult{Error: "Email is too long"}
	}
	if !emailPattern.MatchString(e) {
		return EmailResult{Error: "Invalid email format"}
	}

	local, domain, _ := strings.Cut(e, "@")
	if len(local) > maxEmailLocalBytes {
		return EmailResult{Error: "Email local part is too long"}
	}

	return EmailResult{Valid: true, IsDisposable: isDisposable(domain)}
}

// ValidateEmails validates a batch, keyed by the input string.
func ValidateEmails(emails []string) map[string]EmailResult {
	out := make(map[string]EmailResult, len(emails))
	for _, e := range emails {
		out[e] = ValidateEmail(e)
	}
	return out
}

func isDisposable(domain string) bool {
	for _, d := range DisposableDomains {
		if strings.HasSuffix(domain, d) {
			return true
		}
	}
	return false
}
