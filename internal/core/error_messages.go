package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Users can quote the code to support staff for faster diagnosis.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the upload size limit
//	          Action: Split the list into smaller files
//	          Patterns: "file too large"
//
//	FILE002 - Unsupported format: File type cannot be read
//	          Action: Upload a .csv or .xlsx file
//	          Patterns: "unsupported file format"
//
//	FILE003 - Invalid CSV: File could not be parsed
//	          Action: Ensure file is comma-separated with quoted fields
//	          Patterns: "parse csv"
//
//	FILE004 - No file: No file was selected
//	          Action: Please select a lead list to upload
//	          Patterns: "no file provided"
//
//	FILE005 - No header: File has no header row
//	          Action: Add a header line naming each column
//	          Patterns: "no header row"
//
//	FILE006 - Empty file: File has a header but no leads
//	          Action: Upload a file with at least one data row
//	          Patterns: "no rows to process"
//
// # Mapping Errors (MAP001-MAP099)
//
//	MAP001 - Slot count: Phone or email count out of range
//	         Action: Choose between 1 and 5 phones and emails
//	         Patterns: "slot count must be"
//
//	MAP002 - Frozen slots: Slot counts cannot change after scrubbing
//	         Action: Start over to change the number of phones or emails
//	         Patterns: "slot counts cannot change"
//
//	MAP003 - Template missing: Mapping template not found
//	         Patterns: "template not found"
//
//	MAP004 - Template exists: A template with this name already exists
//	         Patterns: "template already exists"
//
//	MAP005 - Unknown column: Mapping names a column the file does not have
//	         Patterns: "unknown column"
//
//	MAP006 - Name required: Template saved without a name
//	         Patterns: "name is required"
//
// # Scrub Errors (SCRUB001-SCRUB099)
//
//	SCRUB001 - Session expired: Import session not found
//	SCRUB002 - Already running: A scrub is already running for this list
//	SCRUB003 - Not scrubbed: The list has not been scrubbed yet
//	SCRUB004 - System busy: Too many scrubs in progress
//	SCRUB005 - Cancelled: The request or scrub was cancelled
//	SCRUB006 - Timeout: The request timed out
//	SCRUB007 - Unknown tier: Tier is neither basic nor prison
//
// # Balance Errors (BAL001-BAL099)
//
//	BAL001 - Insufficient balance: Not enough bubbles for this scrub
//	BAL002 - Unknown bundle: Purchase option does not exist
//
// # CRM Errors (CRM001-CRM099)
//
//	CRM001 - Not configured: GoHighLevel credentials missing
//	CRM002 - Unauthorized: GoHighLevel rejected the key
//	CRM003 - Rejected: GoHighLevel rejected the request
//	CRM004 - Unknown pipeline: Pipeline or stage does not exist
//
// # Phone Lookup Errors (LOOK001-LOOK099)
//
//	LOOK001 - Not configured: Prison tier needs a lookup provider
//	LOOK002 - Upstream: The carrier lookup service failed
//
// # Rate Limiting (RATE001) and Default (ERR000)
//
// Patterns are matched case-insensitively using strings.Contains and the
// first match wins, so more specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE006)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the upload size limit",
			Action:  "Split the list into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "This file type cannot be read",
			Action:  "Upload a .csv or .xlsx file",
			Code:    "FILE002",
		},
	},
	{
		pattern: "parse csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated with consistent quoting",
			Code:    "FILE003",
		},
	},
	{
		pattern: "open workbook",
		msg: UserMessage{
			Message: "Workbook could not be opened",
			Action:  "Re-save the workbook as .xlsx or export it as CSV",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a lead list to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "no header row",
		msg: UserMessage{
			Message: "File has no header row",
			Action:  "Add a header line naming each column",
			Code:    "FILE005",
		},
	},
	{
		pattern: "no rows to process",
		msg: UserMessage{
			Message: "File has no leads",
			Action:  "Upload a file with at least one data row",
			Code:    "FILE006",
		},
	},

	// =========================================================================
	// Mapping Errors (MAP001-MAP006)
	// =========================================================================
	{
		pattern: "slot count must be",
		msg: UserMessage{
			Message: "Phone and email counts must be between 1 and 5",
			Action:  "Choose between 1 and 5 phones and emails",
			Code:    "MAP001",
		},
	},
	{
		pattern: "slot counts cannot change",
		msg: UserMessage{
			Message: "Phone and email counts are fixed after scrubbing",
			Action:  "Start over to change the number of phones or emails",
			Code:    "MAP002",
		},
	},
	{
		pattern: "template not found",
		msg: UserMessage{
			Message: "Mapping template not found",
			Action:  "Refresh the template list",
			Code:    "MAP003",
		},
	},
	{
		pattern: "template already exists",
		msg: UserMessage{
			Message: "A template with this name already exists",
			Action:  "Choose a different template name",
			Code:    "MAP004",
		},
	},
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "The mapping uses a column that is not in this file",
			Action:  "Re-map the highlighted fields",
			Code:    "MAP005",
		},
	},
	{
		pattern: "name is required",
		msg: UserMessage{
			Message: "Template name is required",
			Action:  "Enter a name for the template",
			Code:    "MAP006",
		},
	},

	// =========================================================================
	// Scrub Errors (SCRUB001-SCRUB007)
	// =========================================================================
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Import session not found",
			Action:  "The session may have expired. Please upload the list again",
			Code:    "SCRUB001",
		},
	},
	{
		pattern: "scrub already running",
		msg: UserMessage{
			Message: "A scrub is already running for this list",
			Action:  "Wait for it to finish or cancel it",
			Code:    "SCRUB002",
		},
	},
	{
		pattern: "not been scrubbed",
		msg: UserMessage{
			Message: "This list has not been scrubbed yet",
			Action:  "Run a scrub before viewing or exporting results",
			Code:    "SCRUB003",
		},
	},
	{
		pattern: "too many scrubs",
		msg: UserMessage{
			Message: "System is busy processing other lists",
			Action:  "Please wait a moment and try again",
			Code:    "SCRUB004",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "SCRUB005",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller list or check your connection",
			Code:    "SCRUB006",
		},
	},
	{
		pattern: "unknown tier",
		msg: UserMessage{
			Message: "Unknown scrub tier",
			Action:  "Choose basic or prison",
			Code:    "SCRUB007",
		},
	},

	// =========================================================================
	// Balance Errors (BAL001-BAL002)
	// =========================================================================
	{
		pattern: "insufficient balance",
		msg: UserMessage{
			Message: "Not enough bubbles for this scrub",
			Action:  "Purchase more bubbles or bars of soap",
			Code:    "BAL001",
		},
	},
	{
		pattern: "unknown purchase option",
		msg: UserMessage{
			Message: "That bundle is not available",
			Action:  "Choose one of the listed bundles",
			Code:    "BAL002",
		},
	},

	// =========================================================================
	// CRM Errors (CRM001-CRM004)
	// =========================================================================
	{
		pattern: "gohighlevel credentials not configured",
		msg: UserMessage{
			Message: "GoHighLevel is not connected",
			Action:  "Set the private integration key and location id",
			Code:    "CRM001",
		},
	},
	{
		pattern: "ghl api error: 401",
		msg: UserMessage{
			Message: "GoHighLevel rejected the integration key",
			Action:  "Check the key has contacts and opportunities scopes",
			Code:    "CRM002",
		},
	},
	{
		pattern: "ghl api error",
		msg: UserMessage{
			Message: "GoHighLevel rejected the request",
			Action:  "Review the failed contacts and try again",
			Code:    "CRM003",
		},
	},
	{
		pattern: "unknown pipeline",
		msg: UserMessage{
			Message: "Pipeline or stage not found in GoHighLevel",
			Action:  "Reload CRM options and pick an existing pipeline",
			Code:    "CRM004",
		},
	},

	// =========================================================================
	// Phone Lookup Errors (LOOK001-LOOK002)
	// =========================================================================
	{
		pattern: "prison tier requires a phone lookup",
		msg: UserMessage{
			Message: "Prison scrub is not available",
			Action:  "Configure a phone lookup provider or use the basic tier",
			Code:    "LOOK001",
		},
	},
	{
		pattern: "phone lookup credentials not configured",
		msg: UserMessage{
			Message: "Prison scrub is not available",
			Action:  "Configure a phone lookup provider or use the basic tier",
			Code:    "LOOK001",
		},
	},
	{
		pattern: "lookup api error",
		msg: UserMessage{
			Message: "The carrier lookup service failed",
			Action:  "Please try again later",
			Code:    "LOOK002",
		},
	},
	{
		pattern: "lookup proxy api error",
		msg: UserMessage{
			Message: "The carrier lookup service failed",
			Action:  "Please try again later",
			Code:    "LOOK002",
		},
	},
	{
		pattern: "twilio api error",
		msg: UserMessage{
			Message: "The carrier lookup service failed",
			Action:  "Please try again later",
			Code:    "LOOK002",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, a generic fallback with code ERR000 is returned.
//
// Example:
//
//	msg := MapError(fmt.Errorf("deduct: %w", billing.ErrInsufficientBalance))
//	// msg.Code == "BAL001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a specific pattern rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps a technical error to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
