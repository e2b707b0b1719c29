package core

import (
	"time"

	"github.com/JonMunkholm/propscrub/internal/billing"
	"github.com/JonMunkholm/propscrub/internal/scrub"
)

// Phase is where a session is in its lifecycle.
type Phase string

const (
	PhaseImported  Phase = "imported"
	PhaseScrubbing Phase = "scrubbing"
	PhaseComplete  Phase = "complete"
	PhaseFailed    Phase = "failed"
	PhaseCancelled Phase = "cancelled"
)

// Terminal reports whether the phase ends a scrub.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailed || p == PhaseCancelled
}

// ImportSummary is returned after a file is parsed into a new session.
type ImportSummary struct {
	SessionID  string               `json:"sessionId"`
	FileName   string               `json:"fileName"`
	Format     string               `json:"format"`
	Encoding   string               `json:"encoding,omitempty"`
	Headers    []string             `json:"headers"`
	RowCount   int                  `json:"rowCount"`
	Preview    []scrub.RawRow       `json:"preview"`
	Suggestion scrub.AutoMapResult  `json:"suggestion"`
	Settings   scrub.FilterSettings `json:"settings"`
	Templates  []TemplateMatch      `json:"templates"`
	Cost       CostQuote            `json:"cost"`
}

// PreviewRows is how many raw rows an import summary carries for the
// mapping screen.
const PreviewRows = 5

// CostQuote prices a scrub of the imported rows in both tiers against the
// caller's balance at import time.
type CostQuote struct {
	Records int `json:"records"`
	Basic   int `json:"basic"`
	Prison  int `json:"prison"`

	Balance         int  `json:"balance"`
	CanAffordBasic  bool `json:"canAffordBasic"`
	CanAffordPrison bool `json:"canAffordPrison"`
}

func quoteFor(records int, bal billing.Balance) CostQuote {
	return CostQuote{
		Records:         records,
		Basic:           billing.ScrubCost(records, false),
		Prison:          billing.ScrubCost(records, true),
		Balance:         bal.Total(),
		CanAffordBasic:  bal.CanAfford(records, false),
		CanAffordPrison: bal.CanAfford(records, true),
	}
}

// ScrubRequest starts a scrub. A nil Mapping uses the auto-mapping for the
// requested slot counts.
type ScrubRequest struct {
	Mapping    scrub.Mapping        `json:"mapping,omitempty"`
	Settings   scrub.FilterSettings `json:"settings"`
	Tier       scrub.Tier           `json:"tier"`
	IncludeCRM bool                 `json:"includeCrm"`
}

// ScrubProgress is broadcast to subscribers while a scrub runs.
type ScrubProgress struct {
	SessionID string `json:"sessionId"`
	Phase     Phase  `json:"phase"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
	Error     string `json:"error,omitempty"`
}

// SessionInfo is a point-in-time view of a session.
type SessionInfo struct {
	ID         string               `json:"id"`
	FileName   string               `json:"fileName"`
	Headers    []string             `json:"headers"`
	RowCount   int                  `json:"rowCount"`
	Phase      Phase                `json:"phase"`
	Tier       scrub.Tier           `json:"tier,omitempty"`
	IncludeCRM bool                 `json:"includeCrm"`
	Mapping    scrub.Mapping        `json:"mapping,omitempty"`
	Unmapped   []string             `json:"unmapped,omitempty"`
	Settings   scrub.FilterSettings `json:"settings"`
	Progress   ScrubProgress        `json:"progress"`
	CreatedAt  time.Time            `json:"createdAt"`
}

// Results is the filtered view of a completed scrub.
type Results struct {
	SessionID string               `json:"sessionId"`
	Fields    []string             `json:"fields"`
	Rows      []scrub.CleanedRow   `json:"rows"`
	Stats     scrub.Stats          `json:"stats"`
	Settings  scrub.FilterSettings `json:"settings"`
	Page      int                  `json:"page"`
	PageSize  int                  `json:"pageSize"`
}

// CRMOptions control an export to GoHighLevel.
type CRMOptions struct {
	DefaultType    string   `json:"defaultType"`
	AdditionalTags []string `json:"additionalTags"`
	Pipeline       string   `json:"pipeline,omitempty"`
	Stage          string   `json:"stage,omitempty"`
}

// MappingTemplate is a saved column mapping for a recurring list format.
type MappingTemplate struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Phones     int           `json:"phones"`
	Emails     int           `json:"emails"`
	CRMFields  bool          `json:"crmFields"`
	Mapping    scrub.Mapping `json:"mapping"`
	CSVHeaders []string      `json:"csvHeaders"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// Schema returns the canonical schema the template was saved for.
func (t MappingTemplate) Schema() (scrub.Schema, error) {
	return scrub.NewSchema(t.Phones, t.Emails, t.CRMFields)
}

// TemplateMatch is a template whose headers overlap the file's.
type TemplateMatch struct {
	Template   MappingTemplate `json:"template"`
	MatchScore float64         `json:"matchScore"`
}

// TemplateMatchThreshold is the minimum share of a template's headers that
// must be present in a file for the template to be suggested.
const TemplateMatchThreshold = 0.8

// RunRecord is one finished scrub in the history.
type RunRecord struct {
	ID            string     `json:"id"`
	SessionID     string     `json:"sessionId"`
	Account       string     `json:"account"`
	FileName      string     `json:"fileName"`
	Tier          scrub.Tier `json:"tier"`
	Status        Phase      `json:"status"`
	TotalRows     int        `json:"totalRows"`
	KeptRows      int        `json:"keptRows"`
	Duplicates    int        `json:"duplicates"`
	MissingPhones int        `json:"missingPhones"`
	InvalidEmails int        `json:"invalidEmails"`
	InvalidPhones int        `json:"invalidPhones"`
	PhoneLookups  int        `json:"phoneLookups"`
	CostBubbles   int        `json:"costBubbles"`
	Error         string     `json:"error,omitempty"`
	StartedAt     time.Time  `json:"startedAt"`
	FinishedAt    time.Time  `json:"finishedAt"`
}

// Duration is how long the run took.
func (r RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
