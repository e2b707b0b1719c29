package scrub

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
	"time"
)

var (
	// ErrEmptyInput is returned when there are no rows to process.
	ErrEmptyInput = errors.New("no rows to process")

	// ErrNoPhoneLookup is returned when the prison tier runs without a lookup.
	ErrNoPhoneLookup = errors.New("prison tier requires a phone lookup")

	ErrUnknownTier = errors.New("unknown tier")
)

// Tier selects how phones are validated.
type Tier string

const (
	// TierBasic treats any non-empty phone as valid.
	TierBasic Tier = "basic"
	// TierPrison checks every phone against the lookup service.
	TierPrison Tier = "prison"
)

// ParseTier accepts "basic" or "prison" in any case.
func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierBasic, "":
		return TierBasic, nil
	case TierPrison:
		return TierPrison, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownTier)
	}
}

// DefaultMinDuration is the basic-tier pacing target for interactive use.
const DefaultMinDuration = 6 * time.Second

// DefaultYieldEvery is how often the prison tier yields the processor.
const DefaultYieldEvery = 5

// Options configures one pipeline run.
type Options struct {
	Schema Schema
	Tier   Tier

	// Lookup is required for TierPrison and ignored otherwise.
	Lookup PhoneLookup

	// MinDuration paces basic-tier progress: the pauses between progress
	// steps add up to it. Zero disables pacing.
	MinDuration time.Duration

	// YieldEvery controls prison-tier yielding. Zero means DefaultYieldEvery.
	YieldEvery int

	// Sleep waits between basic-tier progress steps. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Progress is reported as rows complete.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

// RunResult is the committed output of a finished pass.
type RunResult struct {
	Rows         []CleanedRow
	PhoneLookups int
	Duplicates   int
}

// runState is owned by exactly one Run call and discarded at its end.
type runState struct {
	seen      map[string]struct{}
	validator *PhoneValidator
}

// Run maps, flags and validates rows in import order. Rows are only returned
// once the whole pass finishes; on cancellation the context error is
// returned and nothing is committed.
func Run(ctx context.Context, rows []RawRow, mapping Mapping, opts Options, onProgress func(Progress)) (*RunResult, error) {
	total := len(rows)
	if total == 0 {
		return nil, ErrEmptyInput
	}
	if opts.Tier == "" {
		opts.Tier = TierBasic
	}
	if opts.Tier == TierPrison && opts.Lookup == nil {
		return nil, ErrNoPhoneLookup
	}
	if opts.YieldEvery <= 0 {
		opts.YieldEvery = DefaultYieldEvery
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if onProgress == nil {
		onProgress = func(Progress) {}
	}

	fields := opts.Schema.Fields()
	mapping = mapping.Complete(fields)

	state := &runState{seen: make(map[string]struct{})}
	if opts.Tier == TierPrison {
		state.validator = NewPhoneValidator(opts.Lookup, NewPhoneCache())
	}

	steps := min(100, total)
	rowsPerStep := (total + steps - 1) / steps
	pauses := (total + rowsPerStep - 1) / rowsPerStep
	var delay time.Duration
	if opts.MinDuration > 0 {
		delay = opts.MinDuration / time.Duration(pauses)
	}

	out := make([]CleanedRow, 0, total)
	duplicates := 0

	for i, raw := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row := NewCleanedRow(MapRow(raw, mapping, fields), opts.Schema)
		if state.checkDuplicate(&row) {
			duplicates++
		}
		state.validatePhones(ctx, &row, opts.Tier)
		validateRowEmails(&row)
		out = append(out, row)

		done := i + 1
		p := Progress{Completed: done, Total: total, Percent: percentOf(done, total)}

		if opts.Tier == TierPrison {
			onProgress(p)
			if done%opts.YieldEvery == 0 {
				runtime.Gosched()
			}
			continue
		}

		if done%rowsPerStep == 0 || done == total {
			onProgress(p)
			if delay > 0 {
				if err := opts.Sleep(ctx, delay); err != nil {
					return nil, err
				}
			}
		}
	}

	res := &RunResult{Rows: out, Duplicates: duplicates}
	if state.validator != nil {
		res.PhoneLookups = state.validator.Cache().Lookups()
	}
	return res, nil
}

// checkDuplicate flags a row whose normalized address was already seen.
// Empty addresses are never duplicates and never enter the set.
func (s *runState) checkDuplicate(row *CleanedRow) bool {
	key := strings.ToLower(strings.TrimSpace(row.PropertyAddress))
	if key == "" {
		return false
	}
	if _, ok := s.seen[key]; ok {
		row.DuplicateAddress = true
		return true
	}
	s.seen[key] = struct{}{}
	return false
}

func (s *runState) validatePhones(ctx context.Context, row *CleanedRow, tier Tier) {
	hasAny := false
	anyValid := false

	for i := range row.Phones {
		slot := &row.Phones[i]
		phone := strings.TrimSpace(slot.Number)
		if phone == "" {
			continue
		}
		hasAny = true

		if tier != TierPrison {
			anyValid = true
			continue
		}

		r := s.validator.Validate(ctx, phone)
		applyPhoneResult(slot, r)
		if r.Valid {
			anyValid = true
		}
	}

	row.MissingPhone = !hasAny
	row.PhoneValid = anyValid
}

func applyPhoneResult(slot *PhoneSlot, r PhoneResult) {
	switch {
	case r.Valid:
		slot.Type = orDefault(r.Type, DetailUnknown)
		slot.Carrier = orDefault(r.Carrier, DetailUnknown)
		slot.Status = orDefault(r.LiveStatus, DetailUnknown)
		slot.Ported = yesNo(r.IsPorted)
		slot.Roaming = yesNo(r.IsRoaming)
	case r.Type == PhoneTypeError:
		slot.Type = PhoneTypeError
		slot.Carrier = DetailNA
		slot.Status = StatusError
		slot.Ported = DetailNA
		slot.Roaming = DetailNA
	default:
		slot.Type = PhoneTypeInvalid
		slot.Carrier = DetailNA
		slot.Status = orDefault(r.LiveStatus, StatusInvalid)
		slot.Ported = DetailNA
		slot.Roaming = DetailNA
	}
}

// validateRowEmails sets EmailValid: a row with no email is never invalid.
func validateRowEmails(row *CleanedRow) {
	hasAny := false
	hasValid := false
	for _, e := range row.Emails {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		hasAny = true
		if ValidateEmail(e).Valid {
			hasValid = true
		}
	}
	row.EmailValid = !hasAny || hasValid
}

func percentOf(done, total int) int {
	return int(math.Round(100 * float64(done) / float64(total)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
