package core

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/JonMunkholm/propscrub/internal/billing"
	"github.com/JonMunkholm/propscrub/internal/logging"
	"github.com/JonMunkholm/propscrub/internal/scrub"
)

// StartScrub charges the account, takes a limiter slot and runs the cleaning
// pipeline in the background. It returns once the run has started; follow it
// with SubscribeProgress or WaitScrub.
//
// A failed run is refunded. A cancelled run is not, since its lookups were
// already spent.
func (s *Service) StartScrub(ctx context.Context, id string, req ScrubRequest) error {
	sess, err := s.getSession(id)
	if err != nil {
		return err
	}

	tier := req.Tier
	if tier == "" {
		tier = s.opts.DefaultTier
	}
	if tier, err = scrub.ParseTier(string(tier)); err != nil {
		return err
	}
	if tier == scrub.TierPrison && s.lookup == nil {
		return scrub.ErrNoPhoneLookup
	}

	schema, err := req.Settings.Schema(req.IncludeCRM)
	if err != nil {
		return err
	}
	mapping, err := resolveMapping(req.Mapping, sess.Headers, schema)
	if err != nil {
		return err
	}

	// Claim the session before charging so two requests cannot both run.
	sess.mu.Lock()
	if sess.runningLocked() {
		sess.mu.Unlock()
		return fmt.Errorf("%s: %w", id, ErrScrubRunning)
	}
	prevPhase, prevProgress := sess.phase, sess.progress
	sess.phase = PhaseScrubbing
	sess.progress = ScrubProgress{SessionID: id, Phase: PhaseScrubbing, Total: len(sess.Rows)}
	sess.mu.Unlock()

	abort := func(err error) error {
		sess.mu.Lock()
		sess.phase = prevPhase
		sess.mu.Unlock()
		sess.finish(prevProgress)
		return err
	}

	account := s.account(ctx)
	cost := billing.ScrubCost(len(sess.Rows), tier == scrub.TierPrison)
	if _, err := s.store.AdjustBalance(ctx, account, s.opts.StartBalance, func(b billing.Balance) (billing.Balance, error) {
		return b.Deduct(len(sess.Rows), tier == scrub.TierPrison)
	}); err != nil {
		return abort(fmt.Errorf("charge %d bubbles: %w", cost, err))
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		s.refund(ctx, account, cost)
		return abort(err)
	}

	runCtx, cancel := context.WithTimeout(context.Background(), s.opts.ScrubTimeout)
	runCtx = logging.WithSession(runCtx, id)
	done := make(chan struct{})

	sess.mu.Lock()
	sess.cancel = cancel
	sess.done = done
	sess.mu.Unlock()

	run := scrubRun{
		sess:       sess,
		account:    account,
		tier:       tier,
		includeCRM: req.IncludeCRM,
		schema:     schema,
		mapping:    mapping,
		settings:   req.Settings,
		cost:       cost,
		startedAt:  s.opts.Now(),
	}

	logging.WithFields(runCtx, "tier", tier, "rows", len(sess.Rows), "cost", cost).
		Info("scrub started")

	go func() {
		defer close(done)
		defer cancel()
		defer s.limiter.Release()
		s.runScrub(runCtx, run)
	}()

	return nil
}

// scrubRun carries the parameters of one pipeline pass.
// Its settings replace the session's only when the pass completes.
type scrubRun struct {
	sess       *session
	account    string
	tier       scrub.Tier
	includeCRM bool
	schema     scrub.Schema
	mapping    scrub.Mapping
	settings   scrub.FilterSettings
	cost       int
	startedAt  time.Time
}

func (s *Service) runScrub(ctx context.Context, run scrubRun) {
	sess := run.sess
	log := logging.FromContext(ctx)

	var (
		res *scrub.RunResult
		err error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("scrub panicked", "panic", r, "stack", string(debug.Stack()))
				err = fmt.Errorf("scrub panicked: %v", r)
			}
		}()
		res, err = scrub.Run(ctx, sess.Rows, run.mapping, scrub.Options{
			Schema:      run.schema,
			Tier:        run.tier,
			Lookup:      s.lookup,
			MinDuration: s.opts.MinDuration,
			YieldEvery:  s.opts.YieldEvery,
			Sleep:       s.opts.Sleep,
		}, func(p scrub.Progress) {
			sess.setProgress(ScrubProgress{
				SessionID: sess.ID,
				Phase:     PhaseScrubbing,
				Completed: p.Completed,
				Total:     p.Total,
				Percent:   p.Percent,
			})
		})
	}()

	final := sess.currentProgress()
	record := RunRecord{
		SessionID:   sess.ID,
		Account:     run.account,
		FileName:    sess.FileName,
		Tier:        run.tier,
		TotalRows:   len(sess.Rows),
		CostBubbles: run.cost,
		StartedAt:   run.startedAt,
	}

	switch {
	case err == nil:
		filtered := scrub.Filter(res.Rows, run.settings)
		stats := scrub.Summarize(res.Rows, filtered)

		sess.mu.Lock()
		sess.cleaned = res.Rows
		sess.scrubbed = true
		sess.tier = run.tier
		sess.includeCRM = run.includeCRM
		sess.schema = run.schema
		sess.mapping = run.mapping
		sess.settings = run.settings
		sess.phase = PhaseComplete
		sess.cancel = nil
		sess.mu.Unlock()

		final = ScrubProgress{SessionID: sess.ID, Phase: PhaseComplete, Completed: len(res.Rows), Total: len(res.Rows), Percent: 100}
		record.Status = PhaseComplete
		record.KeptRows = stats.Showing
		record.Duplicates = stats.Duplicates
		record.MissingPhones = stats.MissingPhones
		record.InvalidEmails = stats.InvalidEmails
		record.InvalidPhones = stats.InvalidPhones
		record.PhoneLookups = res.PhoneLookups

		log.Info("scrub complete",
			"rows", stats.Total,
			"kept", stats.Showing,
			"duplicates", stats.Duplicates,
			"lookups", res.PhoneLookups,
			"duration_ms", time.Since(run.startedAt).Milliseconds(),
		)

	case errors.Is(err, context.Canceled):
		sess.mu.Lock()
		sess.phase = PhaseCancelled
		sess.cancel = nil
		sess.mu.Unlock()

		final.Phase = PhaseCancelled
		record.Status = PhaseCancelled
		log.Info("scrub cancelled", "completed", final.Completed, "total", final.Total)

	default:
		sess.mu.Lock()
		sess.phase = PhaseFailed
		sess.cancel = nil
		sess.mu.Unlock()

		final.Phase = PhaseFailed
		final.Error = FormatUserError(err)
		record.Status = PhaseFailed
		record.Error = err.Error()
		record.CostBubbles = 0
		s.refund(context.Background(), run.account, run.cost)
		log.Error("scrub failed", "error", err)
	}

	record.FinishedAt = s.opts.Now()
	s.recordRun(record)
	sess.finish(final)
}

// resolveMapping fills in an auto-mapping when none was supplied and checks
// that every referenced column exists in the file.
func resolveMapping(m scrub.Mapping, headers []string, schema scrub.Schema) (scrub.Mapping, error) {
	if m == nil {
		return scrub.AutoMap(headers, schema).Mapping, nil
	}

	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}
	for field, fm := range m {
		for _, col := range fm.Columns() {
			if !known[col] {
				return nil, fmt.Errorf("%s -> %q: %w", field, col, ErrUnknownColumn)
			}
		}
	}
	return m.Complete(schema.Fields()), nil
}

func (s *Service) refund(ctx context.Context, account string, bubbles int) {
	if bubbles <= 0 {
		return
	}
	_, err := s.store.AdjustBalance(ctx, account, s.opts.StartBalance, func(b billing.Balance) (billing.Balance, error) {
		b.Bubbles += bubbles
		return b, nil
	})
	if err != nil {
		logging.FromContext(ctx).Error("refund failed", "account", account, "bubbles", bubbles, "error", err)
	}
}

// SubscribeProgress returns a channel of progress updates for a session. The
// channel is closed after the terminal update; when no scrub is running it
// carries the current state and is closed at once.
func (s *Service) SubscribeProgress(id string) (<-chan ScrubProgress, error) {
	sess, err := s.getSession(id)
	if err != nil {
		return nil, err
	}
	return sess.subscribe(), nil
}

// Progress returns the latest progress without blocking.
func (s *Service) Progress(id string) (ScrubProgress, error) {
	sess, err := s.getSession(id)
	if err != nil {
		return ScrubProgress{}, err
	}
	return sess.currentProgress(), nil
}

// CancelScrub stops a running scrub between rows. Cancelling an idle
// session is a no-op.
func (s *Service) CancelScrub(id string) error {
	sess, err := s.getSession(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	cancel := sess.cancel
	sess.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

// WaitScrub blocks until the current scrub ends or ctx is done and returns
// the terminal progress.
func (s *Service) WaitScrub(ctx context.Context, id string) (ScrubProgress, error) {
	sess, err := s.getSession(id)
	if err != nil {
		return ScrubProgress{}, err
	}
	sess.mu.Lock()
	done := sess.done
	sess.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ScrubProgress{}, ctx.Err()
		}
	}
	return sess.currentProgress(), nil
}

// Results applies the session's filter settings to its committed rows.
func (s *Service) Results(id string, page, pageSize int) (*Results, error) {
	sess, err := s.getSession(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if !sess.scrubbed {
		sess.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", id, ErrNotScrubbed)
	}
	cleaned := sess.cleaned
	settings := sess.settings
	fields := scrub.ExportFields(sess.schema, sess.tier, sess.includeCRM)
	sess.mu.Unlock()

	filtered := scrub.Filter(cleaned, settings)
	rows, page, pageSize := paginate(filtered, page, pageSize)

	return &Results{
		SessionID: id,
		Fields:    fields,
		Rows:      rows,
		Stats:     scrub.Summarize(cleaned, filtered),
		Settings:  settings,
		Page:      page,
		PageSize:  pageSize,
	}, nil
}

// UpdateSettings changes the filter toggles and market search. Once rows are
// committed the slot counts are fixed, because the cleaned rows were built
// for that schema.
func (s *Service) UpdateSettings(id string, settings scrub.FilterSettings) (scrub.FilterSettings, error) {
	sess, err := s.getSession(id)
	if err != nil {
		return scrub.FilterSettings{}, err
	}
	if _, err := settings.Schema(false); err != nil {
		return scrub.FilterSettings{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.scrubbed && (settings.NumberOfPhones != sess.settings.NumberOfPhones ||
		settings.NumberOfEmails != sess.settings.NumberOfEmails) {
		return sess.settings, ErrSlotCountsFrozen
	}
	sess.settings = settings
	return settings, nil
}

// filteredRows returns the committed rows that pass the current filter,
// along with what is needed to render them.
func (s *Service) filteredRows(id string) (*session, []scrub.CleanedRow, error) {
	sess, err := s.getSession(id)
	if err != nil {
		return nil, nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.scrubbed {
		return nil, nil, fmt.Errorf("%s: %w", id, ErrNotScrubbed)
	}
	return sess, scrub.Filter(sess.cleaned, sess.settings), nil
}
