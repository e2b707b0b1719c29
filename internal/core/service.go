package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/propscrub/internal/billing"
	"github.com/JonMunkholm/propscrub/internal/crm"
	"github.com/JonMunkholm/propscrub/internal/importer"
	"github.com/JonMunkholm/propscrub/internal/logging"
	"github.com/JonMunkholm/propscrub/internal/scrub"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrScrubRunning     = errors.New("scrub already running")
	ErrNotScrubbed      = errors.New("session has not been scrubbed")
	ErrSlotCountsFrozen = errors.New("slot counts cannot change after scrubbing")
	ErrUnknownColumn    = errors.New("mapping references unknown column")
	ErrFileTooLarge     = errors.New("file too large")
	ErrNoFile           = errors.New("no file provided")
	ErrNameRequired     = errors.New("template name is required")

	// ErrInsufficientBalance is billing's error, re-exported for callers
	// that only import core.
	ErrInsufficientBalance = billing.ErrInsufficientBalance
)

// Options configures a Service. Zero values fall back to package defaults.
type Options struct {
	MaxFileSize   int64
	MaxConcurrent int
	MaxWait       time.Duration
	SessionTTL    time.Duration
	ScrubTimeout  time.Duration

	// MinDuration paces basic scrubs; YieldEvery tunes prison scrubs.
	MinDuration time.Duration
	YieldEvery  int
	DefaultTier scrub.Tier

	// Account is charged when the request context carries none.
	Account      string
	StartBalance billing.Balance

	ExportDelay        time.Duration
	DefaultContactType string

	// Now and Sleep are replaced in tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

const (
	DefaultMaxFileSize  = 50 << 20
	DefaultSessionTTL   = 2 * time.Hour
	DefaultScrubTimeout = 30 * time.Minute
	DefaultAccount      = "default"
)

// Service is the session service used by the web server.
type Service struct {
	store    Store
	lookup   scrub.PhoneLookup
	crm      *crm.Client
	exporter *crm.Exporter
	limiter  *ScrubLimiter
	opts     Options

	sessionTTL time.Duration

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewService wires a Service. lookup may be nil, which disables the prison
// tier, and crmClient may be nil, which disables GoHighLevel export.
func NewService(store Store, lookup scrub.PhoneLookup, crmClient *crm.Client, opts Options) *Service {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.ScrubTimeout <= 0 {
		opts.ScrubTimeout = DefaultScrubTimeout
	}
	if opts.DefaultTier == "" {
		opts.DefaultTier = scrub.TierBasic
	}
	if opts.Account == "" {
		opts.Account = DefaultAccount
	}
	if opts.DefaultContactType == "" {
		opts.DefaultContactType = crm.DefaultContactType
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Service{
		store:      store,
		lookup:     lookup,
		crm:        crmClient,
		limiter:    NewScrubLimiter(opts.MaxConcurrent, opts.MaxWait),
		opts:       opts,
		sessionTTL: opts.SessionTTL,
		sessions:   make(map[string]*session),
	}
	if crmClient != nil {
		s.exporter = crm.NewExporter(crmClient, opts.ExportDelay)
	}
	return s
}

// Capabilities reports which optional integrations are wired.
type Capabilities struct {
	PrisonTier bool `json:"prisonTier"`
	CRM        bool `json:"crm"`
}

func (s *Service) Capabilities() Capabilities {
	return Capabilities{PrisonTier: s.lookup != nil, CRM: s.crm != nil}
}

// LimiterStatus exposes scrub slot usage for the health endpoint.
func (s *Service) LimiterStatus() ScrubLimiterStatus {
	return s.limiter.Status()
}

// Import parses an uploaded file into a new session. The reader is cut off
// one byte past the size limit so oversized files fail without being held
// in memory.
func (s *Service) Import(ctx context.Context, fileName string, r io.Reader) (*ImportSummary, error) {
	if r == nil || fileName == "" {
		return nil, ErrNoFile
	}

	data, err := io.ReadAll(io.LimitReader(r, s.opts.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%s: %w", fileName, ErrFileTooLarge)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", fileName, scrub.ErrEmptyInput)
	}

	table, err := importer.Parse(bytes.NewReader(data), fileName)
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("%s: %w", fileName, scrub.ErrEmptyInput)
	}

	sess := newSession(uuid.NewString(), fileName, table.Headers, table.Rows, s.opts.Now())
	sess.Format = table.Format
	sess.Encoding = table.Encoding

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	log := logging.WithFields(logging.WithSession(ctx, sess.ID),
		"file", fileName, "rows", len(table.Rows), "format", table.Format)
	log.Info("file imported", "encoding", table.Encoding, "columns", len(table.Headers))

	settings := scrub.DefaultFilterSettings()
	schema, err := settings.Schema(false)
	if err != nil {
		return nil, err
	}

	// The quote is advisory; StartScrub charges against the live balance.
	bal, err := s.store.GetBalance(ctx, s.account(ctx), s.opts.StartBalance)
	if err != nil {
		log.Warn("balance lookup failed", "error", err)
	}

	matches, err := s.MatchTemplates(ctx, table.Headers)
	if err != nil {
		// Suggestions are optional; the import itself succeeded.
		log.Warn("template match failed", "error", err)
		matches = nil
	}

	return &ImportSummary{
		SessionID:  sess.ID,
		FileName:   fileName,
		Format:     table.Format,
		Encoding:   table.Encoding,
		Headers:    table.Headers,
		RowCount:   len(table.Rows),
		Preview:    table.Rows[:min(PreviewRows, len(table.Rows))],
		Suggestion: scrub.AutoMap(table.Headers, schema),
		Settings:   settings,
		Templates:  matches,
		Cost:       quoteFor(len(table.Rows), bal),
	}, nil
}

// SuggestMapping auto-maps the session's headers for the given slot counts.
func (s *Service) SuggestMapping(id string, phones, emails int, includeCRM bool) (scrub.AutoMapResult, error) {
	sess, err := s.getSession(id)
	if err != nil {
		return scrub.AutoMapResult{}, err
	}
	schema, err := scrub.NewSchema(phones, emails, includeCRM)
	if err != nil {
		return scrub.AutoMapResult{}, err
	}
	return scrub.AutoMap(sess.Headers, schema), nil
}

// Session returns a snapshot of a session.
func (s *Service) Session(id string) (SessionInfo, error) {
	sess, err := s.getSession(id)
	if err != nil {
		return SessionInfo{}, err
	}
	return sess.info(), nil
}

// Reset discards a session, cancelling its scrub if one is running. This is
// "clean another list": the next import starts from nothing.
func (s *Service) Reset(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}

	sess.mu.Lock()
	cancel := sess.cancel
	sess.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	logging.FromContext(logging.WithSession(ctx, id)).Info("session reset")
	return nil
}

// SweepSessions drops idle sessions older than the TTL and returns how many
// were removed.
func (s *Service) SweepSessions(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.expired(now, s.sessionTTL) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Shutdown cancels every running scrub and waits for them to unwind.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	for _, sess := range s.sessions {
		sess.mu.Lock()
		if sess.cancel != nil {
			sess.cancel()
		}
		sess.mu.Unlock()
	}
	s.mu.RUnlock()

	if err := s.limiter.WaitForDrain(ctx); err != nil {
		slog.Warn("scrubs still running at shutdown", "active", s.limiter.ActiveCount())
		return err
	}
	return nil
}

func (s *Service) getSession(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	sess.touch(s.opts.Now())
	return sess, nil
}

// account resolves the balance account for a request.
func (s *Service) account(ctx context.Context) string {
	if a := AccountFromContext(ctx); a != "" {
		return a
	}
	return s.opts.Account
}
