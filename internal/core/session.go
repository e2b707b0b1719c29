package core

import (
	"context"
	"sync"
	"time"

	"github.com/JonMunkholm/propscrub/internal/scrub"
)

// session is one imported file and everything derived from it.
//
// Headers and raw rows never change after import. The cleaned collection is
// replaced as a whole when a scrub completes and is never touched by a run
// that is cancelled or fails.
type session struct {
	ID        string
	FileName  string
	Format    string
	Encoding  string
	Headers   []string
	Rows      []scrub.RawRow
	CreatedAt time.Time

	mu         sync.Mutex
	lastUsed   time.Time
	phase      Phase
	tier       scrub.Tier
	includeCRM bool
	mapping    scrub.Mapping
	schema     scrub.Schema
	settings   scrub.FilterSettings
	cleaned    []scrub.CleanedRow
	scrubbed   bool
	progress   ScrubProgress
	cancel     context.CancelFunc
	done       chan struct{}

	listenerMu sync.Mutex
	listeners  []chan ScrubProgress
}

func newSession(id, fileName string, headers []string, rows []scrub.RawRow, now time.Time) *session {
	return &session{
		ID:        id,
		FileName:  fileName,
		Headers:   headers,
		Rows:      rows,
		CreatedAt: now,
		lastUsed:  now,
		phase:     PhaseImported,
		settings:  scrub.DefaultFilterSettings(),
		progress:  ScrubProgress{SessionID: id, Phase: PhaseImported, Total: len(rows)},
	}
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

// running reports whether a scrub is in flight. Caller holds mu.
func (s *session) runningLocked() bool {
	return s.phase == PhaseScrubbing
}

// expired reports whether the session has been idle past ttl. Running
// sessions never expire.
func (s *session) expired(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.runningLocked() && now.Sub(s.lastUsed) > ttl
}

func (s *session) info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := SessionInfo{
		ID:         s.ID,
		FileName:   s.FileName,
		Headers:    s.Headers,
		RowCount:   len(s.Rows),
		Phase:      s.phase,
		Tier:       s.tier,
		IncludeCRM: s.includeCRM,
		Mapping:    s.mapping,
		Settings:   s.settings,
		Progress:   s.progress,
		CreatedAt:  s.CreatedAt,
	}
	if s.mapping != nil {
		info.Unmapped = s.mapping.UnmappedFields(s.schema.Fields())
	}
	return info
}

// setProgress records and broadcasts a progress update.
func (s *session) setProgress(p ScrubProgress) {
	s.mu.Lock()
	s.progress = p
	s.mu.Unlock()
	s.notifyProgress(p)
}

func (s *session) currentProgress() ScrubProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// subscribe registers a listener and primes it with the current progress.
// A listener added after a run finished receives the final state and is
// closed immediately.
func (s *session) subscribe() <-chan ScrubProgress {
	ch := make(chan ScrubProgress, 10)

	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	// Read under listenerMu so a concurrent finish cannot miss this listener.
	current := s.currentProgress()
	ch <- current
	if current.Phase != PhaseScrubbing {
		close(ch)
		return ch
	}
	s.listeners = append(s.listeners, ch)
	return ch
}

// notifyProgress sends progress updates to all listeners.
func (s *session) notifyProgress(p ScrubProgress) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	for _, ch := range s.listeners {
		select {
		case ch <- p:
		default:
			// Listener is slow, skip this update
		}
	}
}

// finish delivers the terminal update and closes every listener.
func (s *session) finish(p ScrubProgress) {
	s.mu.Lock()
	s.progress = p
	s.mu.Unlock()

	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	for _, ch := range s.listeners {
		// Make room so the terminal update is never dropped.
		select {
		case ch <- p:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- p
		}
		close(ch)
	}
	s.listeners = nil
}
