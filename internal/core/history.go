package core

import (
	"context"
	"log/slog"
	"time"
)

// DefaultHistoryLimit caps ListHistory when no limit is given.
const DefaultHistoryLimit = 50

// recordRun stores a finished run. History is best effort: a store failure
// is logged and never fails the scrub.
func (s *Service) recordRun(r RunRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.store.InsertRun(ctx, r); err != nil {
		slog.Error("record scrub run failed",
			"session_id", r.SessionID,
			"status", r.Status,
			"error", err,
		)
	}
}

// ListHistory returns the caller's most recent runs, newest first.
func (s *Service) ListHistory(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = DefaultHistoryLimit
	}
	runs, err := s.store.ListRuns(ctx, s.account(ctx), limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []RunRecord{}
	}
	return runs, nil
}
