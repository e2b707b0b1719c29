package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/propscrub/internal/crm"
	"github.com/JonMunkholm/propscrub/internal/logging"
	"github.com/JonMunkholm/propscrub/internal/scrub"
)

// ExportFileName is the download name for a cleaned list.
func ExportFileName(now time.Time) string {
	return "propscrub_cleaned_" + now.UTC().Format("2006-01-02T15-04-05") + ".csv"
}

// ExportCSV writes the filtered rows of a scrubbed session as CSV.
func (s *Service) ExportCSV(ctx context.Context, id string, w io.Writer) (int, error) {
	sess, rows, err := s.filteredRows(id)
	if err != nil {
		return 0, err
	}

	sess.mu.Lock()
	schema, tier, includeCRM := sess.schema, sess.tier, sess.includeCRM
	sess.mu.Unlock()

	if err := scrub.WriteCSV(w, rows, schema, tier, includeCRM); err != nil {
		return 0, fmt.Errorf("write csv: %w", err)
	}
	logging.FromContext(logging.WithSession(ctx, id)).Info("csv exported", "rows", len(rows), "tier", tier)
	return len(rows), nil
}

// ExportCRM pushes the filtered rows to GoHighLevel. Rows are tagged with
// the market search and the export date on top of any requested tags.
func (s *Service) ExportCRM(ctx context.Context, id string, opts CRMOptions, onProgress func(done, total int)) (*crm.ExportResult, error) {
	if s.exporter == nil {
		return nil, crm.ErrNotConfigured
	}
	sess, rows, err := s.filteredRows(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	market := sess.settings.MarketSearch
	sess.mu.Unlock()

	defaultType := opts.DefaultType
	if defaultType == "" {
		defaultType = s.opts.DefaultContactType
	}
	tags := append(crm.ImportTags(market, s.opts.Now()), opts.AdditionalTags...)

	ctx = logging.WithSession(ctx, id)
	log := logging.WithFields(ctx, "rows", len(rows), "pipeline", opts.Pipeline)
	log.Info("crm export started")

	res, err := s.exporter.Export(ctx, rows, crm.ExportOptions{
		DefaultType:    defaultType,
		AdditionalTags: tags,
		Pipeline:       opts.Pipeline,
		Stage:          opts.Stage,
	}, onProgress)
	if res != nil {
		log.Info("crm export finished",
			"created", res.Created,
			"updated", res.Updated,
			"failed", res.Failed,
			"opportunities_created", res.OpportunitiesCreated,
		)
	}
	return res, err
}

// CRMOptions lists pipelines, tags and contact types for the export form.
func (s *Service) CRMOptions(ctx context.Context) (*crm.Options, error) {
	if s.crm == nil {
		return nil, crm.ErrNotConfigured
	}
	return s.crm.Options(ctx)
}

// SetupCRMFields creates any missing PropScrub custom fields.
func (s *Service) SetupCRMFields(ctx context.Context) (*crm.SetupResult, error) {
	if s.crm == nil {
		return nil, crm.ErrNotConfigured
	}
	return s.crm.EnsureCustomFields(ctx)
}

// ValidatePhone runs a single lookup. It backs the proxy endpoint that other
// deployments use as their lookup provider.
func (s *Service) ValidatePhone(ctx context.Context, phone string) (scrub.PhoneResult, error) {
	if s.lookup == nil {
		return scrub.PhoneResult{}, scrub.ErrNoPhoneLookup
	}
	return s.lookup.Lookup(ctx, phone)
}
