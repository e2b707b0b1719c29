package crm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/propscrub/internal/scrub"
)

// DefaultExportDelay spaces contact writes to stay under the API rate limit.
const DefaultExportDelay = 500 * time.Millisecond

// ExportError records one contact that could not be written.
type ExportError struct {
	Index   int    `json:"index"`
	Contact string `json:"contact"`
	Error   string `json:"error"`
}

// ExportResult summarizes an export run.
type ExportResult struct {
	Total                int           `json:"total"`
	Created              int           `json:"created"`
	Updated              int           `json:"updated"`
	Failed               int           `json:"failed"`
	OpportunitiesCreated int           `json:"opportunitiesCreated"`
	OpportunitiesUpdated int           `json:"opportunitiesUpdated"`
	Errors               []ExportError `json:"errors"`
}

// Exporter pushes rows to GoHighLevel one at a time.
type Exporter struct {
	client *Client
	delay  time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewExporter(client *Client, delay time.Duration) *Exporter {
	if delay < 0 {
		delay = 0
	}
	return &Exporter{client: client, delay: delay, sleep: sleepContext}
}

// Export upserts every row, logging and counting failures without stopping.
// Cancelling ctx stops the run and returns the partial result with ctx.Err().
// onProgress, when non-nil, is called after each row.
func (e *Exporter) Export(ctx context.Context, rows []scrub.CleanedRow, opts ExportOptions, onProgress func(done, total int)) (*ExportResult, error) {
	res := &ExportResult{Total: len(rows), Errors: []ExportError{}}
	if len(rows) == 0 {
		return res, nil
	}

	ids, err := e.client.FieldIDs(ctx)
	if err != nil {
		return nil, err
	}

	var pipelines []Pipeline
	if needsPipelines(rows, opts) {
		if pipelines, err = e.client.Pipelines(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if i > 0 && e.delay > 0 {
			if err := e.sleep(ctx, e.delay); err != nil {
				return res, err
			}
		}

		contact := ContactFromRow(row, opts, ids)
		if err := e.exportOne(ctx, row, contact, opts, pipelines, res); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed++
			res.Errors = append(res.Errors, ExportError{
				Index:   i,
				Contact: contactLabel(contact, i),
				Error:   err.Error(),
			})
			slog.Warn("ghl export failed", "index", i, "contact", contactLabel(contact, i), "error", err)
		}
		if onProgress != nil {
			onProgress(i+1, len(rows))
		}
	}

	slog.Info("ghl export complete",
		"total", res.Total,
		"created", res.Created,
		"updated", res.Updated,
		"failed", res.Failed,
		"duration", time.Since(start))
	return res, nil
}

func (e *Exporter) exportOne(ctx context.Context, row scrub.CleanedRow, contact Contact, opts ExportOptions, pipelines []Pipeline, res *ExportResult) error {
	up, err := e.client.UpsertContact(ctx, contact)
	if err != nil {
		return err
	}
	if up.Created {
		res.Created++
	} else {
		res.Updated++
	}

	pipeline := orDefault(strings.TrimSpace(row.Pipeline), opts.Pipeline)
	if pipeline == "" {
		return nil
	}
	stage := orDefault(strings.TrimSpace(row.Stage), opts.Stage)
	p, s, ok := findPipeline(pipelines, pipeline, stage)
	if !ok {
		return fmt.Errorf("pipeline %q stage %q not found", pipeline, stage)
	}
	if up.Contact == nil || up.Contact.ID == "" {
		return errors.New("contact id missing from response")
	}

	name := strings.TrimSpace(row.OpportunityName)
	if name == "" {
		name = strings.TrimSpace(contact.FirstName + " " + contact.LastName)
	}
	_, created, err := e.client.UpsertOpportunity(ctx, Opportunity{
		Name:            name,
		PipelineID:      p.ID,
		PipelineStageID: s.ID,
		ContactID:       up.Contact.ID,
	})
	if err != nil {
		return err
	}
	if created {
		res.OpportunitiesCreated++
	} else {
		res.OpportunitiesUpdated++
	}
	return nil
}

func needsPipelines(rows []scrub.CleanedRow, opts ExportOptions) bool {
	if opts.Pipeline != "" {
		return true
	}
	for _, r := range rows {
		if strings.TrimSpace(r.Pipeline) != "" {
			return true
		}
	}
	return false
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
