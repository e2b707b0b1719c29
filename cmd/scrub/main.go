// Command scrub cleans a lead file without the web UI. It auto-maps the
// headers, runs the pipeline, applies the filters and writes the kept rows
// as CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/propscrub/internal/importer"
	"github.com/JonMunkholm/propscrub/internal/logging"
	"github.com/JonMunkholm/propscrub/internal/phonelookup"
	"github.com/JonMunkholm/propscrub/internal/scrub"
)

type options struct {
	in, out   string
	phones    int
	emails    int
	tier      string
	lookupURL string
	market    string
	crmFields bool
	logLevel  string

	keepDuplicates   bool
	keepMissingPhone bool
	keepInvalidEmail bool
	keepInvalidPhone bool
}

func main() {
	_ = godotenv.Load()

	var o options
	flag.StringVar(&o.in, "in", "", "input file (.csv, .tsv, .txt or .xlsx)")
	flag.StringVar(&o.out, "out", "-", "output CSV file, - for stdout")
	flag.IntVar(&o.phones, "phones", 1, "phone slots (1-5)")
	flag.IntVar(&o.emails, "emails", 1, "email slots (1-5)")
	flag.StringVar(&o.tier, "tier", "basic", "scrub tier: basic or prison")
	flag.StringVar(&o.lookupURL, "lookup-url", os.Getenv("PHONE_LOOKUP_PROXY_URL"), "validatePhone endpoint used by the prison tier")
	flag.StringVar(&o.market, "market", "", "comma-separated market terms")
	flag.BoolVar(&o.crmFields, "crm-fields", false, "include CRM fields in the schema")
	flag.BoolVar(&o.keepDuplicates, "keep-duplicates", false, "keep duplicate addresses")
	flag.BoolVar(&o.keepMissingPhone, "keep-missing-phone", false, "keep rows without a phone")
	flag.BoolVar(&o.keepInvalidEmail, "keep-invalid-email", false, "keep rows where no email slot is valid")
	flag.BoolVar(&o.keepInvalidPhone, "keep-invalid-phone", false, "keep rows where no phone slot is valid")
	flag.StringVar(&o.logLevel, "log-level", "info", "log level")
	flag.Parse()

	logging.SetupWriter(os.Stderr, o.logLevel, "text")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o); err != nil {
		slog.Error("scrub failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options) error {
	if o.in == "" {
		return fmt.Errorf("-in is required")
	}

	tier, err := scrub.ParseTier(o.tier)
	if err != nil {
		return err
	}
	schema, err := scrub.NewSchema(o.phones, o.emails, o.crmFields)
	if err != nil {
		return err
	}

	var lookup scrub.PhoneLookup
	if tier == scrub.TierPrison {
		client, err := phonelookup.NewClient(phonelookup.Config{ProxyURL: o.lookupURL})
		if err != nil {
			return err
		}
		lookup = client
	}

	f, err := os.Open(o.in)
	if err != nil {
		return err
	}
	table, err := importer.Parse(f, filepath.Base(o.in))
	f.Close()
	if err != nil {
		return err
	}

	suggestion := scrub.AutoMap(table.Headers, schema)
	slog.Info("file loaded",
		"file", o.in,
		"format", table.Format,
		"rows", len(table.Rows),
		"mapped_fields", suggestion.Mapped,
	)

	start := time.Now()
	res, err := scrub.Run(ctx, table.Rows, suggestion.Mapping, scrub.Options{
		Schema: schema,
		Tier:   tier,
		Lookup: lookup,
	}, func(p scrub.Progress) {
		if p.Completed == p.Total || p.Completed%500 == 0 {
			slog.Debug("progress", "completed", p.Completed, "total", p.Total)
		}
	})
	if err != nil {
		return err
	}

	settings := scrub.FilterSettings{
		RemoveDuplicates:   !o.keepDuplicates,
		RemoveMissingPhone: !o.keepMissingPhone,
		RemoveInvalidEmail: !o.keepInvalidEmail,
		RemoveInvalidPhone: !o.keepInvalidPhone,
		NumberOfPhones:     o.phones,
		NumberOfEmails:     o.emails,
		MarketSearch:       o.market,
	}
	kept := scrub.Filter(res.Rows, settings)
	stats := scrub.Summarize(res.Rows, kept)

	if err := writeOutput(o.out, func(w io.Writer) error {
		return scrub.WriteCSV(w, kept, schema, tier, o.crmFields)
	}); err != nil {
		return err
	}

	slog.Info("scrub complete",
		"total", stats.Total,
		"kept", stats.Showing,
		"duplicates", stats.Duplicates,
		"missing_phones", stats.MissingPhones,
		"invalid_emails", stats.InvalidEmails,
		"invalid_phones", stats.InvalidPhones,
		"lookups", res.PhoneLookups,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// writeOutput runs write against stdout for "-" or a new file at path.
// Close errors are returned.
func writeOutput(path string, write func(io.Writer) error) (err error) {
	if path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return write(f)
}
