package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/propscrub/internal/billing"
	"github.com/JonMunkholm/propscrub/internal/config"
	"github.com/JonMunkholm/propscrub/internal/core"
	"github.com/JonMunkholm/propscrub/internal/crm"
	"github.com/JonMunkholm/propscrub/internal/database"
	"github.com/JonMunkholm/propscrub/internal/logging"
	"github.com/JonMunkholm/propscrub/internal/phonelookup"
	"github.com/JonMunkholm/propscrub/internal/scrub"
	"github.com/JonMunkholm/propscrub/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"scrub_max_concurrent", cfg.Upload.MaxConcurrent,
		"lookup_provider", cfg.Lookup.Provider,
		"crm_enabled", cfg.CRM.Enabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := connect(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	lookup, err := newLookup(cfg.Lookup)
	if err != nil {
		slog.Error("failed to configure phone lookup", "error", err)
		os.Exit(1)
	}

	var crmClient *crm.Client
	if cfg.CRM.Enabled() {
		crmClient, err = crm.NewClient(crm.Config{
			BaseURL:           cfg.CRM.BaseURL,
			PrivateKey:        cfg.CRM.PrivateKey,
			LocationID:        cfg.CRM.LocationID,
			APIVersion:        cfg.CRM.APIVersion,
			RequestsPerSecond: cfg.CRM.RequestsPerSecond,
		})
		if err != nil {
			slog.Error("failed to configure GoHighLevel", "error", err)
			os.Exit(1)
		}
	}

	tier, err := scrub.ParseTier(cfg.Scrub.DefaultTier)
	if err != nil {
		slog.Error("invalid default tier", "error", err)
		os.Exit(1)
	}

	service := core.NewService(core.NewPostgresStore(pool), lookup, crmClient, core.Options{
		MaxFileSize:        cfg.Upload.MaxFileSize,
		MaxConcurrent:      cfg.Upload.MaxConcurrent,
		MaxWait:            cfg.Upload.MaxWaitTime,
		SessionTTL:         cfg.Upload.SessionTTL,
		ScrubTimeout:       cfg.Upload.Timeout,
		MinDuration:        cfg.Scrub.BasicMinDuration,
		YieldEvery:         cfg.Scrub.YieldEvery,
		DefaultTier:        tier,
		Account:            cfg.Scrub.Account,
		StartBalance:       billing.Balance{Bubbles: cfg.Scrub.StartBubbles},
		ExportDelay:        cfg.CRM.ExportDelay,
		DefaultContactType: cfg.CRM.DefaultType,
	})

	slog.Info("service ready",
		"prison_tier", service.Capabilities().PrisonTier,
		"crm", service.Capabilities().CRM,
	)

	server := web.NewServer(service, cfg)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		service.StartMaintenance(gctx, core.MaintenanceConfig{
			RetentionDays: cfg.History.RetentionDays,
			CheckInterval: cfg.History.CheckInterval,
		})
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		status := service.LimiterStatus()
		if status.Active > 0 {
			slog.Info("cancelling running scrubs", "active", status.Active)
		}
		if err := service.Shutdown(shutdownCtx); err != nil {
			slog.Warn("scrubs did not stop in time", "error", err)
		}

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// connect opens the pool with the configured limits and verifies it.
func connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}

// newLookup builds the configured phone lookup. No provider means the
// prison tier is unavailable.
func newLookup(cfg config.LookupConfig) (scrub.PhoneLookup, error) {
	if cfg.Provider == "" {
		slog.Info("no phone lookup provider configured; prison tier disabled")
		return nil, nil
	}
	return phonelookup.New(phonelookup.Config{
		Provider:          cfg.Provider,
		HLRURL:            cfg.HLRURL,
		HLRKey:            cfg.HLRKey,
		HLRSecret:         cfg.HLRSecret,
		TwilioURL:         cfg.TwilioURL,
		TwilioAccountSID:  cfg.TwilioAccountSID,
		TwilioAuthToken:   cfg.TwilioAuthToken,
		ProxyURL:          cfg.ProxyURL,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
}
