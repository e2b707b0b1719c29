// Package config loads PropScrub settings from environment variables with
// defaults, and validates them on startup so misconfiguration fails fast.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Scrub    ScrubConfig
	Lookup   LookupConfig
	CRM      CRMConfig
	History  HistoryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout stays 0 so progress streams are not cut off.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout applies to non-streaming API routes.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// Migrate applies embedded migrations at startup.
	Migrate bool `env:"DB_MIGRATE" default:"true"`
}

// UploadConfig holds import and scrub session settings.
type UploadConfig struct {
	// MaxFileSize is the maximum accepted upload in bytes (default: 50MB).
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"52428800"`

	// MaxConcurrent is the number of scrubs allowed to run at once.
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a scrub waits for a free slot.
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// SessionTTL is how long an idle import session is kept in memory.
	SessionTTL time.Duration `env:"UPLOAD_SESSION_TTL" default:"2h"`

	// Timeout bounds a single scrub run.
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"30m"`
}

// RateLimitConfig holds per-IP inbound rate limits.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// UploadLimit is requests per minute for import and scrub endpoints.
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	APIKeys       []string `env:"API_KEYS"`
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`

	// AllowedOrigins lists CORS origins; "*" allows any.
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is text or json.
	Format string `env:"LOG_FORMAT" default:"text"`
}

// ScrubConfig tunes the cleaning pipeline.
type ScrubConfig struct {
	// BasicMinDuration is the minimum wall time of a basic scrub. 0 disables pacing.
	BasicMinDuration time.Duration `env:"SCRUB_BASIC_MIN_DURATION" default:"6s"`

	// YieldEvery is how many rows a prison scrub processes between yields.
	YieldEvery int `env:"SCRUB_YIELD_EVERY" default:"5"`

	DefaultTier string `env:"SCRUB_DEFAULT_TIER" default:"basic"`

	// Account is the balance account charged by the server.
	Account string `env:"SCRUB_ACCOUNT" default:"default"`

	// StartBubbles seeds a new account's balance.
	StartBubbles int `env:"SCRUB_START_BUBBLES" default:"100"`
}

// LookupConfig configures the phone lookup provider.
type LookupConfig struct {
	// Provider is hlr, twilio or proxy. Empty disables the prison tier.
	Provider string `env:"LOOKUP_PROVIDER" default:""`

	HLRURL    string `env:"HLR_API_URL"`
	HLRKey    string `env:"HLRLOOKUP_API_KEY" envAlt:"HLR_API_KEY"`
	HLRSecret string `env:"HLRLOOKUP_API_SECRET" envAlt:"HLR_API_SECRET"`

	TwilioURL        string `env:"TWILIO_LOOKUP_URL"`
	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"`

	// ProxyURL points at another PropScrub's /api/validatePhone.
	ProxyURL string `env:"PHONE_LOOKUP_PROXY_URL" envAlt:"LOOKUP_PROXY_URL"`

	Timeout           time.Duration `env:"LOOKUP_TIMEOUT" default:"15s"`
	RequestsPerSecond float64       `env:"LOOKUP_REQUESTS_PER_SECOND" default:"10"`
}

// CRMConfig configures the GoHighLevel integration.
type CRMConfig struct {
	BaseURL    string `env:"GHL_API_URL" default:"https://services.leadconnectorhq.com"`
	PrivateKey string `env:"GHL_PRIVATE_KEY" envAlt:"GHL_API_KEY"`
	LocationID string `env:"GHL_LOCATION_ID"`
	APIVersion string `env:"GHL_API_VERSION" default:"2021-07-28"`

	// ExportDelay spaces contact writes during an export.
	ExportDelay time.Duration `env:"GHL_EXPORT_DELAY" default:"500ms"`

	RequestsPerSecond float64 `env:"GHL_REQUESTS_PER_SECOND" default:"8"`
	DefaultType       string  `env:"GHL_DEFAULT_CONTACT_TYPE" default:"Seller"`
}

// Enabled reports whether GoHighLevel credentials are present.
func (c CRMConfig) Enabled() bool {
	return c.PrivateKey != "" && c.LocationID != ""
}

// HistoryConfig controls scrub run history retention.
type HistoryConfig struct {
	RetentionDays int           `env:"HISTORY_RETENTION_DAYS" default:"90"`
	CheckInterval time.Duration `env:"HISTORY_CHECK_INTERVAL" default:"24h"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
