// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Sheets   SheetsConfig
	Commerce CommerceConfig
	Feed     FeedConfig
	Drive    DriveConfig
	Database DatabaseConfig
	History  HistoryConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Secrets  SecretsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"90s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds a whole feed build, both fetch phases included (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// SheetsConfig holds spreadsheet access settings.
type SheetsConfig struct {
	// SpreadsheetID identifies the catalog spreadsheet (required)
	SpreadsheetID string `env:"SPREADSHEET_ID" required:"true"`

	// ServiceAccountKey is the JSON key of the Google service account (required)
	ServiceAccountKey string `env:"GOOGLE_SERVICE_ACCOUNT_KEY" required:"true"`

	ImportRange   string `env:"SHEETS_IMPORT_RANGE" default:"Import!A1:ZZ"`
	ControlRange  string `env:"SHEETS_CONTROL_RANGE" default:"Feed Control List!A1:F"`
	DeliveryRange string `env:"SHEETS_DELIVERY_RANGE" default:"Delivery!A1:C"`

	// ValueRenderOption is passed to the Sheets API (default: FORMATTED_VALUE)
	ValueRenderOption string `env:"SHEETS_VALUE_RENDER_OPTION" default:"FORMATTED_VALUE"`
}

// CommerceConfig holds store API settings.
type CommerceConfig struct {
	BaseURL     string `env:"WIX_BASE_URL" default:"https://www.wixapis.com"`
	AccessToken string `env:"WIX_ACCESS_TOKEN" envAlt:"WIX_API_KEY" required:"true"`
	SiteID      string `env:"WIX_SITE_ID" required:"true"`

	// PageSize is the product query page size (default: 100)
	PageSize int `env:"WIX_PAGE_SIZE" default:"100"`

	// MaxPages bounds the catalog walk regardless of what the API reports (default: 50)
	MaxPages int `env:"WIX_MAX_PAGES" default:"50"`

	RequestsPerSecond float64       `env:"WIX_REQUESTS_PER_SECOND" default:"5"`
	Burst             int           `env:"WIX_BURST" default:"5"`
	Timeout           time.Duration `env:"WIX_TIMEOUT" default:"20s"`
}

// FeedConfig holds feed business settings.
type FeedConfig struct {
	// TimeZone is the business time zone for days_to_dispatch (default: Europe/Kyiv)
	TimeZone string `env:"FEED_TIME_ZONE" default:"Europe/Kyiv"`

	// DispatchCutoffHour is the local hour after which orders ship next day (default: 14)
	DispatchCutoffHour int `env:"FEED_DISPATCH_CUTOFF_HOUR" default:"14"`

	MaxPayInParts int `env:"FEED_MAX_PAY_IN_PARTS" default:"3"`

	// StockSecret enables the shared-secret check on the stock feed when set
	StockSecret       string `env:"STOCK_FEED_SECRET"`
	StockSecretHeader string `env:"STOCK_FEED_SECRET_HEADER" default:"X-Feed-Secret"`

	// CacheSharedMaxAge is the s-maxage sent with the offer feed (default: 5m)
	CacheSharedMaxAge time.Duration `env:"FEED_CACHE_S_MAXAGE" default:"5m"`

	// MaxConcurrentBuilds caps feed builds running at once (default: 4)
	MaxConcurrentBuilds int `env:"FEED_MAX_CONCURRENT_BUILDS" default:"4"`

	// BuildWait is how long a request waits for a build slot (default: 30s)
	BuildWait time.Duration `env:"FEED_BUILD_WAIT" default:"30s"`
}

// DriveConfig holds offer-feed publishing settings.
type DriveConfig struct {
	Enabled  bool   `env:"DRIVE_ENABLED" default:"false"`
	FileName string `env:"DRIVE_FILE_NAME" default:"offers.xml"`

	// FolderID is the parent folder for a newly created file (optional)
	FolderID string `env:"DRIVE_FOLDER_ID"`
}

// DatabaseConfig holds the optional feed history database settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. History is disabled when empty.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"5"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"0"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// HistoryConfig holds feed build history retention settings.
type HistoryConfig struct {
	// RetentionDays is how long build records are kept (default: 30)
	RetentionDays int `env:"HISTORY_RETENTION_DAYS" default:"30"`

	// CheckInterval is how often the purge job runs (default: 24h)
	CheckInterval time.Duration `env:"HISTORY_CHECK_INTERVAL" default:"24h"`

	// DefaultLimit is the page size of GET /api/feed-builds (default: 50)
	DefaultLimit int `env:"HISTORY_DEFAULT_LIMIT" default:"50"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey protects admin endpoints with X-API-Key (default: true)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"true"`

	// APIKeys is a comma-separated list of accepted admin keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// SecretsConfig holds Secret Manager settings.
type SecretsConfig struct {
	// ProjectID expands short references like gcpsm://name (optional)
	ProjectID string `env:"GCP_PROJECT_ID" envAlt:"GOOGLE_CLOUD_PROJECT"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// HistoryEnabled reports whether feed builds are recorded.
func (c *Config) HistoryEnabled() bool {
	return c.Database.URL != ""
}

// Location loads the business time zone.
func (c *FeedConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}
