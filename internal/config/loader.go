package config

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// SecretPrefix marks a setting whose value is a Secret Manager reference.
// Both gcpsm://projects/<p>/secrets/<s> and the short gcpsm://<s> form are
// accepted; the short form needs GCP_PROJECT_ID.
const SecretPrefix = "gcpsm://"

// SecretResolver fetches the latest version of a secret by resource name
// (projects/<p>/secrets/<s>).
type SecretResolver interface {
	ResolveSecret(ctx context.Context, name string) (string, error)
}

// MissingError lists required environment variables that are not set.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return "required environment variable(s) not set: " + strings.Join(e.Names, ", ")
}

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	return LoadWithSecrets(context.Background(), nil)
}

// LoadWithSecrets is Load with Secret Manager references resolved through r
// before validation. A nil resolver leaves references untouched.
func LoadWithSecrets(ctx context.Context, r SecretResolver) (*Config, error) {
	cfg := &Config{}

	var missing []string
	if err := loadStruct(reflect.ValueOf(cfg).Elem(), &missing); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("config load: %w", &MissingError{Names: missing})
	}

	if r != nil {
		if err := resolveSecrets(ctx, reflect.ValueOf(cfg).Elem(), cfg.Secrets.ProjectID, r); err != nil {
			return nil, fmt.Errorf("config secrets: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// loadStruct recursively populates struct fields from environment variables.
// Unset required variables are appended to missing rather than returned, so
// one run reports all of them.
func loadStruct(v reflect.Value, missing *[]string) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal, missing); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		if value == "" {
			if required {
				*missing = append(*missing, envName)
				continue
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		// Handle time.Duration specially
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float: %w", err)
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			// Split comma-separated values, trim whitespace
			parts := strings.Split(value, ",")
			result := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					result = append(result, p)
				}
			}
			field.Set(reflect.ValueOf(result))
		} else {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// resolveSecrets replaces every string (and string slice element) that
// starts with SecretPrefix by the secret's value.
func resolveSecrets(ctx context.Context, v reflect.Value, projectID string, r SecretResolver) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		fieldVal := v.Field(i)
		if !fieldVal.CanSet() {
			continue
		}
		switch fieldVal.Kind() {
		case reflect.Struct:
			if err := resolveSecrets(ctx, fieldVal, projectID, r); err != nil {
				return err
			}
		case reflect.String:
			resolved, err := resolveValue(ctx, fieldVal.String(), projectID, r)
			if err != nil {
				return fmt.Errorf("%s: %w", t.Field(i).Tag.Get("env"), err)
			}
			fieldVal.SetString(resolved)
		case reflect.Slice:
			if fieldVal.Type().Elem().Kind() != reflect.String {
				continue
			}
			for j := 0; j < fieldVal.Len(); j++ {
				elem := fieldVal.Index(j)
				resolved, err := resolveValue(ctx, elem.String(), projectID, r)
				if err != nil {
					return fmt.Errorf("%s: %w", t.Field(i).Tag.Get("env"), err)
				}
				elem.SetString(resolved)
			}
		}
	}
	return nil
}

func resolveValue(ctx context.Context, value, projectID string, r SecretResolver) (string, error) {
	ref, ok := strings.CutPrefix(value, SecretPrefix)
	if !ok {
		return value, nil
	}
	name, err := SecretName(ref, projectID)
	if err != nil {
		return "", err
	}
	return r.ResolveSecret(ctx, name)
}

// SecretName expands a reference to a full secret resource name.
func SecretName(ref, projectID string) (string, error) {
	if strings.HasPrefix(ref, "projects/") {
		return ref, nil
	}
	if ref == "" {
		return "", fmt.Errorf("empty secret reference")
	}
	if projectID == "" {
		return "", fmt.Errorf("secret reference %q needs GCP_PROJECT_ID", ref)
	}
	return "projects/" + projectID + "/secrets/" + ref, nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Required values, for configs built in code rather than by Load
	if c.Sheets.SpreadsheetID == "" {
		errs = append(errs, "SPREADSHEET_ID is required")
	}
	if c.Sheets.ServiceAccountKey == "" {
		errs = append(errs, "GOOGLE_SERVICE_ACCOUNT_KEY is required")
	}
	if c.Commerce.AccessToken == "" {
		errs = append(errs, "WIX_ACCESS_TOKEN is required")
	}
	if c.Commerce.SiteID == "" {
		errs = append(errs, "WIX_SITE_ID is required")
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}

	// Sheets validation
	if c.Sheets.ImportRange == "" || c.Sheets.ControlRange == "" || c.Sheets.DeliveryRange == "" {
		errs = append(errs, "SHEETS_IMPORT_RANGE, SHEETS_CONTROL_RANGE and SHEETS_DELIVERY_RANGE must not be empty")
	}

	// Commerce validation
	if c.Commerce.PageSize <= 0 || c.Commerce.PageSize > 100 {
		errs = append(errs, fmt.Sprintf("WIX_PAGE_SIZE (%d) must be 1-100", c.Commerce.PageSize))
	}
	if c.Commerce.MaxPages <= 0 {
		errs = append(errs, "WIX_MAX_PAGES must be positive")
	}
	if c.Commerce.RequestsPerSecond <= 0 {
		errs = append(errs, "WIX_REQUESTS_PER_SECOND must be positive")
	}
	if c.Commerce.Burst <= 0 {
		errs = append(errs, "WIX_BURST must be positive")
	}

	// Feed validation
	if _, err := c.Feed.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("FEED_TIME_ZONE (%q) is not a valid time zone", c.Feed.TimeZone))
	}
	if c.Feed.DispatchCutoffHour < 0 || c.Feed.DispatchCutoffHour > 24 {
		errs = append(errs, fmt.Sprintf("FEED_DISPATCH_CUTOFF_HOUR (%d) must be 0-24", c.Feed.DispatchCutoffHour))
	}
	if c.Feed.MaxConcurrentBuilds <= 0 {
		errs = append(errs, fmt.Sprintf("FEED_MAX_CONCURRENT_BUILDS (%d) must be positive", c.Feed.MaxConcurrentBuilds))
	}
	if c.Feed.MaxPayInParts < 0 {
		errs = append(errs, "FEED_MAX_PAY_IN_PARTS must be non-negative")
	}
	if c.Feed.StockSecret != "" && c.Feed.StockSecretHeader == "" {
		errs = append(errs, "STOCK_FEED_SECRET_HEADER is required when STOCK_FEED_SECRET is set")
	}

	// Drive validation
	if c.Drive.Enabled && c.Drive.FileName == "" {
		errs = append(errs, "DRIVE_FILE_NAME is required when DRIVE_ENABLED is true")
	}

	// Database validation
	if c.HistoryEnabled() {
		if c.Database.MaxConns < c.Database.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.Database.MaxConns, c.Database.MinConns))
		}
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.History.RetentionDays <= 0 {
			errs = append(errs, "HISTORY_RETENTION_DAYS must be positive")
		}
		if c.History.CheckInterval <= 0 {
			errs = append(errs, "HISTORY_CHECK_INTERVAL must be positive")
		}
	}
	if c.History.DefaultLimit <= 0 {
		errs = append(errs, "HISTORY_DEFAULT_LIMIT must be positive")
	}

	// Security validation
	if c.Drive.Enabled && c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "DRIVE_ENABLED needs API_KEYS when REQUIRE_API_KEY is true; configure at least one API key or disable auth")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Credentials are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Sheets: {SpreadsheetID: %q, ServiceAccountKey: [MASKED], Ranges: [%q %q %q]}, ",
		c.Sheets.SpreadsheetID, c.Sheets.ImportRange, c.Sheets.ControlRange, c.Sheets.DeliveryRange))
	b.WriteString(fmt.Sprintf("Commerce: {BaseURL: %q, SiteID: %q, AccessToken: [MASKED], MaxPages: %d}, ",
		c.Commerce.BaseURL, c.Commerce.SiteID, c.Commerce.MaxPages))
	b.WriteString(fmt.Sprintf("Feed: {TimeZone: %q, CutoffHour: %d, StockSecret: %s}, ",
		c.Feed.TimeZone, c.Feed.DispatchCutoffHour, maskIfSet(c.Feed.StockSecret)))
	b.WriteString(fmt.Sprintf("Drive: {Enabled: %v, FileName: %q}, ", c.Drive.Enabled, c.Drive.FileName))
	b.WriteString(fmt.Sprintf("Database: {URL: %s, MaxConns: %d}, ", maskIfSet(c.Database.URL), c.Database.MaxConns))
	b.WriteString(fmt.Sprintf("Security: {RequireAPIKey: %v, APIKeys: %d}, ", c.Security.RequireAPIKey, len(c.Security.APIKeys)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}

func maskIfSet(s string) string {
	if s == "" {
		return `""`
	}
	return "[MASKED]"
}
