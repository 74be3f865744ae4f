package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application. Values come from an
// optional YAML file named by CONFIG_FILE, then environment variables.
type Config struct {
	// Database
	DatabaseURL      string        `yaml:"database_url"`
	DatabaseProvider string        `yaml:"database_provider"`
	DBMaxOpenConns   int           `yaml:"db_max_open_conns"`
	DBMaxIdleConns   int           `yaml:"db_max_idle_conns"`
	DBBusyTimeout    time.Duration `yaml:"-"` // file key db_busy_timeout, see UnmarshalYAML

	// Server ports
	APIPort    int    `yaml:"api_port"`
	SMTPPort   int    `yaml:"smtp_port"`
	SMTPDomain string `yaml:"smtp_domain"`

	// Storage
	RecordingStoragePath string `yaml:"recording_storage_path"`

	// Messages
	MessageBatchSize int    `yaml:"message_batch_size"`
	MessageOrder     string `yaml:"message_order"`
	InboxDTMF        int    `yaml:"inbox_dtmf"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Security
	APIKey         string `yaml:"api_key"`
	AllowedOrigins string `yaml:"allowed_origins"`
	AppEnv         string `yaml:"app_env"`

	// Rate Limiting
	RateLimitRequests float64 `yaml:"rate_limit_requests"`
	RateLimitBurst    int     `yaml:"rate_limit_burst"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		DBBusyTimeout:        5 * time.Second,
		APIPort:              8080,
		SMTPPort:             2525,
		SMTPDomain:           "localhost",
		RecordingStoragePath: "./recordings",
		MessageBatchSize:     50,
		MessageOrder:         "date",
		InboxDTMF:            0,
		LogLevel:             "info",
		AppEnv:               "development",
		RateLimitRequests:    10.0,
		RateLimitBurst:       20,
	}
}

// Load reads configuration from CONFIG_FILE (if set) and environment variables
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	return cfg, nil
}

// loadFile overlays values from a YAML file. ${VAR} references are expanded
// before parsing.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// UnmarshalYAML decodes a config file over the current values. Durations are
// written as strings such as "5s".
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type plain Config
	file := struct {
		plain         `yaml:",inline"`
		DBBusyTimeout *duration `yaml:"db_busy_timeout"`
	}{plain: plain(*c)}

	if err := node.Decode(&file); err != nil {
		return err
	}

	*c = Config(file.plain)
	if file.DBBusyTimeout != nil {
		c.DBBusyTimeout = time.Duration(*file.DBBusyTimeout)
	}
	return nil
}

// duration is a time.Duration read from a YAML string.
type duration time.Duration

func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = duration(v)
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} with the variable's value, or nothing
// when it is unset.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

func (c *Config) loadEnv() error {
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.DatabaseProvider, "DATABASE_PROVIDER")
	setString(&c.SMTPDomain, "SMTP_DOMAIN")
	setString(&c.RecordingStoragePath, "RECORDING_STORAGE_PATH")
	setString(&c.MessageOrder, "MESSAGE_ORDER")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.APIKey, "API_KEY")
	setString(&c.AllowedOrigins, "ALLOWED_ORIGINS")
	setString(&c.AppEnv, "APP_ENV")

	ints := []struct {
		name string
		dst  *int
	}{
		{"API_PORT", &c.APIPort},
		{"SMTP_PORT", &c.SMTPPort},
		{"DB_MAX_OPEN_CONNS", &c.DBMaxOpenConns},
		{"DB_MAX_IDLE_CONNS", &c.DBMaxIdleConns},
		{"MESSAGE_BATCH_SIZE", &c.MessageBatchSize},
		{"INBOX_DTMF", &c.InboxDTMF},
		{"RATE_LIMIT_BURST", &c.RateLimitBurst},
	}
	for _, v := range ints {
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s must be a valid integer: %w", v.name, err)
		}
		*v.dst = n
	}

	if rps := os.Getenv("RATE_LIMIT_REQUESTS"); rps != "" {
		v, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be a valid number: %w", err)
		}
		c.RateLimitRequests = v
	}

	if raw := os.Getenv("DB_BUSY_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("DB_BUSY_TIMEOUT must be a valid duration: %w", err)
		}
		c.DBBusyTimeout = d
	}

	return nil
}

func setString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DatabaseURL cannot be empty")
	}
	switch strings.ToLower(c.DatabaseProvider) {
	case "", "postgres", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("DatabaseProvider must be postgres or sqlite, got %q", c.DatabaseProvider)
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("SMTPPort must be between 1 and 65535")
	}
	if c.RecordingStoragePath == "" {
		return fmt.Errorf("RecordingStoragePath cannot be empty")
	}
	if c.MessageBatchSize <= 0 {
		return fmt.Errorf("MessageBatchSize must be positive")
	}
	switch c.MessageOrder {
	case "", "date", "unread_first":
	default:
		return fmt.Errorf("MessageOrder must be date or unread_first, got %q", c.MessageOrder)
	}
	if c.InboxDTMF < 0 || c.InboxDTMF > 9 {
		return fmt.Errorf("InboxDTMF must be a digit 0-9")
	}
	if c.DBBusyTimeout < 0 {
		return fmt.Errorf("DBBusyTimeout cannot be negative")
	}
	return nil
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required in production")
	}

	if c.AllowedOrigins == "" {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}

	if strings.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("wildcard (*) origins are not allowed in production")
	}

	if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		return fmt.Errorf("sslmode=disable is not allowed in production")
	}

	return nil
}

// Origins splits AllowedOrigins on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.String("database_provider", c.DatabaseProvider),
		slog.Duration("db_busy_timeout", c.DBBusyTimeout),
		slog.Int("api_port", c.APIPort),
		slog.Int("smtp_port", c.SMTPPort),
		slog.String("smtp_domain", c.SMTPDomain),
		slog.String("storage_path", c.RecordingStoragePath),
		slog.Int("message_batch_size", c.MessageBatchSize),
		slog.String("message_order", c.MessageOrder),
		slog.Int("inbox_dtmf", c.InboxDTMF),
		slog.String("log_level", c.LogLevel),
		slog.String("app_env", c.AppEnv),
		slog.Bool("api_key_set", c.APIKey != ""),
		slog.Bool("allowed_origins_set", c.AllowedOrigins != ""),
		slog.Float64("rate_limit_rps", c.RateLimitRequests),
		slog.Int("rate_limit_burst", c.RateLimitBurst),
	)
}
