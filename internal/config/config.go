// Package config provides configuration management for the site auditor
// Supports multiple configuration sources: YAML, JSON, environment variables, and command line flags
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Almahr1/seoaudit/internal/report"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// DefaultUserAgent mimics a desktop browser; many sites serve reduced markup to unknown agents
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// EnvPrefix is prepended to every environment variable read by LoadConfig
const EnvPrefix = "SEOAUDIT"

// Config represents the complete application configuration
type Config struct {
	// Audit scope and toggles
	Audit AuditConfig `mapstructure:"audit" yaml:"audit" json:"audit"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`

	// HTTP client settings
	HTTP HTTPConfig `mapstructure:"http" yaml:"http" json:"http"`

	// Report rendering
	Report ReportConfig `mapstructure:"report" yaml:"report" json:"report"`

	// Monitoring and observability
	Monitoring MonitoringConfig `mapstructure:"monitoring" yaml:"monitoring" json:"monitoring"`

	// Optional external metric sources
	Providers ProviderConfig `mapstructure:"providers" yaml:"providers" json:"providers"`

	configFileUsed string `json:"-" yaml:"-"`
}

// AuditConfig holds crawl budget, scope and site-asset toggles
type AuditConfig struct {
	MaxPages           int      `mapstructure:"max_pages" yaml:"max_pages" json:"max_pages"`
	Workers            int      `mapstructure:"workers" yaml:"workers" json:"workers"`
	AllowSubdomains    bool     `mapstructure:"allow_subdomains" yaml:"allow_subdomains" json:"allow_subdomains"`
	AllowOutsideFolder bool     `mapstructure:"allow_outside_folder" yaml:"allow_outside_folder" json:"allow_outside_folder"`
	IgnoreQuery        bool     `mapstructure:"ignore_query" yaml:"ignore_query" json:"ignore_query"`
	RespectRobots      bool     `mapstructure:"respect_robots" yaml:"respect_robots" json:"respect_robots"`
	CheckRobots        bool     `mapstructure:"check_robots" yaml:"check_robots" json:"check_robots"`
	CheckSitemap       bool     `mapstructure:"check_sitemap" yaml:"check_sitemap" json:"check_sitemap"`
	Sitemaps           []string `mapstructure:"sitemaps" yaml:"sitemaps" json:"sitemaps"`
	MaxSitemaps        int      `mapstructure:"max_sitemaps" yaml:"max_sitemaps" json:"max_sitemaps"`
	TargetCountry      string   `mapstructure:"target_country" yaml:"target_country" json:"target_country"`
	PerfPages          int      `mapstructure:"perf_pages" yaml:"perf_pages" json:"perf_pages"`
}

// RateLimitConfig holds per-host pacing
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst" json:"burst"`
	PerHostLimit      bool    `mapstructure:"per_host_limit" yaml:"per_host_limit" json:"per_host_limit"`
}

// HTTPConfig holds HTTP client settings
type HTTPConfig struct {
	UserAgent                 string        `mapstructure:"user_agent" yaml:"user_agent" json:"user_agent"`
	MaxIdleConnections        int           `mapstructure:"max_idle_connections" yaml:"max_idle_connections" json:"max_idle_connections"`
	MaxIdleConnectionsPerHost int           `mapstructure:"max_idle_connections_per_host" yaml:"max_idle_connections_per_host" json:"max_idle_connections_per_host"`
	IdleConnectionTimeout     time.Duration `mapstructure:"idle_connection_timeout" yaml:"idle_connection_timeout" json:"idle_connection_timeout"`
	Timeout                   time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	DialTimeout               time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout" json:"dial_timeout"`
	TLSHandshakeTimeout       time.Duration `mapstructure:"tls_handshake_timeout" yaml:"tls_handshake_timeout" json:"tls_handshake_timeout"`
	ResponseHeaderTimeout     time.Duration `mapstructure:"response_header_timeout" yaml:"response_header_timeout" json:"response_header_timeout"`
	MaxBodyBytes              int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes" json:"max_body_bytes"`
	MaxRedirects              int           `mapstructure:"max_redirects" yaml:"max_redirects" json:"max_redirects"`
	DisableCompression        bool          `mapstructure:"disable_compression" yaml:"disable_compression" json:"disable_compression"`
	AcceptEncoding            string        `mapstructure:"accept_encoding" yaml:"accept_encoding" json:"accept_encoding"`
}

// ReportConfig controls how findings are presented
type ReportConfig struct {
	Locale      string `mapstructure:"locale" yaml:"locale" json:"locale"`
	MaxExamples int    `mapstructure:"max_examples" yaml:"max_examples" json:"max_examples"`
	Format      string `mapstructure:"format" yaml:"format" json:"format"`
}

// MonitoringConfig holds logging settings
type MonitoringConfig struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" json:"log_format"`
	LogFile   string `mapstructure:"log_file" yaml:"log_file" json:"log_file"`
}

// ProviderConfig holds credentials for optional metric sources
type ProviderConfig struct {
	PerfEndpoint string `mapstructure:"perf_endpoint" yaml:"perf_endpoint" json:"perf_endpoint"`
	PerfAPIKey   string `mapstructure:"perf_api_key" yaml:"perf_api_key" json:"perf_api_key"`
	GeoEndpoint  string `mapstructure:"geo_endpoint" yaml:"geo_endpoint" json:"geo_endpoint"`
}

// FlagKeys maps CLI flag names to configuration keys
var FlagKeys = map[string]string{
	"max-pages":            "audit.max_pages",
	"workers":              "audit.workers",
	"allow-subdomains":     "audit.allow_subdomains",
	"allow-outside-folder": "audit.allow_outside_folder",
	"ignore-query":         "audit.ignore_query",
	"respect-robots":       "audit.respect_robots",
	"check-robots":         "audit.check_robots",
	"check-sitemap":        "audit.check_sitemap",
	"sitemap":              "audit.sitemaps",
	"target-country":       "audit.target_country",
	"user-agent":           "http.user_agent",
	"timeout":              "http.timeout",
	"rps":                  "rate_limit.requests_per_second",
	"locale":               "report.locale",
	"examples":             "report.max_examples",
	"format":               "report.format",
	"log-level":            "monitoring.log_level",
	"log-format":           "monitoring.log_format",
}

// LoadConfig loads configuration from multiple sources in order of precedence:
// 1. Command line flags
// 2. Environment variables
// 3. Configuration file
// 4. Default values
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("specified config file does not exist: %s", configPath)
		}
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("seoaudit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".seoaudit"))
		}
		v.AddConfigPath("/etc/seoaudit")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	BindEnvVariables(v)

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileUsed = v.ConfigFileUsed()
	}

	if flags != nil {
		if err := BindFlags(v, flags); err != nil {
			return nil, fmt.Errorf("failed to bind command flags: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.configFileUsed = configFileUsed

	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// BindFlags binds dashed CLI flags through FlagKeys; flags already named after a key bind directly
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		key, ok := FlagKeys[f.Name]
		if !ok {
			key = f.Name
		}
		bindErr = v.BindPFlag(key, f)
	})
	return bindErr
}

// BindEnvVariables binds short aliases for commonly overridden settings
func BindEnvVariables(v *viper.Viper) {
	envMappings := map[string]string{
		"http.user_agent":                "SEOAUDIT_USER_AGENT",
		"rate_limit.requests_per_second": "SEOAUDIT_RPS",
		"monitoring.log_level":           "SEOAUDIT_LOG_LEVEL",
		"monitoring.log_file":            "SEOAUDIT_LOG_FILE",
		"report.locale":                  "SEOAUDIT_LOCALE",
		"providers.perf_api_key":         "SEOAUDIT_PERF_API_KEY",
		"providers.perf_endpoint":        "SEOAUDIT_PERF_ENDPOINT",
	}

	for key, env := range envMappings {
		_ = v.BindEnv(key, env)
	}
}

// SetDefaults sets all default configuration values
func SetDefaults(v *viper.Viper) {
	v.SetDefault("audit.max_pages", 50)
	v.SetDefault("audit.workers", 1)
	v.SetDefault("audit.allow_subdomains", false)
	v.SetDefault("audit.allow_outside_folder", false)
	v.SetDefault("audit.ignore_query", false)
	v.SetDefault("audit.respect_robots", false)
	v.SetDefault("audit.check_robots", true)
	v.SetDefault("audit.check_sitemap", true)
	v.SetDefault("audit.sitemaps", []string{})
	v.SetDefault("audit.max_sitemaps", 10)
	v.SetDefault("audit.target_country", "")
	v.SetDefault("audit.perf_pages", 1)

	v.SetDefault("rate_limit.requests_per_second", 5.0)
	v.SetDefault("rate_limit.burst", 5)
	v.SetDefault("rate_limit.per_host_limit", true)

	v.SetDefault("http.user_agent", DefaultUserAgent)
	v.SetDefault("http.max_idle_connections", 100)
	v.SetDefault("http.max_idle_connections_per_host", 10)
	v.SetDefault("http.idle_connection_timeout", "90s")
	v.SetDefault("http.timeout", "10s")
	v.SetDefault("http.dial_timeout", "5s")
	v.SetDefault("http.tls_handshake_timeout", "10s")
	v.SetDefault("http.response_header_timeout", "10s")
	v.SetDefault("http.max_body_bytes", 5*1024*1024)
	v.SetDefault("http.max_redirects", 10)
	v.SetDefault("http.disable_compression", false)
	v.SetDefault("http.accept_encoding", "gzip, deflate, br")

	v.SetDefault("report.locale", "en")
	v.SetDefault("report.max_examples", 3)
	v.SetDefault("report.format", "table")

	v.SetDefault("monitoring.log_level", "info")
	v.SetDefault("monitoring.log_format", "text")
	v.SetDefault("monitoring.log_file", "")
}

// ValidateConfig validates every section of the configuration
func ValidateConfig(config *Config) error {
	if config.Audit.MaxPages <= 0 {
		return fmt.Errorf("audit.max_pages must be positive, got %d", config.Audit.MaxPages)
	}
	if config.Audit.Workers <= 0 {
		return fmt.Errorf("audit.workers must be positive, got %d", config.Audit.Workers)
	}
	if config.Audit.MaxSitemaps <= 0 {
		return fmt.Errorf("audit.max_sitemaps must be positive, got %d", config.Audit.MaxSitemaps)
	}
	if config.Audit.PerfPages < 0 {
		return fmt.Errorf("audit.perf_pages must be non-negative, got %d", config.Audit.PerfPages)
	}
	if c := config.Audit.TargetCountry; c != "" && len(c) != 2 {
		return fmt.Errorf("audit.target_country must be an ISO 3166 alpha-2 code, got %q", c)
	}
	for i, sitemap := range config.Audit.Sitemaps {
		if !strings.HasPrefix(sitemap, "http://") && !strings.HasPrefix(sitemap, "https://") {
			return fmt.Errorf("audit.sitemaps[%d] must be a valid HTTP/HTTPS URL, got: %s", i, sitemap)
		}
	}

	if config.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limit.requests_per_second must be positive, got %f", config.RateLimit.RequestsPerSecond)
	}
	if config.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit.burst must be positive, got %d", config.RateLimit.Burst)
	}

	if config.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent cannot be empty")
	}
	if config.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %v", config.HTTP.Timeout)
	}
	if config.HTTP.MaxIdleConnections <= 0 {
		return fmt.Errorf("http.max_idle_connections must be positive, got %d", config.HTTP.MaxIdleConnections)
	}
	if config.HTTP.MaxIdleConnectionsPerHost <= 0 {
		return fmt.Errorf("http.max_idle_connections_per_host must be positive, got %d", config.HTTP.MaxIdleConnectionsPerHost)
	}
	if config.HTTP.MaxIdleConnectionsPerHost > config.HTTP.MaxIdleConnections {
		return fmt.Errorf("http.max_idle_connections_per_host (%d) cannot exceed max_idle_connections (%d)",
			config.HTTP.MaxIdleConnectionsPerHost, config.HTTP.MaxIdleConnections)
	}
	if config.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("http.max_body_bytes must be positive, got %d", config.HTTP.MaxBodyBytes)
	}
	if config.HTTP.MaxRedirects < 0 {
		return fmt.Errorf("http.max_redirects must be non-negative, got %d", config.HTTP.MaxRedirects)
	}

	if _, err := report.Catalog(config.Report.Locale); err != nil {
		return fmt.Errorf("unsupported report.locale: %s. Supported locales: %v", config.Report.Locale, report.Locales())
	}
	if config.Report.MaxExamples <= 0 {
		return fmt.Errorf("report.max_examples must be positive, got %d", config.Report.MaxExamples)
	}
	validFormats := map[string]bool{"table": true, "json": true}
	if !validFormats[config.Report.Format] {
		return fmt.Errorf("invalid report.format: %s. Valid options: %s", config.Report.Format, strings.Join(GetKeys(validFormats), ", "))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[config.Monitoring.LogLevel] {
		return fmt.Errorf("invalid monitoring.log_level: %s. Valid options: debug, info, warn, error", config.Monitoring.LogLevel)
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[config.Monitoring.LogFormat] {
		return fmt.Errorf("invalid monitoring.log_format: %s. Valid options: json, text", config.Monitoring.LogFormat)
	}

	if err := CreateDirectories(config); err != nil {
		return fmt.Errorf("failed to create required directories: %w", err)
	}

	return nil
}

// GetKeys returns the sorted keys of a map[string]bool
func GetKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CreateDirectories creates the log file directory when one is configured
func CreateDirectories(config *Config) error {
	if config.Monitoring.LogFile == "" {
		return nil
	}
	logDir := filepath.Dir(config.Monitoring.LogFile)
	if logDir == "." {
		return nil
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", logDir, err)
	}
	return nil
}

// GetLogger creates a configured logger based on monitoring settings
func (c *Config) GetLogger() (*zap.Logger, error) {
	var zapConfig zap.Config

	if c.Monitoring.LogFormat == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level := zap.InfoLevel
	switch c.Monitoring.LogLevel {
	case "debug":
		level = zap.DebugLevel
	case "warn":
		level = zap.WarnLevel
	case "error":
		level = zap.ErrorLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	// stdout carries the report itself
	zapConfig.OutputPaths = []string{"stderr"}
	if c.Monitoring.LogFile != "" {
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, c.Monitoring.LogFile)
	}

	return zapConfig.Build()
}

// String returns a string representation of the configuration with credentials redacted
func (c *Config) String() string {
	configCopy := *c
	configCopy.Providers.PerfAPIKey = Redact(configCopy.Providers.PerfAPIKey)
	return fmt.Sprintf("%+v", configCopy)
}

// Redact replaces sensitive values with asterisks
func Redact(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****"
	}
	return value[:2] + strings.Repeat("*", len(value)-4) + value[len(value)-2:]
}

// ConfigFileUsed returns the path of the configuration file that was used to load the config
func (c *Config) ConfigFileUsed() string {
	return c.configFileUsed
}
