package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supplier names
const (
	SupplierRapidAPI = "rapidapi"
	SupplierJoJAPI   = "jojapi"
)

// Legacy environment variable names for the supplier API keys.
const (
	EnvRapidAPIKey = "X-RapidAPI-Key"
	EnvJoJAPIKey   = "X-JoJAPI-Key"
)

// Config holds all configuration options for the follower fetcher
type Config struct {
	// Supplier selection and credentials
	Supplier SupplierConfig `yaml:"supplier" json:"supplier"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry configuration
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Fetch pipeline settings
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Detail flag cache
	Cache CacheConfig `yaml:"cache" json:"cache"`

	// Metrics export
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SupplierConfig selects the upstream data supplier and carries its API keys
type SupplierConfig struct {
	Name        string        `yaml:"name" json:"name"`
	RapidAPIKey string        `yaml:"rapidapi_key" json:"-"`
	JoJAPIKey   string        `yaml:"jojapi_key" json:"-"`
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent   string        `yaml:"user_agent" json:"user_agent"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Strategy          string        `yaml:"strategy" json:"strategy"`
	RequestDelay      time.Duration `yaml:"request_delay" json:"request_delay"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int           `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds retry configuration for supplier requests.
// MaxAttempts of 0 retries a failed page forever.
type RetryConfig struct {
	MaxAttempts      int           `yaml:"max_attempts" json:"max_attempts"`
	Strategy         string        `yaml:"strategy" json:"strategy"`
	BaseDelay        time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay         time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier       float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor     float64       `yaml:"jitter_factor" json:"jitter_factor"`
	ChunkMaxAttempts int           `yaml:"chunk_max_attempts" json:"chunk_max_attempts"`
}

// FetchConfig holds the pipeline settings for one run
type FetchConfig struct {
	Request     string `yaml:"request" json:"request"`
	Type        string `yaml:"type" json:"type"`
	PageSize    int    `yaml:"page_size" json:"page_size"`
	ChunkSize   int    `yaml:"chunk_size" json:"chunk_size"`
	Concurrency int    `yaml:"concurrency" json:"concurrency"`
	FullProfile bool   `yaml:"full_profile" json:"full_profile"`
}

// OutputConfig holds output file configuration
type OutputConfig struct {
	Directory       string `yaml:"directory" json:"directory"`
	ExclusionsFile  string `yaml:"exclusions_file" json:"exclusions_file"`
	Delimiter       string `yaml:"delimiter" json:"delimiter"`
	FileNamePattern string `yaml:"file_name_pattern" json:"file_name_pattern"`
	SaveSummary     bool   `yaml:"save_summary" json:"save_summary"`
	Checkpoints     bool   `yaml:"checkpoints" json:"checkpoints"`
}

// CacheConfig holds verification flag cache configuration. Only the redis
// backend outlives a run; memory keeps entries for one process.
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled"`
	Backend       string        `yaml:"backend" json:"backend"`
	RedisAddr     string        `yaml:"redis_addr" json:"redis_addr"`
	RedisPassword string        `yaml:"redis_password" json:"-"`
	RedisDB       int           `yaml:"redis_db" json:"redis_db"`
	TTL           time.Duration `yaml:"ttl" json:"ttl"`
}

// MetricsConfig holds metrics export configuration
type MetricsConfig struct {
	Textfile string `yaml:"textfile" json:"textfile"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	OnComplete       bool   `yaml:"on_complete" json:"on_complete"`
	OnError          bool   `yaml:"on_error" json:"on_error"`
	NotificationType string `yaml:"notification_type" json:"notification_type"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
	JSON  bool   `yaml:"json" json:"json"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Supplier: SupplierConfig{
			Name:    SupplierRapidAPI,
			Timeout: 30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Strategy:          "fixed",
			RequestDelay:      2 * time.Second,
			RequestsPerMinute: 30,
			BurstSize:         1,
		},
		Retry: RetryConfig{
			MaxAttempts:      0, // retry forever
			Strategy:         "constant",
			BaseDelay:        0,
			MaxDelay:         60 * time.Second,
			Multiplier:       2.0,
			JitterFactor:     0,
			ChunkMaxAttempts: 3,
		},
		Fetch: FetchConfig{
			Request:     "followers",
			Type:        "all",
			PageSize:    200,
			ChunkSize:   300,
			Concurrency: 1,
			FullProfile: false,
		},
		Output: OutputConfig{
			Directory:       ".",
			ExclusionsFile:  "exceptions.csv",
			Delimiter:       ",",
			FileNamePattern: "{username}_{request}.csv",
			SaveSummary:     true,
			Checkpoints:     true,
		},
		Cache: CacheConfig{
			Enabled:   false,
			Backend:   "redis",
			RedisAddr: "localhost:6379",
			RedisDB:   0,
			TTL:     24 * time.Hour,
		},
		Notifications: NotificationConfig{
			Enabled:          true,
			OnComplete:       true,
			OnError:          true,
			NotificationType: "terminal",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// APIKey returns the key for the selected supplier.
func (c *Config) APIKey() string {
	switch c.Supplier.Name {
	case SupplierJoJAPI:
		return c.Supplier.JoJAPIKey
	default:
		return c.Supplier.RapidAPIKey
	}
}

// SetAPIKey stores key against the selected supplier.
func (c *Config) SetAPIKey(key string) {
	switch c.Supplier.Name {
	case SupplierJoJAPI:
		c.Supplier.JoJAPIKey = key
	default:
		c.Supplier.RapidAPIKey = key
	}
}

// OutputPath returns the export file path for username and request kind.
func (c *Config) OutputPath(username, request string) string {
	return filepath.Join(c.Output.Directory, c.OutputFileName(username, request))
}

// OutputFileName expands the file name pattern, relative to the output directory
func (c *Config) OutputFileName(username, request string) string {
	return strings.NewReplacer("{username}", username, "{request}", request).Replace(c.Output.FileNamePattern)
}

// ExclusionsPath returns the exclusion file path, resolved against the output
// directory when relative.
func (c *Config) ExclusionsPath() string {
	if filepath.IsAbs(c.Output.ExclusionsFile) {
		return c.Output.ExclusionsFile
	}
	return filepath.Join(c.Output.Directory, c.Output.ExclusionsFile)
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Supplier credentials, legacy names first so prefixed ones win
	if key := os.Getenv(EnvRapidAPIKey); key != "" {
		c.Supplier.RapidAPIKey = key
	}
	if key := os.Getenv(EnvJoJAPIKey); key != "" {
		c.Supplier.JoJAPIKey = key
	}
	if key := os.Getenv("XFOLLOWERS_RAPIDAPI_KEY"); key != "" {
		c.Supplier.RapidAPIKey = key
	}
	if key := os.Getenv("XFOLLOWERS_JOJAPI_KEY"); key != "" {
		c.Supplier.JoJAPIKey = key
	}
	if name := os.Getenv("XFOLLOWERS_SUPPLIER"); name != "" {
		c.Supplier.Name = strings.ToLower(name)
	}
	if baseURL := os.Getenv("XFOLLOWERS_BASE_URL"); baseURL != "" {
		c.Supplier.BaseURL = baseURL
	}

	// Rate limiting
	if delay := os.Getenv("XFOLLOWERS_REQUEST_DELAY"); delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			return fmt.Errorf("invalid XFOLLOWERS_REQUEST_DELAY: %w", err)
		}
		c.RateLimit.RequestDelay = d
	}

	// Retry
	if attempts := os.Getenv("XFOLLOWERS_MAX_ATTEMPTS"); attempts != "" {
		val, err := strconv.Atoi(attempts)
		if err != nil {
			return fmt.Errorf("invalid XFOLLOWERS_MAX_ATTEMPTS: %w", err)
		}
		c.Retry.MaxAttempts = val
	}

	// Output directory
	if outputDir := os.Getenv("XFOLLOWERS_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}
	if exclusions := os.Getenv("XFOLLOWERS_EXCLUSIONS_FILE"); exclusions != "" {
		c.Output.ExclusionsFile = exclusions
	}

	// Cache
	if addr := os.Getenv("XFOLLOWERS_REDIS_ADDR"); addr != "" {
		c.Cache.Enabled = true
		c.Cache.Backend = "redis"
		c.Cache.RedisAddr = addr
	}

	// Metrics
	if textfile := os.Getenv("XFOLLOWERS_METRICS_TEXTFILE"); textfile != "" {
		c.Metrics.Textfile = textfile
	}

	// Notifications
	if notifEnabled := os.Getenv("XFOLLOWERS_NOTIFICATIONS_ENABLED"); notifEnabled != "" {
		c.Notifications.Enabled = strings.ToLower(notifEnabled) == "true"
	}

	// Logging level
	if logLevel := os.Getenv("XFOLLOWERS_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".xfollowers.yaml",
		".xfollowers.yml",
		filepath.Join(home, ".config", "xfollowers", "config.yaml"),
		filepath.Join(home, ".config", "xfollowers", "config.yml"),
		filepath.Join(home, ".xfollowers.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid.
// Supplier keys are not checked here; they may come from the credential store.
func (c *Config) Validate() error {
	var errs []error

	switch c.Supplier.Name {
	case SupplierRapidAPI, SupplierJoJAPI:
	default:
		errs = append(errs, fmt.Errorf("unknown supplier %q (want rapidapi or jojapi)", c.Supplier.Name))
	}
	if c.Supplier.Timeout <= 0 {
		errs = append(errs, errors.New("supplier timeout must be positive"))
	}

	switch c.RateLimit.Strategy {
	case "fixed":
		if c.RateLimit.RequestDelay < 0 {
			errs = append(errs, errors.New("request delay cannot be negative"))
		}
	case "token_bucket", "sliding_window":
		if c.RateLimit.RequestsPerMinute <= 0 {
			errs = append(errs, errors.New("requests per minute must be positive"))
		}
		if c.RateLimit.Strategy == "token_bucket" && c.RateLimit.BurstSize <= 0 {
			errs = append(errs, errors.New("burst size must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown rate limit strategy %q", c.RateLimit.Strategy))
	}

	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max attempts cannot be negative"))
	}
	if c.Retry.ChunkMaxAttempts <= 0 {
		errs = append(errs, errors.New("chunk max attempts must be positive"))
	}
	switch c.Retry.Strategy {
	case "constant", "linear", "exponential":
	default:
		errs = append(errs, fmt.Errorf("unknown retry strategy %q", c.Retry.Strategy))
	}
	if c.Retry.BaseDelay < 0 {
		errs = append(errs, errors.New("retry base delay cannot be negative"))
	}

	switch c.Fetch.Request {
	case "followers", "following":
	default:
		errs = append(errs, fmt.Errorf("invalid request %q (want followers or following)", c.Fetch.Request))
	}
	switch c.Fetch.Type {
	case "all", "verified", "nonverified":
	default:
		errs = append(errs, fmt.Errorf("invalid type %q (want all, verified or nonverified)", c.Fetch.Type))
	}
	if c.Fetch.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	if c.Fetch.ChunkSize <= 0 {
		errs = append(errs, errors.New("chunk size must be positive"))
	}
	if c.Fetch.Concurrency <= 0 {
		errs = append(errs, errors.New("concurrency must be positive"))
	}
	if c.Fetch.Concurrency > 10 {
		errs = append(errs, errors.New("concurrency should not exceed 10"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.ExclusionsFile == "" {
		errs = append(errs, errors.New("exclusions file is required"))
	}
	if len([]rune(c.Output.Delimiter)) != 1 {
		errs = append(errs, errors.New("delimiter must be a single character"))
	}
	if !strings.Contains(c.Output.FileNamePattern, "{username}") {
		errs = append(errs, errors.New("file name pattern must contain {username}"))
	}

	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case "memory":
		case "redis":
			if c.Cache.RedisAddr == "" {
				errs = append(errs, errors.New("redis address is required for the redis cache"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown cache backend %q", c.Cache.Backend))
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	validNotifTypes := map[string]bool{
		"terminal": true, "desktop": true, "none": true,
	}
	if !validNotifTypes[strings.ToLower(c.Notifications.NotificationType)] {
		errs = append(errs, errors.New("invalid notification type"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Keys are the long flag names of the fetch command.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if supplier, ok := flags["supplier"].(string); ok && supplier != "" {
		c.Supplier.Name = strings.ToLower(supplier)
	}
	if key, ok := flags["api-key"].(string); ok && key != "" {
		c.SetAPIKey(key)
	}
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.Supplier.BaseURL = baseURL
	}
	if request, ok := flags["request"].(string); ok && request != "" {
		c.Fetch.Request = strings.ToLower(request)
	}
	if typ, ok := flags["type"].(string); ok && typ != "" {
		c.Fetch.Type = strings.ToLower(typ)
	}
	if full, ok := flags["full-profile"].(bool); ok {
		c.Fetch.FullProfile = full
	}
	if concurrency, ok := flags["concurrency"].(int); ok && concurrency > 0 {
		c.Fetch.Concurrency = concurrency
	}
	if delay, ok := flags["request-delay"].(time.Duration); ok && delay >= 0 {
		c.RateLimit.RequestDelay = delay
	}
	if attempts, ok := flags["max-attempts"].(int); ok && attempts >= 0 {
		c.Retry.MaxAttempts = attempts
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if exclusions, ok := flags["exclusions"].(string); ok && exclusions != "" {
		c.Output.ExclusionsFile = exclusions
	}
	if enabled, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = enabled
	}
	if textfile, ok := flags["metrics-textfile"].(string); ok && textfile != "" {
		c.Metrics.Textfile = textfile
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".xfollowers.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
