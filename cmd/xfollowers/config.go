package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"xfollowers/pkg/auth"
	"xfollowers/pkg/config"
	"xfollowers/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage xfollowers configuration files.

Configuration is loaded from, highest priority first:
  - command line flags
  - environment variables (XFOLLOWERS_*, also read from .env)
  - the configuration file
  - default values`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is written to .xfollowers.yaml in the current directory unless
another path is given with --config.`,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging every source.
API keys and passwords are masked.`,
	RunE: runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# xfollowers configuration file
#
# Every option can also be set with an XFOLLOWERS_* environment variable,
# for example XFOLLOWERS_SUPPLIER or XFOLLOWERS_RAPIDAPI_KEY.

supplier:
  # rapidapi or jojapi
  name: rapidapi
  # API keys; prefer 'xfollowers auth login' over storing them here
  rapidapi_key: ""
  jojapi_key: ""
  # Leave empty for the supplier's default
  base_url: ""
  timeout: 30s

rate_limit:
  # fixed, token_bucket or sliding_window
  strategy: fixed
  # Delay before every request (fixed strategy)
  request_delay: 2s
  requests_per_minute: 30
  burst_size: 1

retry:
  # Attempts per page; 0 retries forever without skipping the page
  max_attempts: 0
  # constant, linear or exponential
  strategy: constant
  base_delay: 0s
  max_delay: 60s
  multiplier: 2.0
  jitter_factor: 0
  # Attempts per detail lookup chunk before it is reported as failed
  chunk_max_attempts: 3

fetch:
  # followers or following
  request: followers
  # all, verified or nonverified
  type: all
  page_size: 200
  chunk_size: 300
  # Detail lookups in flight (1-10)
  concurrency: 1
  # Export every profile field instead of the fixed columns
  full_profile: false

output:
  directory: "."
  # Accounts exported by earlier runs, one screen name per line
  exclusions_file: exceptions.csv
  delimiter: ","
  file_name_pattern: "{username}_{request}.csv"
  # Write <output>.summary.json next to the CSV
  save_summary: true
  checkpoints: true

cache:
  # Remember verification flags between runs so re-runs skip known ids
  enabled: false
  # redis keeps entries across runs; memory only lasts one process
  backend: redis
  redis_addr: localhost:6379
  redis_password: ""
  redis_db: 0
  ttl: 24h

metrics:
  # Prometheus textfile written at the end of every run
  textfile: ""

notifications:
  enabled: true
  on_complete: true
  on_error: true
  # terminal, desktop or none
  notification_type: terminal

logging:
  # debug, info, warn or error
  level: info
  # Optional JSON log file
  file: ""
  json: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".xfollowers.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store your supplier key with 'xfollowers auth login'")
	fmt.Println("2. Run 'xfollowers config validate' to check the file")
	fmt.Println("3. Collect followers with 'xfollowers fetch <username>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	display := *cfg
	if display.Supplier.RapidAPIKey != "" {
		display.Supplier.RapidAPIKey = auth.MaskKey(display.Supplier.RapidAPIKey)
	}
	if display.Supplier.JoJAPIKey != "" {
		display.Supplier.JoJAPIKey = auth.MaskKey(display.Supplier.JoJAPIKey)
	}
	if display.Cache.RedisPassword != "" {
		display.Cache.RedisPassword = "********"
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (XFOLLOWERS_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (searched in default locations)")
	}
	fmt.Println("4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		home := os.Getenv("HOME")
		for _, candidate := range []string{
			".xfollowers.yaml",
			".xfollowers.yml",
			filepath.Join(home, ".config", "xfollowers", "config.yaml"),
			filepath.Join(home, ".config", "xfollowers", "config.yml"),
			filepath.Join(home, ".xfollowers.yaml"),
		} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return fmt.Errorf("no configuration file found, specify one with --config")
		}
	}

	ui.PrintInfo("Validating configuration", path)

	cfg, err := config.Load(path, nil)
	if err != nil {
		return err
	}

	var warnings []string
	if cfg.APIKey() == "" {
		stored := ""
		if mgr, err := auth.NewManager(); err == nil {
			stored = mgr.APIKey(cfg.Supplier.Name)
		}
		if stored == "" {
			warnings = append(warnings, fmt.Sprintf("no API key configured or stored for %s", cfg.Supplier.Name))
		}
	}
	if err := os.MkdirAll(cfg.Output.Directory, 0755); err != nil {
		warnings = append(warnings, fmt.Sprintf("cannot create output directory: %v", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			warnings = append(warnings, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}
	if cfg.Cache.Enabled && cfg.Cache.Backend == "memory" {
		warnings = append(warnings, "cache.backend memory is dropped at exit: re-runs will not reuse it, use redis")
	}
	if cfg.Retry.MaxAttempts == 0 {
		warnings = append(warnings, "retry.max_attempts is 0: a failing page is retried forever")
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Supplier: %s\n", cfg.Supplier.Name)
	fmt.Printf("  Request: %s (%s)\n", cfg.Fetch.Request, cfg.Fetch.Type)
	fmt.Printf("  Output directory: %s\n", cfg.Output.Directory)
	fmt.Printf("  Exclusions: %s\n", cfg.ExclusionsPath())
	fmt.Printf("  Request delay: %s (%s)\n", cfg.RateLimit.RequestDelay, cfg.RateLimit.Strategy)
	fmt.Printf("  Max attempts: %d\n", cfg.Retry.MaxAttempts)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
