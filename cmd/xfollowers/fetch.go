package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"xfollowers/pkg/auth"
	"xfollowers/pkg/cache"
	"xfollowers/pkg/checkpoint"
	"xfollowers/pkg/collector"
	"xfollowers/pkg/config"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/metadata"
	"xfollowers/pkg/metrics"
	"xfollowers/pkg/models"
	"xfollowers/pkg/ratelimit"
	"xfollowers/pkg/supplier"
	"xfollowers/pkg/ui"
	"xfollowers/pkg/ui/tui"
)

var (
	// Fetch command flags
	request         string
	recordType      string
	startCursor     string
	supplierName    string
	apiKey          string
	baseURL         string
	outputDir       string
	exclusionsFile  string
	metricsTextfile string
	fullProfile     bool
	resumeRun       bool
	forceRestart    bool
	useTUI          bool
	notifications   bool
	concurrency     int
	maxAttempts     int
	requestDelay    time.Duration
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <username>",
	Short: "Collect the followers or followings of an account",
	Long: `Collect the follower or following list of an account and write the accounts
not exported before to <output>/<username>_<request>.csv.

The supplier API key is taken from, in order:
  - the --api-key flag
  - XFOLLOWERS_RAPIDAPI_KEY / XFOLLOWERS_JOJAPI_KEY (also read from .env)
  - the configuration file
  - keys stored with 'xfollowers auth login'`,
	Example: `  # All followers of jack
  xfollowers fetch jack

  # Verified followings only, through JoJAPI
  xfollowers fetch jack -r following -t verified -s jojapi

  # Continue an interrupted run
  xfollowers fetch jack --resume

  # Start from a known cursor with the terminal UI
  xfollowers fetch jack -c 1767263612853817250 --tui`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	addFetchFlags(fetchCmd)

	// fetch is also the default command
	addFetchFlags(rootCmd)
	rootCmd.Args = cobra.ArbitraryArgs
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && !isKnownCommand(args[0]) {
			return runFetch(cmd, args[:1])
		}
		return cmd.Help()
	}
}

func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&request, "request", "r", "", "list to collect: followers or following (default followers)")
	cmd.Flags().StringVarP(&recordType, "type", "t", "", "accounts to keep: all, verified or nonverified (default all)")
	cmd.Flags().StringVarP(&startCursor, "cursor", "c", "", "start from this pagination cursor")
	cmd.Flags().StringVarP(&supplierName, "supplier", "s", "", "data supplier: rapidapi or jojapi")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "supplier API key")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "override the supplier base URL")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default: current directory)")
	cmd.Flags().StringVar(&exclusionsFile, "exclusions", "", "exclusion list file (default exceptions.csv)")
	cmd.Flags().BoolVar(&fullProfile, "full-profile", false, "export the full profile of every account")
	cmd.Flags().BoolVar(&resumeRun, "resume", false, "resume from the last checkpoint")
	cmd.Flags().BoolVar(&forceRestart, "force-restart", false, "discard an existing checkpoint")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "use the interactive terminal UI")
	cmd.Flags().BoolVar(&notifications, "notifications", true, "announce the end of the run")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "detail lookups in flight (default 1)")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "attempts per page, 0 retries forever")
	cmd.Flags().DurationVar(&requestDelay, "request-delay", 0, "delay before every request (default 2s)")
	cmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file")
}

// fetchFlags returns the flags set on the command line, keyed the way
// config.MergeCommandLineFlags expects.
func fetchFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := cmd.Flags().Changed

	strs := map[string]string{
		"request":          request,
		"type":             recordType,
		"supplier":         supplierName,
		"api-key":          apiKey,
		"base-url":         baseURL,
		"output":           outputDir,
		"exclusions":       exclusionsFile,
		"metrics-textfile": metricsTextfile,
	}
	for name, value := range strs {
		if changed(name) {
			flags[name] = value
		}
	}
	if changed("full-profile") {
		flags["full-profile"] = fullProfile
	}
	if changed("notifications") {
		flags["notifications"] = notifications
	}
	if changed("concurrency") {
		flags["concurrency"] = concurrency
	}
	if changed("max-attempts") {
		flags["max-attempts"] = maxAttempts
	}
	if changed("request-delay") {
		flags["request-delay"] = requestDelay
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}

func runFetch(cmd *cobra.Command, args []string) error {
	username := strings.TrimPrefix(strings.TrimSpace(args[0]), "@")
	if username == "" {
		return errors.New("username is required")
	}

	cfg, err := config.Load(configFile, fetchFlags(cmd))
	if err != nil {
		return err
	}

	// The terminal UI owns the screen; logs still reach the log file.
	if useTUI {
		logger.Output = io.Discard
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Debug("xfollowers starting")

	req, err := supplier.ParseRequest(cfg.Fetch.Request)
	if err != nil {
		return err
	}
	typ, err := models.ParseVerificationType(cfg.Fetch.Type)
	if err != nil {
		return err
	}

	client, err := newSupplierClient(cfg)
	if err != nil {
		return err
	}
	m := metrics.New()
	client.SetObserver(m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	detailCache, err := cache.New(ctx, &cfg.Cache)
	if err != nil {
		log.WithError(err).Warn("Detail cache unavailable, continuing without it")
		detailCache = nil
	}
	if detailCache != nil {
		defer detailCache.Close()
		if cfg.Cache.Backend == "memory" {
			log.Info("Memory detail cache only lasts this run; use the redis backend to reuse lookups")
		}
	}

	if !useTUI && !quiet {
		ui.PrintInfo("Target", "@"+username)
		ui.PrintInfo("Request", string(req))
		ui.PrintInfo("Supplier", cfg.Supplier.Name)
	}

	var (
		display  ui.Display
		terminal *tui.TUI
	)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if useTUI {
		terminal = tui.NewTUI(username, string(req), cfg.RateLimit.RequestDelay)
		terminal.OnQuit(cancel)
		display = terminal
	} else {
		display = ui.NewProgressDisplay(username, string(req), strings.EqualFold(cfg.Logging.Level, "debug"))
	}

	col, err := collector.New(cfg, client,
		collector.WithCache(detailCache),
		collector.WithRecorder(m),
		collector.WithProgress(display),
		collector.WithLogger(log),
	)
	if err != nil {
		return err
	}

	opts := collector.Options{
		Username:     username,
		Request:      req,
		Type:         typ,
		StartCursor:  startCursor,
		Resume:       resumeRun,
		ForceRestart: forceRestart,
	}

	var summary *metadata.RunSummary
	if terminal != nil {
		summary, err = runWithTUI(runCtx, terminal, col, opts)
	} else {
		summary, err = col.Run(runCtx, opts)
		if err != nil {
			display.Fail(err)
		} else {
			display.Complete(summary)
		}
	}

	if cfg.Metrics.Textfile != "" {
		if werr := m.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			log.WithError(werr).Warn("Failed to write metrics textfile")
		}
	}

	notifier := ui.NewNotifier(cfg.Notifications)
	if err != nil {
		log.WithError(err).WithField("username", username).Error("Run failed")
		notifier.RunFailed(username, err)
		if errors.Is(err, collector.ErrCheckpointExists) {
			printCheckpointHint(username, req)
		}
		return err
	}
	notifier.RunComplete(summary)
	return nil
}

// runWithTUI runs the collector in the background while the terminal UI
// holds the main goroutine. Quitting the UI cancels the run.
func runWithTUI(ctx context.Context, terminal *tui.TUI, col *collector.Collector, opts collector.Options) (*metadata.RunSummary, error) {
	type result struct {
		summary *metadata.RunSummary
		err     error
	}
	done := make(chan result, 1)

	go func() {
		summary, err := col.Run(ctx, opts)
		if err != nil {
			terminal.Fail(err)
		} else {
			terminal.Complete(summary)
		}
		done <- result{summary, err}
	}()

	if err := terminal.Start(); err != nil {
		logger.WithError(err).Error("Terminal UI failed")
	}
	res := <-done
	return res.summary, res.err
}

// newSupplierClient builds the rate-limited client for cfg's supplier. The
// key comes from the config chain first, then from the credential store.
func newSupplierClient(cfg *config.Config) (*supplier.Client, error) {
	key := cfg.APIKey()
	if key == "" {
		if mgr, err := auth.NewManager(); err == nil {
			key = mgr.APIKey(cfg.Supplier.Name)
		} else {
			logger.WithError(err).Debug("Credential store unavailable")
		}
	}
	if key == "" {
		return nil, fmt.Errorf("no API key for supplier %s: run 'xfollowers auth login %s' or pass --api-key",
			cfg.Supplier.Name, cfg.Supplier.Name)
	}

	limiter, err := ratelimit.New(&cfg.RateLimit)
	if err != nil {
		return nil, err
	}
	return supplier.NewClient(&cfg.Supplier, key, limiter, logger.GetLogger())
}

func isKnownCommand(arg string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == arg || cmd.HasAlias(arg) {
			return true
		}
	}
	return false
}

// printCheckpointHint describes the unfinished run before suggesting how to
// continue it.
func printCheckpointHint(username string, req supplier.Request) {
	if mgr, err := checkpoint.NewManager(username, string(req)); err == nil {
		if cp, err := mgr.Peek(); err == nil && cp != nil {
			ui.PrintInfo("Checkpoint", fmt.Sprintf("%d pages, %d accounts, saved %s ago",
				cp.Pages, cp.AccountCount, cp.Age().Round(time.Second)))
		}
	}
	ui.PrintInfo("Hint", fmt.Sprintf("xfollowers fetch %s --resume (or --force-restart to start over)", username))
}
