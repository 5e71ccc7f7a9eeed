package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"xfollowers/pkg/ui"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "xfollowers",
	Short: "Collect the follower or following list of an X account",
	Long: `xfollowers collects the followers or followings of an X account through a
third-party data supplier (RapidAPI or JoJAPI).

Each run pages through the list, looks up the verification flag of every
account in batches, drops protected accounts and accounts already exported
by earlier runs, and writes the new ones to a CSV file.

Features:
  - API keys kept in the system keychain or an encrypted file
  - Retry with configurable backoff that never skips a page
  - Checkpoints so an interrupted run can be resumed
  - Optional detail cache (memory or Redis) and Prometheus metrics
  - Interactive terminal UI`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.SetColor(false)
		}
		switch {
		case quiet:
			logLevel = "error"
		case verbose:
			logLevel = "debug"
		}

		if !quiet && !useTUI && cmd.Name() != "version" && cmd.Name() != "help" {
			ui.PrintLogo()
		}
	},
}

// Execute runs the command tree and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./.xfollowers.yaml or $HOME/.config/xfollowers/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs")

	rootCmd.SetVersionTemplate(`xfollowers {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
