package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"xfollowers/pkg/config"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/ui"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <username>",
	Short: "Resolve a screen name to its numeric account id",
	Example: `  xfollowers lookup jack
  xfollowers lookup jack -s jojapi`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().StringVarP(&supplierName, "supplier", "s", "", "data supplier: rapidapi or jojapi")
	lookupCmd.Flags().StringVar(&apiKey, "api-key", "", "supplier API key")
	lookupCmd.Flags().StringVar(&baseURL, "base-url", "", "override the supplier base URL")
}

func runLookup(cmd *cobra.Command, args []string) error {
	username := strings.TrimPrefix(strings.TrimSpace(args[0]), "@")

	flags := map[string]interface{}{}
	for name, value := range map[string]string{"supplier": supplierName, "api-key": apiKey, "base-url": baseURL} {
		if cmd.Flags().Changed(name) {
			flags[name] = value
		}
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	client, err := newSupplierClient(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	id, err := client.LookupUserID(ctx, username)
	if err != nil {
		return fmt.Errorf("lookup of @%s failed: %w", username, err)
	}

	if quiet {
		fmt.Println(id)
		return nil
	}
	ui.PrintInfo("@"+username, id)
	return nil
}
