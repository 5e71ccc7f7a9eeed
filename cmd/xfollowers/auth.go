package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"xfollowers/pkg/auth"
	"xfollowers/pkg/config"
	"xfollowers/pkg/ui"
)

var logoutAll bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage supplier API keys",
	Long: `Manage stored supplier API keys.

Keys are stored in:
  - the system keychain (when available)
  - an encrypted file with PBKDF2 key derivation
Keys set in the environment are read but never written.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [supplier]",
	Short: "Store the API key of a supplier",
	Example: `  # Store a RapidAPI key
  xfollowers auth login

  # Store a JoJAPI key
  xfollowers auth login jojapi`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [supplier]",
	Short: "Remove a stored API key",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored API keys (masked)",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)

	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove the keys of every supplier")
}

func supplierArg(args []string) (string, error) {
	if len(args) == 0 {
		return config.SupplierRapidAPI, nil
	}
	name := strings.ToLower(strings.TrimSpace(args[0]))
	switch name {
	case config.SupplierRapidAPI, config.SupplierJoJAPI:
		return name, nil
	default:
		return "", fmt.Errorf("unknown supplier %q (want rapidapi or jojapi)", args[0])
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	name, err := supplierArg(args)
	if err != nil {
		return err
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)
	auth.ShowAPIKeyGuide(os.Stdout, name)
	fmt.Println()

	if existing, _ := manager.Retrieve(name); existing != nil && !existing.LastModified.IsZero() {
		fmt.Printf("A %s key is already stored (%s). Replace it? (y/N): ", name, auth.MaskKey(existing.APIKey))
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Printf("%s API key (hidden): ", name)
	key, err := readSecret(reader)
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	if key == "" {
		return errors.New("API key is required")
	}

	if err := manager.Store(&auth.Credential{Supplier: name, APIKey: key}); err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("API key stored for %s: %s", name, auth.MaskKey(key)))
	fmt.Println("\nCollect followers with:")
	fmt.Printf("  $ xfollowers fetch <username> --supplier %s\n", name)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	if logoutAll {
		if err := manager.DeleteAll(); err != nil {
			return err
		}
		ui.PrintSuccess("All stored API keys removed")
		return nil
	}

	name, err := supplierArg(args)
	if err != nil {
		return err
	}
	if err := manager.Delete(name); err != nil {
		return err
	}
	ui.PrintSuccess("API key removed: " + name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	creds, err := manager.List()
	if err != nil {
		return err
	}
	if len(creds) == 0 {
		ui.PrintInfo("No stored API keys", "use 'xfollowers auth login' to add one")
		return nil
	}

	ui.PrintHighlight("Stored API keys")
	fmt.Println()
	for _, cred := range creds {
		sanitized := auth.SanitizeCredential(cred)
		source := "stored " + sanitized.LastModified.Format("2006-01-02 15:04:05")
		if sanitized.LastModified.IsZero() {
			source = "environment"
		}
		fmt.Printf("  %-9s %s  (%s)\n", sanitized.Supplier, sanitized.APIKey, source)
	}
	return nil
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
