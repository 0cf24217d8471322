package cmd

import (
	"fmt"
	"os"

	"github.com/map4expo/expo-session/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	serverURL  string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "expo-session",
	Short: "Attendee networking client for expo events",
	Long: `A terminal client for expo attendee networking.

Record a short voice pitch, create a profile, browse AI-ranked matches,
plan meetups, and exchange direct messages with live push updates.

Quick Start:
  expo-session status                  # Check sign-in and backend health
  expo-session record                  # Record a voice pitch (21s max)
  expo-session onboard --create        # Create your profile from the draft
  expo-session matches                 # Browse your ranked matches
  expo-session threads list            # List conversations with unread marks
  expo-session watch                   # Follow incoming messages live`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Custom config file location")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Backend base URL (overrides config)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig resolves configuration with the --server flag applied
func loadConfig() (internal.Config, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	return cfg, nil
}

// openStateStore opens the local state database for the current config
func openStateStore(cfg internal.Config) (*internal.StateStore, error) {
	path, err := cfg.ResolveStateDBPath()
	if err != nil {
		return nil, err
	}
	return internal.OpenStateStore(path)
}

// buildClient assembles the client stack shared by most commands
func buildClient() (internal.Config, *internal.APIClient, *internal.StateStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	store, err := openStateStore(cfg)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("failed to open state store: %w", err)
	}
	return cfg, internal.NewAPIClient(cfg), store, nil
}
