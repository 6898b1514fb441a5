// Package cli defines the cobra command tree for reb.
package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/estate-browser/internal/client"
	"github.com/evcraddock/estate-browser/internal/config"
	"github.com/evcraddock/estate-browser/internal/logging"
)

var (
	flagFormat string
	flagAPI    string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reb",
		Short:         "Browse buildings and book or buy apartments",
		Long:          "A browser for buildings and their apartments. List buildings, view booking calendars, and book or buy apartments against a REST backend, from the CLI or the web UI.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagFormat != "text" && flagFormat != "json" {
				return fmt.Errorf("invalid --format %q (text|json)", flagFormat)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logging.Setup(cfg.Dev)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagAPI, "api", "", "backend URL (default: api_url from config, http://localhost:3000)")

	root.AddCommand(
		newBuildingsCmd(),
		newApartmentsCmd(),
		newBookingsCmd(),
		newBookCmd(),
		newBuyCmd(),
		newServeCmd(),
		newBackendCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig returns the effective configuration with --api applied.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagAPI != "" {
		cfg.APIURL = flagAPI
	}
	return cfg, nil
}

// newAPIClient creates an HTTP client for the backend.
func newAPIClient(cfg config.Config) *client.Client {
	return client.New(cfg.APIURL, cfg.Timeout)
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// parseID parses a positional building or apartment ID.
func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: %s", kind, s)
	}
	return id, nil
}
