package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/estate-browser/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI",
		Long:  "Start an HTTP server for the web UI. The UI reads and writes through the backend at --api.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default from config, 8080)")

	return cmd
}

func runServe(cmd *cobra.Command, port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("port") {
		port = cfg.Port
	}

	srv, err := web.NewServer(newAPIClient(cfg), web.Options{
		Nights:       cfg.Nights,
		AllowOverlap: cfg.AllowOverlap,
	})
	if err != nil {
		return err
	}
	return srv.ListenAndServe(port)
}
