package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/evcraddock/estate-browser/internal/backend"
	"github.com/evcraddock/estate-browser/internal/db"
)

func newBackendCmd() *cobra.Command {
	var (
		port   int
		dbPath string
		seed   string
	)

	cmd := &cobra.Command{
		Use:   "backend",
		Short: "Start the development REST backend",
		Long:  "Start a JSON REST backend for buildings and bookings, stored in SQLite. An empty database is seeded from --seed or the built-in sample data.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackend(cmd, port, dbPath, seed)
		},
	}

	cmd.Flags().IntVar(&port, "port", 3000, "port to listen on")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default: ~/.reb/backend.db)")
	cmd.Flags().StringVar(&seed, "seed", "", "YAML seed file (default: built-in sample data)")

	return cmd
}

func runBackend(cmd *cobra.Command, port int, dbPath, seed string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Dev {
		gin.SetMode(gin.ReleaseMode)
	}

	database, err := openDB(dbPath)
	if err != nil {
		return err
	}
	defer closeDB(database)

	sd, err := backend.LoadSeed(seed)
	if err != nil {
		return err
	}
	store := backend.NewStore(database)
	if err := store.Seed(cmd.Context(), sd); err != nil {
		return err
	}

	return backend.ListenAndServe(store, port)
}

// openDB opens the SQLite database at path, or the default path when empty.
func openDB(path string) (*sql.DB, error) {
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
