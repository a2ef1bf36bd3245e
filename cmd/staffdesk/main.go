/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the StaffDesk server: the record-management
  API over the staff hierarchy and the drone fleet.

STARTUP SEQUENCE:
  1. Load TOML configuration (optional; flags override)
  2. Configure structured logging
  3. Open SQLite stores (schema + seed data on first run)
  4. Build view states and the API handler
  5. Start HTTP server with graceful shutdown

COMMANDS:
  serve    Run the HTTP server (default behavior of the binary)
  seed     Initialize the databases and exit

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connections
  4. Exit

EXAMPLES:
  # Run with defaults (databases under the user config dir)
  ./staffdesk serve

  # Run with explicit data directory and port
  ./staffdesk serve --data-dir ./data --port 3000

  # In-memory databases, useful for demos
  ./staffdesk serve --data-dir ":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/staffdesk/api"
	"github.com/warp/staffdesk/config"
	"github.com/warp/staffdesk/fleet"
	"github.com/warp/staffdesk/logging"
	"github.com/warp/staffdesk/staff"
	"github.com/warp/staffdesk/store/sqlite"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "staffdesk",
		Short:         "Staff and fleet record management server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand())
	root.AddCommand(newSeedCommand())
	return root
}

// options collected from flags. Zero values mean "use the config file".
type serveOptions struct {
	configPath string
	port       int
	dataDir    string
}

func (o *serveOptions) resolve() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.port != 0 {
		cfg.Server.Port = o.port
	}
	if o.dataDir != "" {
		cfg.Storage.Dir = o.dataDir
	}
	if cfg.Storage.Dir == "" {
		dir, err := sqlite.DefaultDir()
		if err != nil {
			return config.Config{}, err
		}
		cfg.Storage.Dir = dir
	}
	return cfg, cfg.Validate()
}

func databasePath(dir, name string) string {
	if dir == ":memory:" {
		return ":memory:"
	}
	return filepath.Join(dir, name)
}

func newServeCommand() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve()
			if err != nil {
				return err
			}

			log, closeLog, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer closeLog.Close()

			ctx := cmd.Context()

			staffStore := sqlite.NewStaffStore(databasePath(cfg.Storage.Dir, "staff.db"))
			defer staffStore.Close()
			if err := staffStore.Initialize(ctx); err != nil {
				return err
			}

			fleetStore := sqlite.NewFleetStore(databasePath(cfg.Storage.Dir, "fleet.db"))
			defer fleetStore.Close()
			if err := fleetStore.Initialize(ctx); err != nil {
				return err
			}

			staffView := staff.NewViewState(staffStore)
			fleetView := fleet.NewViewState(fleetStore)
			if err := staffView.LoadAll(ctx); err != nil {
				return err
			}
			if err := fleetView.LoadAll(ctx); err != nil {
				return err
			}

			handler := api.NewHandler(staffView, fleetView, log)
			server := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:      api.NewRouter(handler),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("server starting", "addr", server.Addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-quit:
				log.Info("shutting down", "signal", sig.String())
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("forced shutdown: %w", err)
			}
			log.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to TOML configuration file")
	cmd.Flags().IntVar(&opts.port, "port", 0, "HTTP server port (overrides config)")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "Directory for SQLite databases (overrides config)")
	return cmd
}

func newSeedCommand() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Initialize the databases with schema and sample records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			staffStore := sqlite.NewStaffStore(databasePath(cfg.Storage.Dir, "staff.db"))
			defer staffStore.Close()
			if err := staffStore.Initialize(ctx); err != nil {
				return err
			}

			fleetStore := sqlite.NewFleetStore(databasePath(cfg.Storage.Dir, "fleet.db"))
			defer fleetStore.Close()
			if err := fleetStore.Initialize(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "databases ready under %s\n", cfg.Storage.Dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to TOML configuration file")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "Directory for SQLite databases (overrides config)")
	return cmd
}
