package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sqlport/internal/admin"
	"sqlport/internal/bridge"
	"sqlport/internal/config"
	"sqlport/internal/engine"
)

// ServeOptions holds flags for the serve command. Flags override the
// environment and file configuration when set.
type ServeOptions struct {
	DBPath       string
	AdminAddr    string
	StmtCapacity int
	LogLevel     string
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge over stdin/stdout",
		Long: `Open the engine database, then read one JSON command per line from
stdin and write one JSON response per line to stdout until the input stream
closes. Logs go to stderr.

Example:
  echo '{"command":"status"}' | sqlport serve
  sqlport serve --db /data/engine.db --admin-addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to the engine database (default in-memory)")
	cmd.Flags().StringVar(&opts.AdminAddr, "admin-addr", "", "listen address for the admin sidecar (disabled when empty)")
	cmd.Flags().IntVar(&opts.StmtCapacity, "capacity", 0, "prepared statement registry capacity")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db") {
		cfg.DBPath = opts.DBPath
	}
	if cmd.Flags().Changed("admin-addr") {
		cfg.AdminAddr = opts.AdminAddr
	}
	if cmd.Flags().Changed("capacity") {
		cfg.StmtCapacity = opts.StmtCapacity
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = config.ParseLevel(opts.LogLevel)
	}

	logger := config.NewLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, err := engine.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer eng.Close()

	b := bridge.New(eng, cfg.StmtCapacity, logger)
	defer b.Close()

	if cfg.AdminAddr != "" {
		srv := admin.New(cfg.AdminAddr, b.Stats, logger)
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Error("admin server", "error", err)
			}
		}()
	}

	return b.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}
