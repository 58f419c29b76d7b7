package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/tui-flappy/internal/config"
	"github.com/vovakirdan/tui-flappy/internal/platform/tui"
	"github.com/vovakirdan/tui-flappy/internal/reporter"
	"github.com/vovakirdan/tui-flappy/internal/server"
	"github.com/vovakirdan/tui-flappy/internal/storage"
)

var (
	flagAddr         string
	flagServerConfig string
	flagSSHAddr      string
	flagHostKey      string
	flagIdleTimeout  int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the score server",
	Long: `Start the HTTP score endpoint and, with --ssh, an SSH server that
lets users play remotely. All players share one leaderboard.

Endpoints:
  POST /save_score        - Submit {score, timestamp, duration}
  POST /save_score.php    - Same, for the legacy browser client
  GET  /api/scores?limit  - Top scores
  GET  /api/stats         - Aggregate statistics
  GET  /healthz           - Liveness
  GET  /metrics           - Prometheus metrics

The database comes from the server config (YAML or TOML). The active
environment is "environment" in the file, overridden by FLAPPY_ENV.

Examples:
  flappy serve                                 # :8080, local SQLite
  flappy serve --addr :9000
  flappy serve --server-config ./server.toml   # e.g. production PostgreSQL
  FLAPPY_ENV=production flappy serve
  flappy serve --ssh :23234                    # Also serve SSH play`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().StringVar(&flagServerConfig, "server-config", "", "Path to server config (.yaml or .toml)")
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH play address, e.g. :23234 (overrides config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to SSH host key (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "SSH idle timeout in minutes")
}

func runServe(cmd *cobra.Command, _ []string) error {
	scfg, err := config.LoadServer(flagServerConfig)
	if err != nil {
		return err
	}
	applyServeFlags(cmd, &scfg)

	level := scfg.LogLevel
	if cmd.Flags().Changed("log-level") || level == "" {
		level = flagLogLevel
	}
	logger, err := newLogger(os.Stderr, level, "flappy")
	if err != nil {
		return err
	}

	dbCfg, err := scfg.ActiveDatabase()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db") {
		dbCfg = config.DatabaseConfig{Driver: storage.DriverSQLite, DSN: flagDBPath}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.OpenConfig(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("database ready", "driver", store.Driver(), "environment", scfg.Environment)

	metrics, err := server.NewMetrics(nil)
	if err != nil {
		return err
	}

	httpSrv := server.New(store, server.Options{
		Address: scfg.Address,
		Logger:  logger.WithPrefix("http"),
		Metrics: metrics,
	})

	var sshSrv *tui.SSHServer
	if scfg.SSHAddress != "" {
		flappyCfg, err := config.LoadFlappy(flagConfig)
		if err != nil {
			return err
		}

		dispatcher := reporter.NewDispatcher(store, reporter.Options{
			Timeout: 5 * time.Second,
			Logger:  logger.WithPrefix("reporter"),
		})
		// Runs after the SSH server stops, before the store closes
		defer dispatcher.Close()

		sshCfg := tui.DefaultSSHServerConfig()
		sshCfg.Address = scfg.SSHAddress
		sshCfg.HostKeyPath = scfg.HostKeyPath
		sshCfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
		sshCfg.TickRate = flagFPS
		sshCfg.Flappy = flappyCfg

		sshSrv, err = tui.NewSSHServer(sshCfg, dispatcher, store, logger)
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpSrv.ListenAndServe)
	if sshSrv != nil {
		g.Go(sshSrv.ListenAndServe)
	}

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		//nolint:errcheck // Best-effort shutdown, first error is reported by the group
		httpSrv.Shutdown(shutdownCtx)
		if sshSrv != nil {
			//nolint:errcheck // Best-effort shutdown
			sshSrv.Shutdown(shutdownCtx)
		}
		return nil
	})

	return g.Wait()
}

// applyServeFlags lets explicit flags override the config file.
func applyServeFlags(cmd *cobra.Command, scfg *config.ServerConfig) {
	if cmd.Flags().Changed("addr") {
		scfg.Address = flagAddr
	}
	if cmd.Flags().Changed("ssh") {
		scfg.SSHAddress = flagSSHAddr
	}
	if cmd.Flags().Changed("host-key") {
		scfg.HostKeyPath = flagHostKey
	}
}
