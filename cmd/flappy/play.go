package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-flappy/internal/config"
	"github.com/vovakirdan/tui-flappy/internal/core"
	"github.com/vovakirdan/tui-flappy/internal/games/flappy"
	"github.com/vovakirdan/tui-flappy/internal/platform/tui"
	"github.com/vovakirdan/tui-flappy/internal/reporter"
	"github.com/vovakirdan/tui-flappy/internal/server"
	"github.com/vovakirdan/tui-flappy/internal/storage"
)

var (
	flagServerURL string
	flagLogFile   string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	Long: `Start playing Flappy in the terminal.

Controls:
  Click/Enter  - Start a run
  Any key      - Flap
  Ctrl+S       - Save a screenshot to ~/.flappy/screenshots
  Esc/Ctrl+C   - Quit

Finished runs are sent to the score server given by --server, or saved to
the local database (--db) when no server is set.

Examples:
  flappy play
  flappy play --server http://localhost:8080
  flappy play --config ./my-flappy.yaml --log-file ~/.flappy/play.log`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagServerURL, "server", "", "Score server base URL (default: local database)")
	playCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file (default: discard)")
}

func runPlay(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadFlappy(flagConfig)
	if err != nil {
		return err
	}

	logOut, err := openLogFile(flagLogFile)
	if err != nil {
		return err
	}
	defer logOut.Close()

	logger, err := newLogger(logOut, flagLogLevel, "flappy")
	if err != nil {
		return err
	}

	rt := core.DefaultConfig()
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		rt.ScreenW = w
		rt.ScreenH = h
	}
	if flagFPS > 0 {
		rt.TickRate = flagFPS
	}
	rt.Seed = flagSeed
	if rt.Seed == 0 {
		rt.Seed = time.Now().UnixNano()
	}

	sink, best, closeSink := openScoreSink(logger)
	defer closeSink()

	opts := []flappy.Option{
		flappy.WithRand(rand.New(rand.NewSource(rt.Seed))),
		flappy.WithBest(best),
	}
	if sink != nil {
		dispatcher := reporter.NewDispatcher(sink, reporter.Options{
			Timeout: 10 * time.Second,
			Logger:  logger.WithPrefix("reporter"),
		})
		// Drain pending scores before the store closes
		defer dispatcher.Close()
		opts = append(opts, flappy.WithReporter(dispatcher))
	}

	game := flappy.New(cfg, opts...)
	logger.Info("starting game", "seed", rt.Seed, "fps", rt.TickRate, "best", best)

	if err := tui.Run(game, rt, tui.WithLogger(logger)); err != nil {
		return fmt.Errorf("running game: %w", err)
	}
	return nil
}

// openScoreSink picks where finished runs go and loads the best score to
// seed the game with. Failures degrade to playing without persistence.
func openScoreSink(logger *log.Logger) (reporter.Sink, int, func()) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if flagServerURL != "" {
		best := 0
		stats, err := server.NewClient(flagServerURL, nil).Stats(ctx)
		if err != nil {
			logger.Warn("cannot load best score from server", "error", err)
		} else {
			best = stats.HighScore
		}
		return reporter.NewHTTPSink(server.SaveScoreURL(flagServerURL), nil), best, func() {}
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open scores database: %v\n", err)
		return nil, 0, func() {}
	}

	best, err := store.HighScore(ctx)
	if err != nil {
		logger.Warn("cannot load best score", "error", err)
	}
	//nolint:errcheck // Closing on exit
	return store, best, func() { store.Close() }
}
