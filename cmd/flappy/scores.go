package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-flappy/internal/platform/tui"
	"github.com/vovakirdan/tui-flappy/internal/server"
	"github.com/vovakirdan/tui-flappy/internal/storage"
)

var (
	flagScoresServer string
	flagScoresLimit  int
	flagInteractive  bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show high scores",
	Long: `Display the top scores from the local database, or from a score
server with --server.

Examples:
  flappy scores
  flappy scores --limit 20
  flappy scores --server http://localhost:8080
  flappy scores -i          # Interactive leaderboard`,
	Args: cobra.NoArgs,
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().StringVar(&flagScoresServer, "server", "", "Score server base URL (default: local database)")
	scoresCmd.Flags().IntVar(&flagScoresLimit, "limit", 10, "Number of scores to show")
	scoresCmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "Open the interactive leaderboard")
}

func runScores(_ *cobra.Command, _ []string) error {
	var source tui.ScoreSource
	if flagScoresServer != "" {
		source = server.NewClient(flagScoresServer, nil)
	} else {
		store, err := storage.Open(flagDBPath)
		if err != nil {
			return fmt.Errorf("opening scores database: %w", err)
		}
		defer store.Close()
		source = store
	}

	if flagInteractive {
		width, height := 80, 24
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width, height = w, h
		}
		return tui.RunLeaderboard(source, width, height)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	scores, err := source.TopScores(ctx, flagScoresLimit)
	if err != nil {
		return fmt.Errorf("retrieving scores: %w", err)
	}

	fmt.Println("High Scores - Flappy")
	fmt.Println()

	if len(scores) == 0 {
		fmt.Println("No scores recorded yet.")
		fmt.Println()
		fmt.Println("Play 'flappy play' to set the first high score!")
		return nil
	}

	fmt.Printf("  %-4s  %-8s  %-8s  %s\n", "Rank", "Score", "Time", "Played")
	fmt.Printf("  %-4s  %-8s  %-8s  %s\n", "----", "-----", "----", "------")

	for i, entry := range scores {
		fmt.Printf("  %-4d  %-8d  %-8s  %s\n", i+1, entry.Score,
			(time.Duration(entry.DurationSecs) * time.Second).String(), entry.Timestamp)
	}

	stats, err := source.Stats(ctx)
	if err == nil {
		fmt.Println()
		fmt.Printf("Best: %d  Games: %d  Avg: %.1f\n", stats.HighScore, stats.Games, stats.AvgScore)
	}
	return nil
}
