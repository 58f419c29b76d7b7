// Package tui runs the flappy game in a terminal with Bubble Tea: input
// mapping, the frame loop, the leaderboard and SSH play.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-flappy/internal/core"
)

// TickMsg carries the wall-clock time of one simulation tick.
type TickMsg time.Time

// tickCmd schedules the next tick for cfg's rate.
func tickCmd(cfg core.RuntimeConfig) tea.Cmd {
	return tea.Tick(cfg.TickInterval(), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
