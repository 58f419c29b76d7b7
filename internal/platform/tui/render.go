package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-flappy/internal/core"
)

// palette assigns terminal colors to drawing roles. Adaptive colors keep
// the bird and prompt readable on light and dark backgrounds.
var palette = map[core.Color]lipgloss.TerminalColor{
	core.ColorPipe:    lipgloss.Color("#5EBB2B"),
	core.ColorPipeCap: lipgloss.Color("#8BE04E"),
	core.ColorBird:    lipgloss.AdaptiveColor{Light: "#D08C00", Dark: "#F8D838"},
	core.ColorGround:  lipgloss.Color("#DED895"),
	core.ColorHUD:     lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"},
	core.ColorBest:    lipgloss.AdaptiveColor{Light: "#D08C00", Dark: "#F8D838"},
	core.ColorFrame:   lipgloss.Color("#4EC0CA"),
	core.ColorPrompt:  lipgloss.AdaptiveColor{Light: "#C4561A", Dark: "#FC7858"},
}

var colorStyles = buildStyles()

func buildStyles() map[core.Color]lipgloss.Style {
	styles := map[core.Color]lipgloss.Style{
		core.ColorDefault: lipgloss.NewStyle(),
	}
	for role, c := range palette {
		style := lipgloss.NewStyle().Foreground(c)
		if role == core.ColorHUD || role == core.ColorBest {
			style = style.Bold(true)
		}
		styles[role] = style
	}
	return styles
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Adjacent cells sharing a role are rendered as one styled run.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	var run strings.Builder
	for y := range s.Height() {
		if y > 0 {
			sb.WriteByte('\n')
		}

		for x := 0; x < s.Width(); {
			role := s.GetCell(x, y).Color
			run.Reset()
			for ; x < s.Width(); x++ {
				cell := s.GetCell(x, y)
				if cell.Color != role {
					break
				}
				run.WriteRune(cell.Rune)
			}

			style, ok := colorStyles[role]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}
