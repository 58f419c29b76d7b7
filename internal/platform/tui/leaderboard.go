package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-flappy/internal/core"
	"github.com/vovakirdan/tui-flappy/internal/storage"
)

const (
	leaderboardLimit   = 100
	leaderboardTimeout = 5 * time.Second
)

// ScoreSource is the read side of the score table. Both the local store
// and the server client provide it.
type ScoreSource interface {
	TopScores(ctx context.Context, limit int) ([]storage.ScoreEntry, error)
	Stats(ctx context.Context) (*storage.Stats, error)
}

// LeaderboardKeyMap holds the leaderboard bindings.
type LeaderboardKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Top     key.Binding
	Bottom  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func (k LeaderboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Refresh, k.Quit}
}

func (k LeaderboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Refresh, k.Quit},
	}
}

// DefaultLeaderboardKeyMap returns vim-style and arrow bindings.
func DefaultLeaderboardKeyMap() LeaderboardKeyMap {
	return LeaderboardKeyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Top:     key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:  key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// leaderboardLoadedMsg carries the result of one fetch.
type leaderboardLoadedMsg struct {
	entries []storage.ScoreEntry
	stats   *storage.Stats
	err     error
}

type leaderboardStyles struct {
	title lipgloss.Style
	stats lipgloss.Style
	frame lipgloss.Style
	note  lipgloss.Style
	help  lipgloss.Style
}

func defaultLeaderboardStyles() leaderboardStyles {
	return leaderboardStyles{
		title: lipgloss.NewStyle().Bold(true).Foreground(palette[core.ColorBest]),
		stats: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette[core.ColorFrame]).
			Padding(0, 1),
		note: lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241")).Padding(1, 3),
		help: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// LeaderboardModel lists the best runs with aggregate stats on top.
// Scores are fetched asynchronously so a slow server does not freeze input.
type LeaderboardModel struct {
	source   ScoreSource
	entries  []storage.ScoreEntry
	stats    *storage.Stats
	err      error
	loading  bool
	table    table.Model
	help     help.Model
	keys     LeaderboardKeyMap
	styles   leaderboardStyles
	width    int
	height   int
	quitting bool
}

// NewLeaderboardModel creates a leaderboard sized for a width x height
// terminal. Init starts the first fetch.
func NewLeaderboardModel(source ScoreSource, width, height int) LeaderboardModel {
	m := LeaderboardModel{
		source:  source,
		loading: true,
		help:    help.New(),
		keys:    DefaultLeaderboardKeyMap(),
		styles:  defaultLeaderboardStyles(),
		width:   width,
		height:  height,
	}
	m.table = m.newTable()
	return m
}

func (m LeaderboardModel) newTable() table.Model {
	played := 20
	// Rank, score and time are fixed; the played column takes what is left
	if free := m.width - 36; free > played {
		played = min(free, 28)
	}

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Rank", Width: 6},
			{Title: "Score", Width: 8},
			{Title: "Time", Width: 8},
			{Title: "Played", Width: played},
		}),
		table.WithFocused(true),
		table.WithHeight(max(m.height-9, 3)),
	)

	st := table.DefaultStyles()
	st.Header = st.Header.
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(palette[core.ColorFrame]).
		BorderBottom(true)
	st.Selected = st.Selected.
		Bold(false).
		Foreground(lipgloss.Color("#000000")).
		Background(palette[core.ColorBest])
	t.SetStyles(st)

	t.SetRows(leaderboardRows(m.entries))
	return t
}

func leaderboardRows(entries []storage.ScoreEntry) []table.Row {
	rows := make([]table.Row, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, table.Row{
			"#" + strconv.Itoa(i+1),
			strconv.Itoa(e.Score),
			formatDuration(e.DurationSecs),
			formatPlayed(e),
		})
	}
	return rows
}

// fetch queries the source off the UI goroutine.
func (m LeaderboardModel) fetch() tea.Cmd {
	source := m.source
	return func() tea.Msg {
		if source == nil {
			return leaderboardLoadedMsg{}
		}

		ctx, cancel := context.WithTimeout(context.Background(), leaderboardTimeout)
		defer cancel()

		entries, err := source.TopScores(ctx, leaderboardLimit)
		if err != nil {
			return leaderboardLoadedMsg{err: err}
		}
		stats, err := source.Stats(ctx)
		if err != nil {
			return leaderboardLoadedMsg{entries: entries, err: err}
		}
		return leaderboardLoadedMsg{entries: entries, stats: stats}
	}
}

func formatDuration(secs int) string {
	return (time.Duration(secs) * time.Second).String()
}

// formatPlayed shows the client timestamp in local time, falling back to
// the raw text and then to the row's insert time.
func formatPlayed(e storage.ScoreEntry) string {
	if t, err := time.Parse(time.RFC3339Nano, e.Timestamp); err == nil {
		return t.Local().Format("Jan 02 2006 15:04")
	}
	if e.Timestamp != "" {
		return e.Timestamp
	}
	return e.CreatedAt.Local().Format("Jan 02 2006 15:04")
}

func (m LeaderboardModel) Init() tea.Cmd {
	return m.fetch()
}

func (m LeaderboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case leaderboardLoadedMsg:
		m.loading = false
		m.entries, m.stats, m.err = msg.entries, msg.stats, msg.err
		m.table.SetRows(leaderboardRows(m.entries))
		m.table.GotoTop()
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.table = m.newTable()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.fetch()
		case key.Matches(msg, m.keys.Top):
			m.table.GotoTop()
			return m, nil
		case key.Matches(msg, m.keys.Bottom):
			m.table.GotoBottom()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m LeaderboardModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.title.Render(centerText("FLAPPY HIGH SCORES", m.width)))
	b.WriteString("\n\n")
	b.WriteString(m.styles.stats.Render(centerText(m.statsLine(), m.width)))
	b.WriteString("\n\n")
	b.WriteString(m.styles.frame.Render(m.body()))
	b.WriteByte('\n')
	b.WriteString(m.styles.help.Render(m.help.View(m.keys)))
	return b.String()
}

func (m LeaderboardModel) statsLine() string {
	switch {
	case m.loading && m.stats == nil:
		return "Loading..."
	case m.stats == nil || m.stats.Games == 0:
		return "No games played"
	}
	return fmt.Sprintf("Games: %d  |  Best: %d  |  Avg: %.1f  |  Time played: %s",
		m.stats.Games, m.stats.HighScore, m.stats.AvgScore, formatDuration(int(m.stats.TotalDuration)))
}

func (m LeaderboardModel) body() string {
	switch {
	case m.err != nil:
		return m.styles.note.Render("Cannot load scores:\n" + m.err.Error())
	case m.loading && len(m.entries) == 0:
		return m.styles.note.Render("Loading scores...")
	case len(m.entries) == 0:
		return m.styles.note.Render("No scores recorded yet.\nPlay a round to set the first one!")
	}
	return m.table.View()
}

// IsQuitting reports whether the user closed the leaderboard.
func (m LeaderboardModel) IsQuitting() bool {
	return m.quitting
}

func centerText(text string, width int) string {
	n := lipgloss.Width(text)
	if n >= width {
		return text
	}
	return strings.Repeat(" ", (width-n)/2) + text
}

// RunLeaderboard shows the leaderboard until the user quits.
func RunLeaderboard(source ScoreSource, width, height int) error {
	_, err := tea.NewProgram(NewLeaderboardModel(source, width, height), tea.WithAltScreen()).Run()
	return err
}
