package tui

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-flappy/internal/config"
	"github.com/vovakirdan/tui-flappy/internal/core"
	"github.com/vovakirdan/tui-flappy/internal/games/flappy"
	"github.com/vovakirdan/tui-flappy/internal/storage"
)

func TestMapKey(t *testing.T) {
	km := NewKeyMapper()

	tests := []struct {
		name string
		msg  tea.KeyMsg
		want core.Action
	}{
		{"ctrl+c quits", tea.KeyMsg{Type: tea.KeyCtrlC}, core.ActionQuit},
		{"esc quits", tea.KeyMsg{Type: tea.KeyEsc}, core.ActionQuit},
		{"ctrl+s screenshots", tea.KeyMsg{Type: tea.KeyCtrlS}, core.ActionScreenshot},
		{"enter starts", tea.KeyMsg{Type: tea.KeyEnter}, core.ActionStart},
		{"space flaps", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, core.ActionJump},
		{"letter flaps", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}, core.ActionJump},
		{"arrow flaps", tea.KeyMsg{Type: tea.KeyUp}, core.ActionJump},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := km.MapKey(tt.msg); got != tt.want {
				t.Errorf("MapKey(%q) = %v, expected %v", tt.msg.String(), got, tt.want)
			}
		})
	}
}

func TestMapMouse(t *testing.T) {
	km := NewKeyMapper()

	tests := []struct {
		name string
		msg  tea.MouseMsg
		want core.Action
	}{
		{"left press starts", tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}, core.ActionStart},
		{"right press starts", tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonRight}, core.ActionStart},
		{"release ignored", tea.MouseMsg{Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft}, core.ActionNone},
		{"motion ignored", tea.MouseMsg{Action: tea.MouseActionMotion, Button: tea.MouseButtonNone}, core.ActionNone},
		{"wheel ignored", tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp}, core.ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := km.MapMouse(tt.msg); got != tt.want {
				t.Errorf("MapMouse() = %v, expected %v", got, tt.want)
			}
		})
	}
}

type recordingReporter struct {
	records []core.ScoreRecord
}

func (r *recordingReporter) Submit(rec core.ScoreRecord) {
	r.records = append(r.records, rec)
}

func newTestModel(t *testing.T, rep flappy.Reporter) Model {
	t.Helper()
	game := flappy.New(config.DefaultFlappyConfig(),
		flappy.WithRand(rand.New(rand.NewSource(1))),
		flappy.WithReporter(rep),
	)
	cfg := core.RuntimeConfig{ScreenW: 80, ScreenH: 24, TickRate: 60}
	return NewModel(game, cfg, WithScreenshotDir(t.TempDir()))
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm
}

func TestModelClickStartsAndTicksAdvance(t *testing.T) {
	m := newTestModel(t, &recordingReporter{})

	m = update(t, m, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if m.Game().Phase() != flappy.PhaseRunning {
		t.Fatal("click should start the game")
	}

	before := m.Game().Obstacles()[0].X
	m = update(t, m, TickMsg(time.Now()))
	after := m.Game().Obstacles()[0].X

	if after >= before {
		t.Errorf("tick should scroll obstacles: %v -> %v", before, after)
	}
}

func TestModelKeyFlapsOnlyWhileRunning(t *testing.T) {
	m := newTestModel(t, &recordingReporter{})

	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if m.Game().Phase() != flappy.PhaseIdle {
		t.Fatal("a flap key should not start the game")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	for i := 0; i < 10; i++ {
		m = update(t, m, TickMsg(time.Now()))
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})

	if m.Game().Bird().Vel != m.Game().Config().Physics.JumpImpulse {
		t.Errorf("flap while running should set jump impulse, vel = %v", m.Game().Bird().Vel)
	}
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(t, &recordingReporter{})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("quit should return a command")
	}
	if !next.(Model).IsQuitting() {
		t.Error("model should be quitting")
	}
	if next.View() != "" {
		t.Error("view should be empty after quit")
	}
}

func TestModelScreenshot(t *testing.T) {
	dir := t.TempDir()
	game := flappy.New(config.DefaultFlappyConfig(), flappy.WithRand(rand.New(rand.NewSource(1))))
	m := NewModel(game, core.RuntimeConfig{ScreenW: 60, ScreenH: 20}, WithScreenshotDir(dir))

	update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	files, err := filepath.Glob(filepath.Join(dir, "flappy_*.txt"))
	if err != nil || len(files) != 1 {
		t.Fatalf("expected one screenshot, got %v (%v)", files, err)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Click to play") {
		t.Error("screenshot should contain the idle prompt")
	}
}

func TestModelWithoutScreenshots(t *testing.T) {
	dir := t.TempDir()
	game := flappy.New(config.DefaultFlappyConfig(), flappy.WithRand(rand.New(rand.NewSource(1))))
	m := NewModel(game, core.RuntimeConfig{ScreenW: 60, ScreenH: 20},
		WithScreenshotDir(dir), WithoutScreenshots())

	update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	files, _ := filepath.Glob(filepath.Join(dir, "*"))
	if len(files) != 0 {
		t.Errorf("screenshots disabled but found %v", files)
	}
}

func TestModelResize(t *testing.T) {
	m := newTestModel(t, &recordingReporter{})
	m = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 12})

	lines := strings.Split(m.screen.String(), "\n")
	if len(lines) != 12 {
		t.Errorf("screen has %d rows after resize, expected 12", len(lines))
	}
}

func TestRenderScreenKeepsText(t *testing.T) {
	s := core.NewScreen(10, 2)
	s.DrawTextColored(0, 0, "hi", core.ColorPipe)
	s.DrawText(0, 1, "there")

	out := RenderScreen(s)
	if !strings.Contains(out, "hi") || !strings.Contains(out, "there") {
		t.Errorf("rendered output lost text: %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Errorf("expected 2 rows, got %q", out)
	}
}

type fakeScoreSource struct {
	scores []storage.ScoreEntry
	stats  *storage.Stats
	err    error
}

func (f *fakeScoreSource) TopScores(_ context.Context, limit int) ([]storage.ScoreEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.scores) {
		return f.scores[:limit], nil
	}
	return f.scores, nil
}

func (f *fakeScoreSource) Stats(_ context.Context) (*storage.Stats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

// loadedLeaderboard builds a leaderboard and runs its first fetch.
func loadedLeaderboard(t *testing.T, src ScoreSource, w, h int) LeaderboardModel {
	t.Helper()
	m := NewLeaderboardModel(src, w, h)
	return applyFetch(t, m, m.Init())
}

func applyFetch(t *testing.T, m LeaderboardModel, cmd tea.Cmd) LeaderboardModel {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a fetch command")
	}
	next, _ := m.Update(cmd())
	return next.(LeaderboardModel)
}

func TestLeaderboardShowsScores(t *testing.T) {
	src := &fakeScoreSource{
		scores: []storage.ScoreEntry{
			{ID: 2, Score: 12, Timestamp: "2024-03-01T12:00:00.000Z", DurationSecs: 40},
			{ID: 1, Score: 3, Timestamp: "2024-03-01T11:00:00.000Z", DurationSecs: 5},
		},
		stats: &storage.Stats{Games: 2, HighScore: 12, AvgScore: 7.5, TotalDuration: 45},
	}

	view := loadedLeaderboard(t, src, 100, 30).View()

	for _, want := range []string{"FLAPPY HIGH SCORES", "#1", "12", "40s", "Games: 2", "Best: 12", "Avg: 7.5"} {
		if !strings.Contains(view, want) {
			t.Errorf("leaderboard view missing %q", want)
		}
	}
}

func TestLeaderboardLoadingState(t *testing.T) {
	m := NewLeaderboardModel(&fakeScoreSource{}, 80, 24)
	if !strings.Contains(m.View(), "Loading") {
		t.Error("leaderboard should show loading before the first fetch")
	}
}

func TestLeaderboardEmptyAndError(t *testing.T) {
	m := loadedLeaderboard(t, &fakeScoreSource{stats: &storage.Stats{}}, 80, 24)
	if !strings.Contains(m.View(), "No scores recorded yet.") {
		t.Error("empty leaderboard should say so")
	}

	m = loadedLeaderboard(t, &fakeScoreSource{err: errors.New("db gone")}, 80, 24)
	if !strings.Contains(m.View(), "db gone") {
		t.Error("leaderboard should surface load errors")
	}
}

func TestLeaderboardRefreshAndQuit(t *testing.T) {
	src := &fakeScoreSource{stats: &storage.Stats{}}
	m := loadedLeaderboard(t, src, 80, 24)

	src.scores = []storage.ScoreEntry{{ID: 1, Score: 9, Timestamp: "2024-03-01T12:00:00.000Z"}}
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = applyFetch(t, next.(LeaderboardModel), cmd)
	if len(m.entries) != 1 {
		t.Fatalf("refresh should reload scores, have %d", len(m.entries))
	}

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil || !next.(LeaderboardModel).IsQuitting() {
		t.Error("q should quit the leaderboard")
	}
}

func TestLeaderboardRefreshIgnoredWhileLoading(t *testing.T) {
	m := NewLeaderboardModel(&fakeScoreSource{}, 80, 24)
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}); cmd != nil {
		t.Error("refresh while loading should not start a second fetch")
	}
}
