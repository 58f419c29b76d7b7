package flappy

import (
	"fmt"
	"math"

	"github.com/vovakirdan/tui-flappy/internal/core"
)

// Visual characters for rendering
const (
	BirdChar      = '●'
	BirdBeakChar  = '▶'
	PipeChar      = '█'
	PipeCapTop    = '▄'
	PipeCapBottom = '▀'
	GroundChar    = '═'
)

// viewport maps world coordinates onto screen cells.
// The bottom row is reserved for the ground.
type viewport struct {
	sx, sy float64
	playH  int
}

func newViewport(dst *core.Screen, worldW, worldH float64) viewport {
	playH := core.Max(dst.Height()-1, 1)
	return viewport{
		sx:    float64(dst.Width()) / worldW,
		sy:    float64(playH) / worldH,
		playH: playH,
	}
}

func (v viewport) col(x float64) int { return int(math.Floor(x * v.sx)) }
func (v viewport) row(y float64) int { return int(math.Floor(y * v.sy)) }

// cells converts a world length to at least one screen cell.
func cells(length, scale float64) int {
	return core.Max(int(math.Round(length*scale)), 1)
}

// Render draws the current game state to the screen, scaling the world to
// fit. Pipes are only drawn while a run is in progress.
func (g *Game) Render(dst *core.Screen) {
	dst.Clear()
	if dst.Width() == 0 || dst.Height() == 0 {
		return
	}

	vp := newViewport(dst, g.cfg.World.Width, g.cfg.World.Height)

	dst.DrawHLine(0, dst.Height()-1, dst.Width(), GroundChar, core.ColorGround)

	if g.phase == PhaseRunning {
		for _, p := range g.pipes.Pipes() {
			g.drawPipe(dst, vp, p)
		}
	}

	birdX := g.cfg.BirdX()
	if g.phase == PhaseIdle {
		birdX = g.cfg.World.Width/2 - g.cfg.Bird.Width/2
	}
	g.drawBird(dst, vp, birdX)

	if g.phase == PhaseRunning {
		dst.DrawTextColored(1, 0, fmt.Sprintf(" Current: %d ", g.score), core.ColorHUD)
		best := fmt.Sprintf(" Best: %d ", g.best)
		dst.DrawTextColored(dst.Width()-len(best)-1, 0, best, core.ColorBest)
		return
	}

	g.drawCenteredMessage(dst, fmt.Sprintf("Best score: %d", g.best), "Click to play")
}

func (g *Game) drawBird(dst *core.Screen, vp viewport, worldX float64) {
	x := vp.col(worldX)
	y := core.Clamp(vp.row(g.bird.Y), 0, vp.playH-1)
	w := cells(g.cfg.Bird.Width, vp.sx)
	h := cells(g.cfg.Bird.Height, vp.sy)

	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			ch := BirdChar
			if dx == w-1 && dy == 0 {
				ch = BirdBeakChar
			}
			dst.SetColored(x+dx, y+dy, ch, core.ColorBird)
		}
	}
}

// drawPipe renders both halves of an obstacle with caps facing the gap.
func (g *Game) drawPipe(dst *core.Screen, vp viewport, p Obstacle) {
	x0 := vp.col(p.X)
	w := cells(g.cfg.Obstacles.PipeWidth, vp.sx)
	gapTop := vp.row(p.GapTop)
	gapBottom := vp.row(p.GapTop + g.cfg.Obstacles.PipeGap)

	for y := 0; y < gapTop && y < vp.playH; y++ {
		ch, role := PipeChar, core.ColorPipe
		if y == gapTop-1 {
			ch, role = PipeCapTop, core.ColorPipeCap
		}
		for x := 0; x < w; x++ {
			dst.SetColored(x0+x, y, ch, role)
		}
	}

	for y := gapBottom; y < vp.playH; y++ {
		ch, role := PipeChar, core.ColorPipe
		if y == gapBottom {
			ch, role = PipeCapBottom, core.ColorPipeCap
		}
		for x := 0; x < w; x++ {
			dst.SetColored(x0+x, y, ch, role)
		}
	}
}

// drawCenteredMessage draws a message box in the center of the screen.
func (g *Game) drawCenteredMessage(dst *core.Screen, title, subtitle string) {
	w := dst.Width()
	h := dst.Height()

	boxW := core.Max(len(title), len(subtitle)) + 4
	boxH := 5
	boxX := (w - boxW) / 2
	boxY := (h - boxH) / 2

	dst.DrawRect(core.NewRect(boxX, boxY, boxW, boxH), ' ', core.ColorDefault)
	dst.DrawBox(core.NewRect(boxX, boxY, boxW, boxH), core.ColorFrame)

	dst.DrawTextCentered(boxY+1, title, core.ColorHUD)
	dst.DrawTextCentered(boxY+3, subtitle, core.ColorPrompt)
}
