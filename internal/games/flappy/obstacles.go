package flappy

import (
	"github.com/vovakirdan/tui-flappy/internal/config"
	"github.com/vovakirdan/tui-flappy/internal/core"
)

// ObstacleCount is the fixed number of pipe pairs in the world.
const ObstacleCount = 3

// Obstacle is a top/bottom pipe pair sharing one gap.
type Obstacle struct {
	X      float64 // Horizontal position (left edge)
	GapTop float64 // Y where the gap starts; the top pipe ends here
}

// TopBox returns the solid region above the gap.
func (o Obstacle) TopBox(pipeWidth float64) core.Box {
	return core.Box{X: o.X, Y: 0, W: pipeWidth, H: o.GapTop}
}

// BottomBox returns the solid region below the gap.
func (o Obstacle) BottomBox(pipeWidth, gap, worldH float64) core.Box {
	bottomY := o.GapTop + gap
	return core.Box{X: o.X, Y: bottomY, W: pipeWidth, H: worldH - bottomY}
}

// PipeManager owns the obstacle sequence: scrolling, recycling and
// collision tests. The sequence is always ordered by ascending X.
type PipeManager struct {
	pipes [ObstacleCount]Obstacle
	rng   Rand
	cfg   *config.FlappyConfig
}

// NewPipeManager creates a pipe manager laid out for a fresh run.
func NewPipeManager(cfg *config.FlappyConfig, rng Rand) *PipeManager {
	pm := &PipeManager{
		rng: rng,
		cfg: cfg,
	}
	pm.Reset()
	return pm
}

// Reset lays the pipes out just beyond the right edge, one pitch apart.
func (pm *PipeManager) Reset() {
	for i := range pm.pipes {
		pm.pipes[i] = Obstacle{
			X:      pm.cfg.World.Width + float64(i)*pm.cfg.Pitch(),
			GapTop: pm.gapTop(),
		}
	}
}

// Advance scrolls every pipe left by speed. When the leftmost pipe has
// fully left the screen it is recycled one pitch behind the rightmost.
// Returns true if a pipe was passed this tick.
func (pm *PipeManager) Advance(speed float64) bool {
	for i := range pm.pipes {
		pm.pipes[i].X -= speed
	}

	if pm.pipes[0].X > -pm.cfg.Obstacles.PipeWidth {
		return false
	}

	last := pm.pipes[ObstacleCount-1]
	copy(pm.pipes[:], pm.pipes[1:])
	pm.pipes[ObstacleCount-1] = Obstacle{
		X:      last.X + pm.cfg.Pitch(),
		GapTop: pm.gapTop(),
	}
	return true
}

// gapTop draws a gap offset uniformly from the playable band, which
// leaves a pipe-width margin at the top and below the gap.
func (pm *PipeManager) gapTop() float64 {
	w := pm.cfg.Obstacles.PipeWidth
	band := pm.cfg.World.Height - (pm.cfg.Obstacles.PipeGap + w) - w
	return pm.rng.Float64()*band + w
}

// Pipes returns a copy of the current sequence.
func (pm *PipeManager) Pipes() []Obstacle {
	out := make([]Obstacle, ObstacleCount)
	copy(out, pm.pipes[:])
	return out
}

// Collides reports whether the bird box hits any pipe. A pipe hits when
// it shares horizontal extent with the bird (edges inclusive) and the bird
// is not inside the gap band. Sitting exactly on either gap edge is safe.
func (pm *PipeManager) Collides(bird core.Box) bool {
	w := pm.cfg.Obstacles.PipeWidth
	gap := pm.cfg.Obstacles.PipeGap

	for _, p := range pm.pipes {
		top := p.TopBox(w)
		if !bird.SpansX(top) {
			continue
		}
		// The top pipe runs past the ceiling and the bottom one to the
		// floor, so only the edges facing the gap can be crossed.
		bottom := p.BottomBox(w, gap, pm.cfg.World.Height)
		if bird.Y < top.Bottom() || bird.Bottom() > bottom.Y {
			return true
		}
	}
	return false
}
