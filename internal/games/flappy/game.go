// Package flappy implements the Flappy Bird simulation loop.
// The player flaps a bird through gaps in scrolling pipe pairs; each run
// ends on the first collision and its score is handed to a Reporter.
package flappy

import (
	"math"
	"math/rand"
	"time"

	"github.com/vovakirdan/tui-flappy/internal/config"
	"github.com/vovakirdan/tui-flappy/internal/core"
)

// Phase is the run state of the simulation.
type Phase int

const (
	PhaseIdle    Phase = iota // Waiting for a start trigger; bird held centered
	PhaseRunning              // Physics, scrolling and scoring active
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseRunning:
		return "Running"
	default:
		return "Unknown"
	}
}

// Reporter receives the record of every finished run.
// Submit must not block the caller.
type Reporter interface {
	Submit(rec core.ScoreRecord)
}

// Rand is a uniform random source in [0, 1).
type Rand interface {
	Float64() float64
}

// Bird is the player's vertical state. Y is the top of the hitbox.
type Bird struct {
	Y   float64
	Vel float64
}

// StepResult is returned by Step after each tick.
type StepResult struct {
	Phase  Phase
	Score  int
	Best   int
	Passed bool              // A pipe was passed this tick
	Record *core.ScoreRecord // Set on the tick a run ended
}

// Game owns all simulation state. It is not safe for concurrent use;
// the platform drives Step and the triggers from one goroutine.
type Game struct {
	cfg      config.FlappyConfig
	rng      Rand
	reporter Reporter

	phase     Phase
	bird      Bird
	pipes     *PipeManager
	score     int
	best      int
	startedAt time.Time // Zero until the first running tick
	ticks     uint64
}

// Option customizes a Game.
type Option func(*Game)

// WithRand sets the random source used for gap placement.
func WithRand(r Rand) Option {
	return func(g *Game) { g.rng = r }
}

// WithReporter sets where finished runs are sent.
func WithReporter(r Reporter) Option {
	return func(g *Game) { g.reporter = r }
}

// WithBest seeds the best score, e.g. from persisted scores.
func WithBest(best int) Option {
	return func(g *Game) { g.best = best }
}

// New creates a game in the Idle phase.
func New(cfg config.FlappyConfig, opts ...Option) *Game {
	g := &Game{cfg: cfg}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	g.pipes = NewPipeManager(&g.cfg, g.rng)
	g.reset()
	return g
}

// reset prepares a fresh run: score cleared, pipes re-laid, bird centered
// and primed with the opening flap.
func (g *Game) reset() {
	g.score = 0
	g.startedAt = time.Time{}
	g.bird = Bird{Y: g.restY(), Vel: g.cfg.Physics.JumpImpulse}
	g.pipes.Reset()
}

// restY is the centered resting height used while Idle.
func (g *Game) restY() float64 {
	return g.cfg.World.Height/2 - g.cfg.Bird.Height/2
}

// Start moves Idle to Running and clears the start instant, so the next
// tick records a fresh one. Entry action: the bird gets the opening flap.
// Start while Running restarts the duration count and leaves the bird alone.
func (g *Game) Start() {
	g.startedAt = time.Time{}
	if g.phase == PhaseRunning {
		return
	}
	g.phase = PhaseRunning
	g.bird.Vel = g.cfg.Physics.JumpImpulse
}

// Jump sets the bird's velocity to the jump impulse immediately.
// Ignored while Idle.
func (g *Game) Jump() {
	if g.phase != PhaseRunning {
		return
	}
	g.bird.Vel = g.cfg.Physics.JumpImpulse
}

// Apply dispatches a platform action to the matching trigger.
func (g *Game) Apply(a core.Action) {
	switch a {
	case core.ActionStart:
		g.Start()
	case core.ActionJump:
		g.Jump()
	}
}

// Step advances the simulation by one tick at wall-clock time now.
func (g *Game) Step(now time.Time) StepResult {
	g.ticks++

	if g.phase == PhaseIdle {
		g.bird.Y = g.restY()
		return g.result(false, nil)
	}

	if g.startedAt.IsZero() {
		g.startedAt = now
	}

	passed := g.pipes.Advance(g.cfg.Physics.Speed)
	if passed {
		g.score++
		if g.score > g.best {
			g.best = g.score
		}
	}

	if g.pipes.Collides(g.birdBox()) {
		rec := core.NewScoreRecord(g.score, g.startedAt, now)
		g.phase = PhaseIdle
		g.reset()
		if g.reporter != nil {
			g.reporter.Submit(rec)
		}
		return g.result(passed, &rec)
	}

	g.bird.Vel += g.cfg.Physics.Gravity
	g.bird.Y = math.Min(g.bird.Y+g.bird.Vel, g.cfg.World.Height-g.cfg.Bird.Height)

	return g.result(passed, nil)
}

func (g *Game) result(passed bool, rec *core.ScoreRecord) StepResult {
	return StepResult{
		Phase:  g.phase,
		Score:  g.score,
		Best:   g.best,
		Passed: passed,
		Record: rec,
	}
}

// birdBox returns the bird's collision box at its running position.
func (g *Game) birdBox() core.Box {
	return core.Box{
		X: g.cfg.BirdX(),
		Y: g.bird.Y,
		W: g.cfg.Bird.Width,
		H: g.cfg.Bird.Height,
	}
}

// Phase returns the current phase.
func (g *Game) Phase() Phase {
	return g.phase
}

// Bird returns a copy of the bird state.
func (g *Game) Bird() Bird {
	return g.bird
}

// Obstacles returns a copy of the pipe sequence.
func (g *Game) Obstacles() []Obstacle {
	return g.pipes.Pipes()
}

// Score returns the current run's score.
func (g *Game) Score() int {
	return g.score
}

// Best returns the best score seen by this game.
func (g *Game) Best() int {
	return g.best
}

// StartedAt returns when the current run started, zero if not yet.
func (g *Game) StartedAt() time.Time {
	return g.startedAt
}

// Ticks returns the number of Step calls so far.
func (g *Game) Ticks() uint64 {
	return g.ticks
}

// Config returns the tuning the game was built with.
func (g *Game) Config() config.FlappyConfig {
	return g.cfg
}
