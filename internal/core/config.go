package core

import "time"

// RuntimeConfig describes the terminal a game is shown on and how fast it
// is driven. The simulation itself runs in world units and never reads the
// screen size.
type RuntimeConfig struct {
	ScreenW  int   // Columns
	ScreenH  int   // Rows
	TickRate int   // Step calls per second
	Seed     int64 // Gap RNG seed; 0 asks the platform for a time-based seed
}

// DefaultConfig is an 80x24 terminal at 60 ticks per second.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:  80,
		ScreenH:  24,
		TickRate: 60,
	}
}

// TickInterval is the wall-clock time between two steps. Non-positive
// rates fall back to 60 per second.
func (c RuntimeConfig) TickInterval() time.Duration {
	rate := c.TickRate
	if rate <= 0 {
		rate = 60
	}
	return time.Second / time.Duration(rate)
}
