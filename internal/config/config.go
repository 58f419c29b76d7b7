// Package config provides YAML/TOML configuration loading for the game
// tuning and for the score server.
package config

import (
	"errors"
	"fmt"
)

// FlappyConfig contains all tuning for the flappy simulation.
// Units are world pixels and ticks.
type FlappyConfig struct {
	Physics   FlappyPhysics   `yaml:"physics" toml:"physics"`
	World     FlappyWorld     `yaml:"world" toml:"world"`
	Bird      FlappyBird      `yaml:"bird" toml:"bird"`
	Obstacles FlappyObstacles `yaml:"obstacles" toml:"obstacles"`
}

// FlappyPhysics defines per-tick physics parameters.
type FlappyPhysics struct {
	Gravity     float64 `yaml:"gravity" toml:"gravity"`           // Added to velocity every running tick
	JumpImpulse float64 `yaml:"jump_impulse" toml:"jump_impulse"` // Velocity set by a flap (negative = up)
	Speed       float64 `yaml:"speed" toml:"speed"`               // Obstacle scroll per tick
}

// FlappyWorld defines the size of the playfield.
type FlappyWorld struct {
	Width  float64 `yaml:"width" toml:"width"`
	Height float64 `yaml:"height" toml:"height"`
}

// FlappyBird defines the bird hitbox.
type FlappyBird struct {
	Width     float64 `yaml:"width" toml:"width"`
	Height    float64 `yaml:"height" toml:"height"`
	XFraction float64 `yaml:"x_fraction" toml:"x_fraction"` // Running x position as a fraction of world width
}

// FlappyObstacles defines pipe geometry.
type FlappyObstacles struct {
	PipeWidth float64 `yaml:"pipe_width" toml:"pipe_width"`
	PipeGap   float64 `yaml:"pipe_gap" toml:"pipe_gap"`
}

// BirdX returns the fixed horizontal position of the bird while running.
func (c FlappyConfig) BirdX() float64 {
	return c.World.Width * c.Bird.XFraction
}

// Pitch returns the horizontal distance between successive obstacles.
func (c FlappyConfig) Pitch() float64 {
	return c.Obstacles.PipeGap + c.Obstacles.PipeWidth
}

// Validate checks that the configuration describes a playable world.
func (c FlappyConfig) Validate() error {
	var errs []error
	if c.World.Width <= 0 || c.World.Height <= 0 {
		errs = append(errs, fmt.Errorf("world size must be positive, got %vx%v", c.World.Width, c.World.Height))
	}
	if c.Bird.Width <= 0 || c.Bird.Height <= 0 {
		errs = append(errs, fmt.Errorf("bird size must be positive, got %vx%v", c.Bird.Width, c.Bird.Height))
	}
	if c.Obstacles.PipeWidth <= 0 || c.Obstacles.PipeGap <= 0 {
		errs = append(errs, errors.New("pipe_width and pipe_gap must be positive"))
	}
	if c.Physics.Speed <= 0 {
		errs = append(errs, fmt.Errorf("speed must be positive, got %v", c.Physics.Speed))
	}
	// Gap tops are drawn from [pipe_width, height - gap - pipe_width).
	if band := c.World.Height - c.Obstacles.PipeGap - 2*c.Obstacles.PipeWidth; band <= 0 {
		errs = append(errs, fmt.Errorf("no room for the gap: height %v, gap %v, pipe_width %v",
			c.World.Height, c.Obstacles.PipeGap, c.Obstacles.PipeWidth))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: invalid flappy config: %w", errors.Join(errs...))
	}
	return nil
}

// ServerConfig contains configuration for the score server.
type ServerConfig struct {
	Address     string                    `yaml:"address" toml:"address"`
	SSHAddress  string                    `yaml:"ssh_address" toml:"ssh_address"` // Empty disables SSH play
	HostKeyPath string                    `yaml:"host_key" toml:"host_key"`
	LogLevel    string                    `yaml:"log_level" toml:"log_level"`
	Environment string                    `yaml:"environment" toml:"environment"`
	Databases   map[string]DatabaseConfig `yaml:"databases" toml:"databases"`
}

// DatabaseConfig selects a storage backend.
type DatabaseConfig struct {
	Driver       string `yaml:"driver" toml:"driver"` // "sqlite" or "postgres"
	DSN          string `yaml:"dsn" toml:"dsn"`       // File path for sqlite, URL for postgres
	MaxOpenConns int    `yaml:"max_open_conns" toml:"max_open_conns"`
}

// Well-known environments.
const (
	EnvLocal      = "local"
	EnvProduction = "production"
)

// ActiveDatabase returns the database credentials for the configured
// environment. An empty environment means local.
func (c ServerConfig) ActiveDatabase() (DatabaseConfig, error) {
	env := c.Environment
	if env == "" {
		env = EnvLocal
	}
	db, ok := c.Databases[env]
	if !ok {
		return DatabaseConfig{}, fmt.Errorf("config: no database configured for environment %q", env)
	}
	if db.Driver == "" {
		db.Driver = "sqlite"
	}
	return db, nil
}
