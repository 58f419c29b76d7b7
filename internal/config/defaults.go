package config

import (
	_ "embed"
)

//go:embed defaults/flappy.yaml
var defaultFlappyYAML []byte

//go:embed defaults/server.yaml
var defaultServerYAML []byte

// DefaultFlappyConfig returns the default flappy tuning.
func DefaultFlappyConfig() FlappyConfig {
	return FlappyConfig{
		Physics: FlappyPhysics{
			Gravity:     0.5,
			JumpImpulse: -8,
			Speed:       5.2,
		},
		World: FlappyWorld{
			Width:  431,
			Height: 768,
		},
		Bird: FlappyBird{
			Width:     51,
			Height:    36,
			XFraction: 0.1,
		},
		Obstacles: FlappyObstacles{
			PipeWidth: 78,
			PipeGap:   270,
		},
	}
}

// DefaultServerConfig returns the default score server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Address:     ":8080",
		LogLevel:    "info",
		Environment: EnvLocal,
		Databases: map[string]DatabaseConfig{
			EnvLocal: {
				Driver: "sqlite",
				DSN:    "~/.flappy/scores.db",
			},
		},
	}
}
