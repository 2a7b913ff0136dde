package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/cardroom/tourneyd/internal/game"
	"github.com/cardroom/tourneyd/internal/session"
)

// Config is the complete server configuration.
type Config struct {
	Server Settings `hcl:"server,block"`
	Limits Limits   `hcl:"limits,block"`

	// Tournament is the default profile applied when a create request
	// omits its configuration.
	Tournament *game.TournamentConfig `hcl:"tournament,block"`
}

// Settings contains listener-level configuration.
type Settings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// Limits bounds the hosting surface.
type Limits struct {
	MaxConcurrentGames int `hcl:"max_concurrent_games,optional"`
	MaxGamesPerOwner   int `hcl:"max_games_per_owner,optional"`
	PoolSize           int `hcl:"pool_size,optional"`
	RetentionDays      int `hcl:"retention_days,optional"`
	SweepMinutes       int `hcl:"sweep_minutes,optional"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: Settings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Limits: Limits{
			MaxConcurrentGames: 50,
			MaxGamesPerOwner:   5,
			PoolSize:           10,
			RetentionDays:      7,
			SweepMinutes:       60,
		},
	}
}

// LoadConfig reads an HCL configuration file, falling back to defaults for
// anything unset.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", filename)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing config: %s", diags.Error())
	}

	config := DefaultConfig()
	if diags := gohcl.DecodeBody(file.Body, nil, config); diags.HasErrors() {
		return nil, fmt.Errorf("decoding config: %s", diags.Error())
	}
	applyDefaults(config)
	return config, nil
}

func applyDefaults(c *Config) {
	def := DefaultConfig()
	if c.Server.Address == "" {
		c.Server.Address = def.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = def.Server.LogLevel
	}
	if c.Limits.MaxConcurrentGames == 0 {
		c.Limits.MaxConcurrentGames = def.Limits.MaxConcurrentGames
	}
	if c.Limits.MaxGamesPerOwner == 0 {
		c.Limits.MaxGamesPerOwner = def.Limits.MaxGamesPerOwner
	}
	if c.Limits.PoolSize == 0 {
		c.Limits.PoolSize = def.Limits.PoolSize
	}
	if c.Limits.RetentionDays == 0 {
		c.Limits.RetentionDays = def.Limits.RetentionDays
	}
	if c.Limits.SweepMinutes == 0 {
		c.Limits.SweepMinutes = def.Limits.SweepMinutes
	}
}

// ListenAddr returns the host:port to bind.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// ManagerConfig converts the limits into the session manager's terms.
func (c *Config) ManagerConfig() session.ManagerConfig {
	return session.ManagerConfig{
		MaxConcurrentGames: c.Limits.MaxConcurrentGames,
		MaxGamesPerOwner:   c.Limits.MaxGamesPerOwner,
		PoolSize:           c.Limits.PoolSize,
		Retention:          time.Duration(c.Limits.RetentionDays) * 24 * time.Hour,
		SweepInterval:      time.Duration(c.Limits.SweepMinutes) * time.Minute,
	}
}
