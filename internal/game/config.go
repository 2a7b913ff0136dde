package game

import (
	"errors"
	"fmt"
	"time"
)

// AdvanceMode selects how blind levels expire.
type AdvanceMode string

const (
	// AdvanceByTime expires a level after its minutes of play, excluding
	// time spent paused.
	AdvanceByTime AdvanceMode = "time"
	// AdvanceByHands expires a level after a fixed number of hands.
	AdvanceByHands AdvanceMode = "hands"
)

// Level is one entry in the blind schedule. A break level has Break set and
// posts no blinds.
type Level struct {
	Small   int  `hcl:"small,optional"`
	Big     int  `hcl:"big,optional"`
	Ante    int  `hcl:"ante,optional"`
	Minutes int  `hcl:"minutes,optional"`
	Break   bool `hcl:"break,optional"`
}

// RebuyPolicy controls busted-player rebuys during the early levels.
type RebuyPolicy struct {
	Enabled      bool `hcl:"enabled,optional"`
	Chips        int  `hcl:"chips,optional"`
	MaxPerPlayer int  `hcl:"max_per_player,optional"`
	ThroughLevel int  `hcl:"through_level,optional"` // 1-based, inclusive
}

// AddonPolicy controls the one-time addon offered at a break.
type AddonPolicy struct {
	Enabled bool `hcl:"enabled,optional"`
	Chips   int  `hcl:"chips,optional"`
}

// TournamentConfig describes one tournament. Validation is structural only;
// game balance is the operator's business.
type TournamentConfig struct {
	Name          string `hcl:"name,optional"`
	StartingChips int    `hcl:"starting_chips,optional"`
	MinPlayers    int    `hcl:"min_players,optional"`
	MaxPlayers    int    `hcl:"max_players,optional"`
	SeatsPerTable int    `hcl:"seats_per_table,optional"`

	Levels        []Level     `hcl:"level,block"`
	Advancement   AdvanceMode `hcl:"advancement,optional"`
	HandsPerLevel int         `hcl:"hands_per_level,optional"`

	DecisionTimeoutSeconds int `hcl:"decision_timeout_seconds,optional"`
	GraceTurns             int `hcl:"grace_turns,optional"`
	AIThinkDelayMs         int `hcl:"ai_think_delay_ms,optional"`

	Rebuy RebuyPolicy `hcl:"rebuy,block"`
	Addon AddonPolicy `hcl:"addon,block"`

	Seed int64 `hcl:"seed,optional"`
}

// DefaultTournamentConfig returns a playable nine-handed configuration.
func DefaultTournamentConfig() TournamentConfig {
	return TournamentConfig{
		Name:          "Tournament",
		StartingChips: 1500,
		MinPlayers:    2,
		MaxPlayers:    27,
		SeatsPerTable: 9,
		Levels: []Level{
			{Small: 10, Big: 20, Minutes: 10},
			{Small: 15, Big: 30, Minutes: 10},
			{Small: 25, Big: 50, Minutes: 10},
			{Small: 50, Big: 100, Minutes: 10},
			{Small: 75, Big: 150, Ante: 15, Minutes: 10},
			{Small: 100, Big: 200, Ante: 25, Minutes: 10},
		},
		Advancement:            AdvanceByTime,
		HandsPerLevel:          10,
		DecisionTimeoutSeconds: 30,
		GraceTurns:             2,
	}
}

// DecisionTimeout returns the per-action timeout as a duration.
func (c *TournamentConfig) DecisionTimeout() time.Duration {
	return time.Duration(c.DecisionTimeoutSeconds) * time.Second
}

// AIThinkDelay returns the artificial delay before AI actions.
func (c *TournamentConfig) AIThinkDelay() time.Duration {
	return time.Duration(c.AIThinkDelayMs) * time.Millisecond
}

// Validate checks the configuration for structural problems.
func (c *TournamentConfig) Validate() error {
	if c.StartingChips <= 0 {
		return errors.New("starting_chips must be positive")
	}
	if c.MinPlayers < 2 {
		return errors.New("min_players must be at least 2")
	}
	if c.MaxPlayers < c.MinPlayers {
		return errors.New("max_players must be at least min_players")
	}
	if c.SeatsPerTable < 2 {
		return errors.New("seats_per_table must be at least 2")
	}
	if len(c.Levels) == 0 {
		return errors.New("at least one blind level is required")
	}
	for i, lvl := range c.Levels {
		if lvl.Break {
			continue
		}
		if lvl.Small <= 0 || lvl.Big < lvl.Small {
			return fmt.Errorf("level %d: blinds must be positive with big >= small", i+1)
		}
	}
	if c.Levels[0].Break {
		return errors.New("first level cannot be a break")
	}
	if c.Levels[len(c.Levels)-1].Break {
		return errors.New("last level cannot be a break")
	}
	switch c.Advancement {
	case AdvanceByTime, AdvanceByHands:
	case "":
		return errors.New("advancement mode is required")
	default:
		return fmt.Errorf("unknown advancement mode %q", c.Advancement)
	}
	if c.Advancement == AdvanceByHands && c.HandsPerLevel <= 0 {
		return errors.New("hands_per_level must be positive for hands advancement")
	}
	if c.Rebuy.Enabled && c.Rebuy.Chips <= 0 {
		return errors.New("rebuy chips must be positive when rebuys are enabled")
	}
	if c.Addon.Enabled && c.Addon.Chips <= 0 {
		return errors.New("addon chips must be positive when addons are enabled")
	}
	return nil
}
