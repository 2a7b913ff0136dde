package game

import (
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handsConfig(handsPerLevel int, levels ...Level) *TournamentConfig {
	cfg := DefaultTournamentConfig()
	cfg.Advancement = AdvanceByHands
	cfg.HandsPerLevel = handsPerLevel
	if len(levels) > 0 {
		cfg.Levels = levels
	}
	return &cfg
}

func TestHandsAdvancement(t *testing.T) {
	t.Parallel()

	trn := NewTournament(handsConfig(2), quartz.NewMock(t))
	require.Equal(t, 1, trn.LevelIndex())

	assert.False(t, trn.HandFinished())
	assert.True(t, trn.HandFinished())
	assert.Equal(t, 2, trn.LevelIndex())
	assert.Equal(t, 2, trn.TotalHands())

	// The counter reset with the new level.
	assert.False(t, trn.HandFinished())
	assert.True(t, trn.HandFinished())
	assert.Equal(t, 3, trn.LevelIndex())
}

func TestHandDuringBreakDoesNotAdvanceLevel(t *testing.T) {
	t.Parallel()

	trn := NewTournament(handsConfig(1,
		Level{Small: 10, Big: 20},
		Level{Break: true},
		Level{Small: 25, Big: 50},
	), quartz.NewMock(t))

	require.True(t, trn.HandFinished())
	require.True(t, trn.Level().Break)

	// A hand from another table finishing during the break must not move
	// the schedule past it.
	assert.False(t, trn.HandFinished())
	assert.True(t, trn.Level().Break)

	require.True(t, trn.NextLevel())
	assert.Equal(t, 3, trn.LevelIndex())
}

func TestLastLevelPlaysForever(t *testing.T) {
	t.Parallel()

	trn := NewTournament(handsConfig(1,
		Level{Small: 10, Big: 20},
		Level{Small: 25, Big: 50},
	), quartz.NewMock(t))

	assert.True(t, trn.HandFinished())
	require.True(t, trn.OnLastLevel())

	for range 5 {
		assert.False(t, trn.HandFinished())
	}
	assert.Equal(t, 2, trn.LevelIndex())
	assert.False(t, trn.LevelExpired())
	assert.False(t, trn.NextLevel())
}

func TestTimeAdvancement(t *testing.T) {
	t.Parallel()

	mock := quartz.NewMock(t)
	cfg := DefaultTournamentConfig()
	trn := NewTournament(&cfg, mock)

	mock.Advance(9 * time.Minute)
	assert.False(t, trn.LevelExpired())

	mock.Advance(time.Minute)
	assert.True(t, trn.LevelExpired())

	require.True(t, trn.NextLevel())
	assert.Equal(t, 2, trn.LevelIndex())
	assert.Equal(t, 30, trn.Level().Big)
	assert.False(t, trn.LevelExpired())
}

func TestPauseExcludedFromLevelClock(t *testing.T) {
	t.Parallel()

	mock := quartz.NewMock(t)
	cfg := DefaultTournamentConfig()
	trn := NewTournament(&cfg, mock)

	mock.Advance(5 * time.Minute)
	trn.Pause()
	assert.True(t, trn.Paused())

	// An hour on pause does not move the level clock.
	mock.Advance(time.Hour)
	assert.Equal(t, 5*time.Minute, trn.LevelElapsed())
	assert.False(t, trn.LevelExpired())

	trn.Resume()
	mock.Advance(5 * time.Minute)
	assert.Equal(t, 10*time.Minute, trn.LevelElapsed())
	assert.True(t, trn.LevelExpired())
}

func TestRebuyWindow(t *testing.T) {
	t.Parallel()

	cfg := handsConfig(1,
		Level{Small: 10, Big: 20},
		Level{Small: 25, Big: 50},
		Level{Small: 50, Big: 100},
	)
	cfg.Rebuy = RebuyPolicy{Enabled: true, Chips: 1500, MaxPerPlayer: 2, ThroughLevel: 2}
	trn := NewTournament(cfg, quartz.NewMock(t))

	p := NewPlayer(1, "", true, 0)
	assert.True(t, trn.RebuyActive(p))

	p.Rebuys = 2
	assert.False(t, trn.RebuyActive(p))
	p.Rebuys = 0

	trn.HandFinished() // level 2, still inside the window
	assert.True(t, trn.RebuyActive(p))

	trn.HandFinished() // level 3, window closed
	assert.False(t, trn.RebuyActive(p))
}

func TestAddonOnceOnly(t *testing.T) {
	t.Parallel()

	cfg := DefaultTournamentConfig()
	cfg.Addon = AddonPolicy{Enabled: true, Chips: 2000}
	trn := NewTournament(&cfg, quartz.NewMock(t))

	p := NewPlayer(1, "", true, 500)
	assert.True(t, trn.AddonAvailable(p))
	p.Addons = 1
	assert.False(t, trn.AddonAvailable(p))
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := DefaultTournamentConfig()
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*TournamentConfig)
	}{
		{"no chips", func(c *TournamentConfig) { c.StartingChips = 0 }},
		{"min players", func(c *TournamentConfig) { c.MinPlayers = 1 }},
		{"max below min", func(c *TournamentConfig) { c.MaxPlayers = 1 }},
		{"no levels", func(c *TournamentConfig) { c.Levels = nil }},
		{"zero blinds", func(c *TournamentConfig) { c.Levels[0].Small = 0 }},
		{"big below small", func(c *TournamentConfig) { c.Levels[0].Big = 5 }},
		{"break first", func(c *TournamentConfig) {
			c.Levels = append([]Level{{Break: true}}, c.Levels...)
		}},
		{"break last", func(c *TournamentConfig) {
			c.Levels = append(c.Levels, Level{Break: true})
		}},
		{"bad advancement", func(c *TournamentConfig) { c.Advancement = "rounds" }},
		{"hands mode without count", func(c *TournamentConfig) {
			c.Advancement = AdvanceByHands
			c.HandsPerLevel = 0
		}},
		{"rebuy without chips", func(c *TournamentConfig) {
			c.Rebuy = RebuyPolicy{Enabled: true}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultTournamentConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
