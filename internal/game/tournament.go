package game

import (
	"sync"
	"time"

	"github.com/coder/quartz"
)

// Tournament tracks the blind schedule clock for one game: the current
// level, hands played within it, and pause bookkeeping. Time-based levels
// exclude paused time from their elapsed clock.
type Tournament struct {
	cfg   *TournamentConfig
	clock quartz.Clock

	mu          sync.Mutex
	level       int // index into cfg.Levels
	handsInLvl  int
	totalHands  int
	started     time.Time
	levelStart  time.Time
	paused      bool
	pausedAt    time.Time
	pausedTotal time.Duration // accumulated within the current level
}

// NewTournament starts the schedule clock at the first level.
func NewTournament(cfg *TournamentConfig, clock quartz.Clock) *Tournament {
	now := clock.Now()
	return &Tournament{
		cfg:        cfg,
		clock:      clock,
		started:    now,
		levelStart: now,
	}
}

// Config returns the tournament configuration.
func (t *Tournament) Config() *TournamentConfig { return t.cfg }

// Level returns the current blind level.
func (t *Tournament) Level() Level {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg.Levels[t.level]
}

// LevelIndex returns the current level number, 1-based.
func (t *Tournament) LevelIndex() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.level + 1
}

// OnLastLevel reports whether no further level exists.
func (t *Tournament) OnLastLevel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.level >= len(t.cfg.Levels)-1
}

// TotalHands returns hands completed across the whole game.
func (t *Tournament) TotalHands() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalHands
}

// LevelExpired reports whether the current level has run its course. Hands
// advancement counts completed hands; time advancement measures wall time
// minus accumulated pause.
func (t *Tournament) LevelExpired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.level >= len(t.cfg.Levels)-1 {
		return false
	}
	switch t.cfg.Advancement {
	case AdvanceByHands:
		return t.handsInLvl >= t.cfg.HandsPerLevel
	case AdvanceByTime:
		lvl := t.cfg.Levels[t.level]
		if lvl.Minutes <= 0 {
			return false
		}
		return t.levelElapsedLocked() >= time.Duration(lvl.Minutes)*time.Minute
	}
	return false
}

func (t *Tournament) levelElapsedLocked() time.Duration {
	elapsed := t.clock.Now().Sub(t.levelStart) - t.pausedTotal
	if t.paused {
		elapsed -= t.clock.Now().Sub(t.pausedAt)
	}
	return elapsed
}

// LevelElapsed returns play time within the current level, excluding pauses.
func (t *Tournament) LevelElapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.levelElapsedLocked()
}

// NextLevel advances to the following level and resets the level clock and
// hand counter. It never advances past the last level; the blinds of the
// final level play until the game ends.
func (t *Tournament) NextLevel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.level >= len(t.cfg.Levels)-1 {
		return false
	}
	t.level++
	t.handsInLvl = 0
	t.levelStart = t.clock.Now()
	t.pausedTotal = 0
	if t.paused {
		t.pausedAt = t.levelStart
	}
	return true
}

// HandFinished records a completed hand and, in hands advancement, advances
// an expired level. Returns true when the level changed.
func (t *Tournament) HandFinished() bool {
	t.mu.Lock()
	t.handsInLvl++
	t.totalHands++
	onBreak := t.cfg.Levels[t.level].Break
	t.mu.Unlock()

	if onBreak {
		// A hand still in flight when a break begins must not skip it;
		// leaving a break is the director's transition.
		return false
	}
	if t.cfg.Advancement == AdvanceByHands && t.LevelExpired() {
		return t.NextLevel()
	}
	return false
}

// Pause stops the level clock.
func (t *Tournament) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused {
		return
	}
	t.paused = true
	t.pausedAt = t.clock.Now()
}

// Resume restarts the level clock, banking the paused span.
func (t *Tournament) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.paused {
		return
	}
	t.paused = false
	t.pausedTotal += t.clock.Now().Sub(t.pausedAt)
}

// Paused reports whether the clock is stopped.
func (t *Tournament) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// RebuyActive reports whether busted players may still rebuy.
func (t *Tournament) RebuyActive(p *Player) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.cfg.Rebuy
	if !r.Enabled || t.level+1 > r.ThroughLevel {
		return false
	}
	return r.MaxPerPlayer == 0 || p.Rebuys < r.MaxPerPlayer
}

// AddonAvailable reports whether the break addon is on offer.
func (t *Tournament) AddonAvailable(p *Player) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg.Addon.Enabled && p.Addons == 0
}
