package session

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cardroom/tourneyd/internal/game"
	"github.com/cardroom/tourneyd/internal/gameid"
)

// ManagerConfig bounds the hosting surface.
type ManagerConfig struct {
	MaxConcurrentGames int
	MaxGamesPerOwner   int
	PoolSize           int
	Retention          time.Duration
	SweepInterval      time.Duration
}

// DefaultManagerConfig mirrors the production defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		MaxConcurrentGames: 50,
		MaxGamesPerOwner:   5,
		PoolSize:           10,
		Retention:          7 * 24 * time.Hour,
		SweepInterval:      time.Hour,
	}
}

// Summary is the lobby view of one game.
type Summary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OwnerID    int64     `json:"owner_id"`
	State      State     `json:"state"`
	Players    int       `json:"players"`
	MaxPlayers int       `json:"max_players"`
	CreatedAt  time.Time `json:"created_at"`
}

// Manager owns every hosted game. Directors run on a worker pool sized
// independently of the game count; starting a game queues until a worker is
// free.
type Manager struct {
	log   zerolog.Logger
	clock quartz.Clock
	cfg   ManagerConfig

	mu    sync.Mutex
	games map[string]*Game

	group   *errgroup.Group
	runCtx  context.Context
	cancel  context.CancelFunc
	started sync.WaitGroup
}

// NewManager creates a manager with its director pool.
func NewManager(logger zerolog.Logger, clock quartz.Clock, cfg ManagerConfig) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	group := &errgroup.Group{}
	group.SetLimit(cfg.PoolSize)
	return &Manager{
		log:    logger.With().Str("component", "manager").Logger(),
		clock:  clock,
		cfg:    cfg,
		games:  make(map[string]*Game),
		group:  group,
		runCtx: ctx,
		cancel: cancel,
	}
}

// Create registers a new game owned by ownerID, open for players.
func (m *Manager) Create(ownerID int64, cfg game.TournamentConfig) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	active := 0
	owned := 0
	for _, g := range m.games {
		if g.State().Terminal() {
			continue
		}
		active++
		if g.OwnerID == ownerID {
			owned++
		}
	}
	if active >= m.cfg.MaxConcurrentGames {
		return nil, ErrAtCapacity
	}
	if owned >= m.cfg.MaxGamesPerOwner {
		return nil, ErrTooManyGames
	}

	g := NewGame(gameid.New(), ownerID, cfg, m.clock, m.log)
	if err := g.Open(); err != nil {
		return nil, err
	}
	m.games[g.ID] = g
	m.log.Info().Str("game", g.ID).Int64("owner", ownerID).Str("name", cfg.Name).Msg("game created")
	return g, nil
}

// Get returns the game with the given id.
func (m *Manager) Get(id string) (*Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return g, nil
}

// List returns lobby summaries for every hosted game.
func (m *Manager) List() []Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Summary, 0, len(m.games))
	for _, g := range m.games {
		out = append(out, Summary{
			ID:         g.ID,
			Name:       g.cfg.Name,
			OwnerID:    g.OwnerID,
			State:      g.State(),
			Players:    len(g.Players()),
			MaxPlayers: g.cfg.MaxPlayers,
			CreatedAt:  g.CreatedAt(),
		})
	}
	return out
}

// StartGame starts the game and schedules its director on the pool.
func (m *Manager) StartGame(id string, callerID int64) error {
	g, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := g.Start(callerID); err != nil {
		return err
	}
	m.started.Add(1)
	m.group.Go(func() error {
		defer m.started.Done()
		// Director errors are contained to the game; never fail the group.
		_ = g.Run(m.runCtx)
		return nil
	})
	return nil
}

// Remove deletes a terminal game, or any game if the owner asks.
func (m *Manager) Remove(id string, callerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return ErrGameNotFound
	}
	if !g.State().Terminal() && g.OwnerID != callerID {
		return ErrNotOwner
	}
	delete(m.games, id)
	return nil
}

// Sweep drops terminal games older than the retention period and returns
// how many were removed.
func (m *Manager) Sweep() int {
	cutoff := m.clock.Now().Add(-m.cfg.Retention)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, g := range m.games {
		if g.State().Terminal() && !g.CompletedAt().IsZero() && g.CompletedAt().Before(cutoff) {
			delete(m.games, id)
			removed++
		}
	}
	if removed > 0 {
		m.log.Info().Int("removed", removed).Msg("swept completed games")
	}
	return removed
}

// Run performs periodic maintenance until the context ends.
func (m *Manager) Run(ctx context.Context) error {
	ticker := m.clock.NewTicker(m.cfg.SweepInterval, "sweep")
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Shutdown cancels every running game and waits for their directors, bounded
// by the context.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.cancel()
	done := make(chan struct{})
	go func() {
		m.started.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
