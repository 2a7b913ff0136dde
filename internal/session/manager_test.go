package session

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/tourneyd/internal/gameid"
)

func newTestManager(t *testing.T, clock quartz.Clock, mutate func(*ManagerConfig)) *Manager {
	t.Helper()
	cfg := DefaultManagerConfig()
	cfg.PoolSize = 2
	if mutate != nil {
		mutate(&cfg)
	}
	return NewManager(zerolog.Nop(), clock, cfg)
}

func TestManagerCreateAndGet(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, quartz.NewMock(t), nil)
	g, err := m.Create(ownerID, fastConfig())
	require.NoError(t, err)
	assert.Equal(t, StateWaiting, g.State())
	assert.NoError(t, gameid.Validate(g.ID))

	got, err := m.Get(g.ID)
	require.NoError(t, err)
	assert.Same(t, g, got)

	_, err = m.Get("nope")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestManagerRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, quartz.NewMock(t), nil)
	cfg := fastConfig()
	cfg.Levels = nil
	_, err := m.Create(ownerID, cfg)
	assert.Error(t, err)
}

func TestManagerCapacityLimits(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, quartz.NewMock(t), func(c *ManagerConfig) {
		c.MaxConcurrentGames = 3
		c.MaxGamesPerOwner = 2
	})

	_, err := m.Create(1, fastConfig())
	require.NoError(t, err)
	_, err = m.Create(1, fastConfig())
	require.NoError(t, err)

	// A third game for the same owner is over their limit.
	_, err = m.Create(1, fastConfig())
	assert.ErrorIs(t, err, ErrTooManyGames)

	_, err = m.Create(2, fastConfig())
	require.NoError(t, err)
	_, err = m.Create(3, fastConfig())
	assert.ErrorIs(t, err, ErrAtCapacity)
}

func TestManagerCountsOnlyLiveGames(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, quartz.NewMock(t), func(c *ManagerConfig) {
		c.MaxGamesPerOwner = 1
	})

	g, err := m.Create(1, fastConfig())
	require.NoError(t, err)
	_, err = m.Create(1, fastConfig())
	assert.ErrorIs(t, err, ErrTooManyGames)

	require.NoError(t, g.Cancel(1))
	_, err = m.Create(1, fastConfig())
	assert.NoError(t, err)
}

func TestManagerRemove(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, quartz.NewMock(t), nil)
	g, err := m.Create(ownerID, fastConfig())
	require.NoError(t, err)

	// A live game belongs to its owner.
	assert.ErrorIs(t, m.Remove(g.ID, 1), ErrNotOwner)
	require.NoError(t, m.Remove(g.ID, ownerID))
	_, err = m.Get(g.ID)
	assert.ErrorIs(t, err, ErrGameNotFound)

	assert.ErrorIs(t, m.Remove(g.ID, ownerID), ErrGameNotFound)
}

func TestManagerList(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, quartz.NewMock(t), nil)
	cfg := fastConfig()
	cfg.Name = "friday night"
	g, err := m.Create(ownerID, cfg)
	require.NoError(t, err)
	_, err = g.Join(1, "alice")
	require.NoError(t, err)

	list := m.List()
	require.Len(t, list, 1)
	assert.Equal(t, g.ID, list[0].ID)
	assert.Equal(t, "friday night", list[0].Name)
	assert.Equal(t, StateWaiting, list[0].State)
	assert.Equal(t, 1, list[0].Players)
}

func TestManagerRunsGameToCompletion(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, quartz.NewReal(), nil)
	g, err := m.Create(ownerID, fastConfig())
	require.NoError(t, err)
	for range 3 {
		_, err := g.AddBot(ownerID, "bot")
		require.NoError(t, err)
	}

	assert.ErrorIs(t, m.StartGame("nope", ownerID), ErrGameNotFound)
	require.NoError(t, m.StartGame(g.ID, ownerID))

	select {
	case <-g.Done():
	case <-time.After(30 * time.Second):
		t.Fatal("game did not finish")
	}
	assert.Equal(t, StateCompleted, g.State())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, m.Shutdown(ctx))
}

func TestManagerShutdownCancelsRunningGames(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, quartz.NewReal(), nil)
	cfg := fastConfig()
	cfg.Levels = cfg.Levels[:1] // slow game, will not end on its own
	g, err := m.Create(ownerID, cfg)
	require.NoError(t, err)
	for range 3 {
		_, err := g.AddBot(ownerID, "bot")
		require.NoError(t, err)
	}
	require.NoError(t, m.StartGame(g.ID, ownerID))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	assert.Equal(t, StateCancelled, g.State())
}

func TestManagerSweep(t *testing.T) {
	t.Parallel()

	mock := quartz.NewMock(t)
	m := newTestManager(t, mock, func(c *ManagerConfig) {
		c.Retention = time.Hour
	})

	old, err := m.Create(1, fastConfig())
	require.NoError(t, err)
	require.NoError(t, old.Cancel(1))

	mock.Advance(2 * time.Hour)

	fresh, err := m.Create(2, fastConfig())
	require.NoError(t, err)
	require.NoError(t, fresh.Cancel(2))

	live, err := m.Create(3, fastConfig())
	require.NoError(t, err)

	assert.Equal(t, 1, m.Sweep())
	_, err = m.Get(old.ID)
	assert.ErrorIs(t, err, ErrGameNotFound)
	_, err = m.Get(fresh.ID)
	assert.NoError(t, err)
	_, err = m.Get(live.ID)
	assert.NoError(t, err)
}

func TestManagerSweepLoop(t *testing.T) {
	t.Parallel()

	mock := quartz.NewMock(t)
	m := newTestManager(t, mock, func(c *ManagerConfig) {
		c.Retention = time.Minute
		c.SweepInterval = time.Hour
	})

	g, err := m.Create(1, fastConfig())
	require.NoError(t, err)
	require.NoError(t, g.Cancel(1))

	trap := mock.Trap().NewTicker("sweep")
	defer trap.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	trap.MustWait(ctx).MustRelease(ctx)

	mock.Advance(time.Hour).MustWait(ctx)

	// The sweep runs on the loop goroutine after the tick lands.
	assert.Eventually(t, func() bool {
		_, err := m.Get(g.ID)
		return err != nil
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
