package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cardroom/tourneyd/internal/game"
	"github.com/cardroom/tourneyd/internal/randutil"
)

// State is a game's lifecycle state.
type State string

const (
	StateCreated    State = "created"
	StateWaiting    State = "waiting_for_players"
	StateInProgress State = "in_progress"
	StatePaused     State = "paused"
	StateCompleted  State = "completed"
	StateCancelled  State = "cancelled"
	StateError      State = "error"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateError
}

// PlayerSession tracks one player's membership and connection.
type PlayerSession struct {
	PlayerID  int64
	Token     string
	Connected bool
	JoinedAt  time.Time
}

// Game is one hosted tournament: its players, lifecycle, event history and,
// once started, the running director. All lifecycle transitions are guarded
// check-and-set operations; owner-only operations verify the caller.
type Game struct {
	ID      string
	OwnerID int64

	log   zerolog.Logger
	clock quartz.Clock
	cfg   game.TournamentConfig

	elog *Log
	bus  *Bus

	mu          sync.Mutex
	state       State
	players     []*game.Player
	sessions    map[int64]*PlayerSession
	offers      map[int64]chan bool
	botSeq      int64
	createdAt   time.Time
	completedAt time.Time
	cancelRun   context.CancelFunc
	promptFn    func(Prompt)

	trn      *game.Tournament
	tables   []*game.Table
	router   *Router
	engine   *game.Engine
	director *Director

	snapMu    sync.RWMutex
	snapshots map[int]*snapshot

	done chan struct{}
}

// NewGame creates a game in the created state. The event bus exists from
// construction so no lifecycle event is ever missed.
func NewGame(id string, ownerID int64, cfg game.TournamentConfig, clock quartz.Clock, logger zerolog.Logger) *Game {
	elog := NewLog(id)
	g := &Game{
		ID:        id,
		OwnerID:   ownerID,
		log:       logger.With().Str("component", "game").Str("game", id).Logger(),
		clock:     clock,
		cfg:       cfg,
		elog:      elog,
		bus:       NewBus(elog, logger),
		state:     StateCreated,
		sessions:  make(map[int64]*PlayerSession),
		offers:    make(map[int64]chan bool),
		snapshots: make(map[int]*snapshot),
		createdAt: clock.Now(),
		done:      make(chan struct{}),
	}
	return g
}

// Open moves the game to waiting for players.
func (g *Game) Open() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.transition(StateWaiting, StateCreated)
}

// State returns the lifecycle state.
func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Bus returns the game's event bus.
func (g *Game) Bus() *Bus { return g.bus }

// Router returns the action router, nil before the game starts.
func (g *Game) Router() *Router {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.router
}

// SetPrompt installs the transport's action-prompt callback. Installing it
// before Start guarantees the first human decision is prompted; the router
// picks it up when the game starts.
func (g *Game) SetPrompt(fn func(Prompt)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.promptFn = fn
	if g.router != nil {
		g.router.SetPrompt(fn)
	}
}

// CreatedAt returns when the game was created.
func (g *Game) CreatedAt() time.Time { return g.createdAt }

// CompletedAt returns when the game reached a terminal state, zero if it
// has not.
func (g *Game) CompletedAt() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.completedAt
}

// Done is closed when the director goroutine has finished.
func (g *Game) Done() <-chan struct{} { return g.done }

// transition performs a guarded state change. Caller holds g.mu.
func (g *Game) transition(to State, from ...State) error {
	for _, f := range from {
		if g.state == f {
			prev := g.state
			g.state = to
			g.bus.Publish(GameStateChanged{stamp: stampNow(g.clock), From: string(prev), To: string(to)})
			if to.Terminal() {
				g.completedAt = g.clock.Now()
			}
			return nil
		}
	}
	return ErrInvalidTransition
}

// Join adds a human player while the game is accepting entries. Returns the
// player's session token.
func (g *Game) Join(playerID int64, name string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateCreated && g.state != StateWaiting {
		return "", ErrInvalidTransition
	}
	if len(g.players) >= g.cfg.MaxPlayers {
		return "", ErrGameFull
	}
	if g.playerLocked(playerID) != nil {
		return "", ErrAlreadyJoined
	}
	p := game.NewPlayer(playerID, name, true, g.cfg.StartingChips)
	g.players = append(g.players, p)
	g.sessions[playerID] = &PlayerSession{
		PlayerID:  playerID,
		Token:     uuid.NewString(),
		Connected: true,
		JoinedAt:  g.clock.Now(),
	}
	g.bus.Publish(PlayerAdded{stamp: stampNow(g.clock), PlayerID: playerID, Name: name, Human: true, Chips: p.Chips()})
	return g.sessions[playerID].Token, nil
}

// AddBot seats an AI player. Owner only.
func (g *Game) AddBot(callerID int64, name string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if callerID != g.OwnerID {
		return 0, ErrNotOwner
	}
	if g.state != StateCreated && g.state != StateWaiting {
		return 0, ErrInvalidTransition
	}
	if len(g.players) >= g.cfg.MaxPlayers {
		return 0, ErrGameFull
	}
	g.botSeq--
	id := g.botSeq
	p := game.NewPlayer(id, name, false, g.cfg.StartingChips)
	g.players = append(g.players, p)
	g.bus.Publish(PlayerAdded{stamp: stampNow(g.clock), PlayerID: id, Name: name, Human: false, Chips: p.Chips()})
	return id, nil
}

// Leave removes a player before the game starts.
func (g *Game) Leave(playerID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateCreated && g.state != StateWaiting {
		return ErrInvalidTransition
	}
	for i, p := range g.players {
		if p.ID == playerID {
			g.players = append(g.players[:i], g.players[i+1:]...)
			delete(g.sessions, playerID)
			g.bus.Publish(PlayerRemoved{stamp: stampNow(g.clock), PlayerID: playerID})
			return nil
		}
	}
	return ErrNotInGame
}

// Players returns the joined players in join order.
func (g *Game) Players() []*game.Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*game.Player, len(g.players))
	copy(out, g.players)
	return out
}

func (g *Game) playerLocked(id int64) *game.Player {
	for _, p := range g.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Start validates and builds the running game: tournament clock, tables with
// round-robin seating, router, engine and director. Owner only, from the
// waiting state. The director itself is launched by the caller via Run.
func (g *Game) Start(callerID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if callerID != g.OwnerID {
		return ErrNotOwner
	}
	if g.state != StateWaiting {
		return ErrInvalidTransition
	}
	if len(g.players) < g.cfg.MinPlayers || len(g.players) < 2 {
		return ErrNotEnoughPlayers
	}

	seed := g.cfg.Seed
	if seed == 0 {
		seed = randutil.Seed()
	}

	g.trn = game.NewTournament(&g.cfg, g.clock)
	g.tables = seatTables(g.players, g.cfg.SeatsPerTable)
	g.router = NewRouter(g.log, g.clock, g.bus, NewBasicStrategy(randutil.New(seed+1)), &g.cfg, g)
	if g.promptFn != nil {
		g.router.SetPrompt(g.promptFn)
	}
	g.engine = game.NewEngine(g.log, g.router, seed)
	g.director = NewDirector(g.log, g.clock, g.ID, g.trn, g.tables, g.engine, g.router, g.bus, g)
	g.director.SetStepHook(g.refreshSnapshot)

	return g.transition(StateInProgress, StateWaiting)
}

// seatTables splits players round-robin across the fewest tables that seat
// them all.
func seatTables(players []*game.Player, seatsPerTable int) []*game.Table {
	numTables := (len(players) + seatsPerTable - 1) / seatsPerTable
	tables := make([]*game.Table, numTables)
	for i := range tables {
		tables[i] = game.NewTable(i+1, seatsPerTable)
	}
	for i, p := range players {
		_ = tables[i%numTables].AddPlayer(p)
	}
	return tables
}

// Run executes the director until the game ends. Blocks; intended for the
// manager's worker pool.
func (g *Game) Run(ctx context.Context) error {
	g.mu.Lock()
	if g.director == nil {
		g.mu.Unlock()
		return ErrInvalidTransition
	}
	ctx, g.cancelRun = context.WithCancel(ctx)
	if g.state == StateCancelled {
		// Cancel won the race with the launch.
		g.cancelRun()
	}
	director := g.director
	g.mu.Unlock()

	err := director.Run(ctx)
	defer close(g.done)

	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case err == nil:
		_ = g.transition(StateCompleted, StateInProgress, StatePaused)
	case errors.Is(err, context.Canceled):
		// Cancel already moved the state; a shutdown cancel lands here.
		_ = g.transition(StateCancelled, StateInProgress, StatePaused)
	default:
		g.log.Error().Err(err).Msg("game failed")
		_ = g.transition(StateError, StateInProgress, StatePaused)
	}
	g.bus.Close()
	return err
}

// Pause stops play between decisions. Owner only.
func (g *Game) Pause(callerID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if callerID != g.OwnerID {
		return ErrNotOwner
	}
	if err := g.transition(StatePaused, StateInProgress); err != nil {
		return err
	}
	g.trn.Pause()
	return nil
}

// Resume restarts a paused game. Owner only.
func (g *Game) Resume(callerID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if callerID != g.OwnerID {
		return ErrNotOwner
	}
	if err := g.transition(StateInProgress, StatePaused); err != nil {
		return err
	}
	g.trn.Resume()
	return nil
}

// Cancel ends the game without a result. Owner only.
func (g *Game) Cancel(callerID int64) error {
	g.mu.Lock()
	if callerID != g.OwnerID {
		g.mu.Unlock()
		return ErrNotOwner
	}
	err := g.transition(StateCancelled, StateCreated, StateWaiting, StateInProgress, StatePaused)
	cancel := g.cancelRun
	g.mu.Unlock()
	if err != nil {
		return err
	}
	if cancel != nil {
		cancel()
	}
	return nil
}

// SubmitAction resolves the player's pending betting decision. A submission
// with no decision outstanding, such as one arriving after the timeout
// already resolved it, is dropped without error.
func (g *Game) SubmitAction(playerID int64, a game.Action) (game.Action, error) {
	router := g.Router()
	if router == nil {
		return game.Action{}, ErrNoPendingAction
	}
	applied, err := router.Submit(playerID, a)
	if errors.Is(err, ErrNoPendingAction) {
		return game.Action{}, nil
	}
	return applied, err
}

// RespondRebuy answers an outstanding rebuy offer.
func (g *Game) RespondRebuy(playerID int64, accept bool) error {
	return g.respondOffer(playerID, accept)
}

// RespondAddon answers an outstanding addon offer.
func (g *Game) RespondAddon(playerID int64, accept bool) error {
	return g.respondOffer(playerID, accept)
}

func (g *Game) respondOffer(playerID int64, accept bool) error {
	g.mu.Lock()
	ch, ok := g.offers[playerID]
	if ok {
		delete(g.offers, playerID)
	}
	g.mu.Unlock()
	if !ok {
		return ErrNoPendingOffer
	}
	ch <- accept
	return nil
}

// OfferRebuy blocks until the player answers or the offer times out.
// Implements OfferProvider for the director.
func (g *Game) OfferRebuy(ctx context.Context, p *game.Player) bool {
	return g.offer(ctx, p)
}

// OfferAddon blocks until the player answers or the offer times out.
func (g *Game) OfferAddon(ctx context.Context, p *game.Player) bool {
	return g.offer(ctx, p)
}

func (g *Game) offer(ctx context.Context, p *game.Player) bool {
	ch := make(chan bool, 1)
	g.mu.Lock()
	g.offers[p.ID] = ch
	g.mu.Unlock()

	timer := g.clock.NewTimer(g.cfg.DecisionTimeout(), "offer")
	defer timer.Stop()
	select {
	case accept := <-ch:
		return accept
	case <-timer.C:
	case <-ctx.Done():
	}
	g.mu.Lock()
	if g.offers[p.ID] == ch {
		delete(g.offers, p.ID)
	}
	g.mu.Unlock()
	// A response racing the timer still counts.
	select {
	case accept := <-ch:
		return accept
	default:
		return false
	}
}

// Connect marks the player online and returns events they missed since seq.
func (g *Game) Connect(playerID int64, sinceSeq uint64) ([]Stored, error) {
	g.mu.Lock()
	ps, ok := g.sessions[playerID]
	if !ok {
		g.mu.Unlock()
		return nil, ErrNotInGame
	}
	ps.Connected = true
	g.mu.Unlock()
	return g.elog.Since(sinceSeq), nil
}

// Disconnect marks the player offline. Their turns fold after the grace
// turns run out.
func (g *Game) Disconnect(playerID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if ps, ok := g.sessions[playerID]; ok {
		ps.Connected = false
	}
}

// Connected implements ConnectionTracker for the router.
func (g *Game) Connected(playerID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	ps, ok := g.sessions[playerID]
	return ok && ps.Connected
}

// EventsSince returns stored events with sequence numbers greater than n.
func (g *Game) EventsSince(n uint64) []Stored {
	return g.elog.Since(n)
}

// refreshSnapshot rebuilds the cached table view. Called on the director
// goroutine after each step.
func (g *Game) refreshSnapshot(t *game.Table) {
	snap := buildSnapshot(g.ID, string(g.State()), t, g.trn, g.elog.LastSeq())
	g.snapMu.Lock()
	g.snapshots[t.ID] = snap
	g.snapMu.Unlock()
}

// Projection returns the player's current view of their table, including
// their pending action options if a decision is outstanding.
func (g *Game) Projection(playerID int64) (Projection, error) {
	g.mu.Lock()
	p := g.playerLocked(playerID)
	tables := g.tables
	router := g.router
	g.mu.Unlock()
	if p == nil {
		return Projection{}, ErrNotInGame
	}

	var tableID int
	for _, t := range tables {
		if t.Player(playerID) != nil {
			tableID = t.ID
			break
		}
	}

	g.snapMu.RLock()
	snap := g.snapshots[tableID]
	g.snapMu.RUnlock()
	if snap == nil {
		return Projection{GameID: g.ID, State: string(g.State())}, nil
	}

	proj := snap.viewFor(playerID)
	proj.State = string(g.State())
	if router != nil {
		if prompt, ok := router.PendingPrompt(playerID); ok {
			opts := prompt.Options
			proj.Options = &opts
		}
	}
	return proj, nil
}
