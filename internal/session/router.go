package session

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/cardroom/tourneyd/internal/game"
)

// Prompt describes an outstanding decision request for a human player. The
// transport resends it when the player reconnects mid-decision.
type Prompt struct {
	PlayerID int64              `json:"player_id"`
	TableID  int                `json:"table_id"`
	Round    string             `json:"round"`
	Options  game.ActionOptions `json:"options"`
}

// ConnectionTracker reports whether a player currently has a live transport
// connection.
type ConnectionTracker interface {
	Connected(playerID int64) bool
}

type pendingDecision struct {
	prompt Prompt
	ch     chan game.Action
}

// Router resolves betting decisions for the engine. AI players answer
// synchronously through a Strategy; human players get a pending decision
// that the transport fills via Submit, bounded by the decision timeout.
type Router struct {
	log        zerolog.Logger
	clock      quartz.Clock
	bus        *Bus
	strategy   Strategy
	timeout    time.Duration
	thinkDelay time.Duration
	graceTurns int
	conns      ConnectionTracker

	mu       sync.Mutex
	pending  map[int64]*pendingDecision
	prompt   func(Prompt)
	timeouts map[int64]int
	missed   map[int64]int
}

// NewRouter builds a router for one game.
func NewRouter(logger zerolog.Logger, clock quartz.Clock, bus *Bus, strategy Strategy, cfg *game.TournamentConfig, conns ConnectionTracker) *Router {
	return &Router{
		log:        logger.With().Str("component", "router").Logger(),
		clock:      clock,
		bus:        bus,
		strategy:   strategy,
		timeout:    cfg.DecisionTimeout(),
		thinkDelay: cfg.AIThinkDelay(),
		graceTurns: cfg.GraceTurns,
		conns:      conns,
		pending:    make(map[int64]*pendingDecision),
		timeouts:   make(map[int64]int),
		missed:     make(map[int64]int),
	}
}

// SetPrompt installs the callback invoked when a human decision is needed.
func (r *Router) SetPrompt(fn func(Prompt)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompt = fn
}

// GetAction resolves the decision for the player to act. Implements
// game.ActionProvider; the returned action is always legal for opts.
func (r *Router) GetAction(ctx context.Context, t *game.Table, p *game.Player, opts game.ActionOptions) (game.Action, error) {
	if !p.Human {
		return r.aiAction(ctx, t, p, opts)
	}
	return r.humanAction(ctx, t, p, opts)
}

func (r *Router) aiAction(ctx context.Context, t *game.Table, p *game.Player, opts game.ActionOptions) (game.Action, error) {
	if r.thinkDelay > 0 {
		timer := r.clock.NewTimer(r.thinkDelay, "ai-think")
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return game.Action{}, ctx.Err()
		case <-timer.C:
		}
	}
	a := r.strategy.Decide(p, opts, t.Hand().PotTotal())
	if !opts.Allows(a.Type) {
		a = autoAction(opts)
	}
	return opts.Clamp(a), nil
}

func (r *Router) humanAction(ctx context.Context, t *game.Table, p *game.Player, opts game.ActionOptions) (game.Action, error) {
	if r.conns != nil && !r.conns.Connected(p.ID) {
		r.mu.Lock()
		r.missed[p.ID]++
		missed := r.missed[p.ID]
		if missed > r.graceTurns {
			r.timeouts[p.ID]++
		}
		r.mu.Unlock()
		if missed > r.graceTurns {
			// Past the grace turns there is no point holding the table.
			a := autoAction(opts)
			r.publishTimeout(t.ID, p.ID, a)
			return a, nil
		}
	} else {
		r.mu.Lock()
		r.missed[p.ID] = 0
		r.mu.Unlock()
	}

	pd := &pendingDecision{
		prompt: Prompt{
			PlayerID: p.ID,
			TableID:  t.ID,
			Round:    t.Hand().Round().String(),
			Options:  opts,
		},
		ch: make(chan game.Action, 1),
	}

	r.mu.Lock()
	r.pending[p.ID] = pd
	promptFn := r.prompt
	r.mu.Unlock()

	if promptFn != nil {
		promptFn(pd.prompt)
	}

	timer := r.clock.NewTimer(r.timeout, "decision")
	defer timer.Stop()

	select {
	case <-ctx.Done():
		r.dropPending(p.ID, pd)
		return game.Action{}, ctx.Err()

	case a := <-pd.ch:
		return a, nil

	case <-timer.C:
		r.mu.Lock()
		if r.pending[p.ID] != pd {
			// A submission won the race with the timer.
			r.mu.Unlock()
			return <-pd.ch, nil
		}
		delete(r.pending, p.ID)
		r.timeouts[p.ID]++
		r.mu.Unlock()

		a := autoAction(opts)
		r.publishTimeout(t.ID, p.ID, a)
		r.log.Info().Int64("player", p.ID).Str("resolved", a.Type.String()).
			Msg("decision timed out")
		return a, nil
	}
}

// Submit resolves the player's pending decision with a client-supplied
// action. Illegal action types are coerced to fold; bet and raise amounts
// are clamped into range. A submission with nothing pending, including one
// arriving after the timeout already resolved the decision, returns
// ErrNoPendingAction.
func (r *Router) Submit(playerID int64, a game.Action) (game.Action, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pd, ok := r.pending[playerID]
	if !ok {
		return game.Action{}, ErrNoPendingAction
	}

	if !pd.prompt.Options.Allows(a.Type) {
		a = game.Action{Type: game.ActionFold}
	} else {
		a = pd.prompt.Options.Clamp(a)
	}

	delete(r.pending, playerID)
	r.timeouts[playerID] = 0
	pd.ch <- a
	return a, nil
}

// PendingPrompt returns the outstanding decision request for the player, if
// any.
func (r *Router) PendingPrompt(playerID int64) (Prompt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pd, ok := r.pending[playerID]
	if !ok {
		return Prompt{}, false
	}
	return pd.prompt, true
}

// ConsecutiveTimeouts returns how many decisions in a row the clock has
// resolved for the player.
func (r *Router) ConsecutiveTimeouts(playerID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timeouts[playerID]
}

func (r *Router) dropPending(playerID int64, pd *pendingDecision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending[playerID] == pd {
		delete(r.pending, playerID)
	}
}

func (r *Router) publishTimeout(tableID int, playerID int64, a game.Action) {
	r.mu.Lock()
	n := r.timeouts[playerID]
	r.mu.Unlock()
	r.bus.Publish(ActionTimeout{
		stamp:       stampNow(r.clock),
		TableID:     tableID,
		PlayerID:    playerID,
		Resolved:    a.Type.String(),
		Consecutive: n,
	})
}

// autoAction is the clock's decision: check when free, otherwise fold.
func autoAction(opts game.ActionOptions) game.Action {
	if opts.CanCheck {
		return game.Action{Type: game.ActionCheck}
	}
	return game.Action{Type: game.ActionFold}
}
