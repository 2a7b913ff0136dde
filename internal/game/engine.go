package game

import (
	"context"
	rand "math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/cardroom/tourneyd/internal/randutil"
)

// ActionProvider resolves the betting decision for the player to act. It
// blocks until a decision is available; implementations own timeout and
// disconnect handling and always return a legal action.
type ActionProvider interface {
	GetAction(ctx context.Context, t *Table, p *Player, opts ActionOptions) (Action, error)
}

// StepPhase tells the caller what a processing step produced, so it can
// publish the matching events.
type StepPhase int

const (
	PhaseNone StepPhase = iota
	PhaseWaiting
	PhaseLevelUp
	PhaseBreak
	PhaseHandStarted
	PhaseAction
	PhaseCommunity
	PhaseShowdown
	PhaseHandDone
)

// Step reports what one call to Process did to a table.
type Step struct {
	From, To     TableState
	Phase        StepPhase
	Dealt        []Card
	ActedBy      *Player
	Action       Action
	Result       *HandResult
	LevelChanged bool
}

// Engine advances tables through their state machine one transition at a
// time. It is driven by a single goroutine per game; none of its methods are
// safe for concurrent use on the same table.
type Engine struct {
	log     zerolog.Logger
	actions ActionProvider
	rng     *rand.Rand
}

// NewEngine creates an engine that seeds each hand's deck from the given
// seed, so a game is reproducible end to end.
func NewEngine(logger zerolog.Logger, actions ActionProvider, seed int64) *Engine {
	return &Engine{
		log:     logger.With().Str("component", "engine").Logger(),
		actions: actions,
		rng:     randutil.New(seed),
	}
}

// Process performs one state transition on the table. Betting steps block in
// the action provider until the active player decides or times out.
func (e *Engine) Process(ctx context.Context, t *Table, trn *Tournament) (Step, error) {
	step := Step{From: t.State(), To: t.State()}

	switch t.State() {
	case StateBegin:
		if len(t.PlayersWithChips()) < 2 {
			// Short a table; the director consolidates or ends the game.
			step.Phase = PhaseWaiting
			return step, nil
		}
		t.SetState(StateLevelCheck)

	case StateLevelCheck:
		if trn.Config().Advancement == AdvanceByTime && !trn.Level().Break && trn.LevelExpired() {
			trn.NextLevel()
			step.LevelChanged = true
			step.Phase = PhaseLevelUp
		}
		if trn.Level().Break {
			t.SetState(StateBreak)
			step.Phase = PhaseBreak
		} else {
			t.SetState(StateStartHand)
		}

	case StateBreak:
		// Parked until the director ends the break on the shared schedule.
		// Tables never advance the schedule out of a break themselves; with
		// more than one table that would advance it once per table.
		if trn.Level().Break {
			step.Phase = PhaseWaiting
		} else {
			t.SetState(StateStartHand)
		}

	case StateStartHand:
		lvl := trn.Level()
		deck := NewDeck(randutil.New(e.rng.Int64()))
		if err := t.StartHand(lvl.Small, lvl.Big, lvl.Ante, deck); err != nil {
			return step, err
		}
		t.SetState(StateBetting)
		step.Phase = PhaseHandStarted
		e.log.Debug().Int("table", t.ID).Int("hand", t.HandsPlayed()+1).
			Int("small", lvl.Small).Int("big", lvl.Big).Msg("hand dealt")

	case StateBetting:
		h := t.Hand()
		if h.RoundDone() || h.Active() == nil {
			t.SetState(StateCommunity)
			break
		}
		p := h.Active()
		opts := h.Options()
		action, err := e.actions.GetAction(ctx, t, p, opts)
		if err != nil {
			return step, err
		}
		applied, err := h.Apply(p.ID, action)
		if err != nil {
			// The provider returned something the hand rejects. Fold the
			// player rather than wedge the table.
			e.log.Warn().Int64("player", p.ID).Str("action", action.Type.String()).
				Err(err).Msg("rejected action, folding")
			applied, _ = h.Apply(p.ID, Action{Type: ActionFold})
		}
		step.Phase = PhaseAction
		step.ActedBy = p
		step.Action = applied

	case StateCommunity:
		h := t.Hand()
		dealt := h.Advance()
		if len(dealt) > 0 {
			step.Phase = PhaseCommunity
			step.Dealt = dealt
		}
		if h.Round() == RoundShowdown {
			t.SetState(StateShowdown)
		} else {
			t.SetState(StateBetting)
		}

	case StateShowdown:
		res, err := t.Hand().Resolve()
		if err != nil {
			return step, err
		}
		t.SetState(StateDone)
		step.Phase = PhaseShowdown
		step.Result = res

	case StateDone:
		t.FinishHand()
		step.LevelChanged = trn.HandFinished()
		t.SetState(StateBegin)
		step.Phase = PhaseHandDone

	case StateGameOver:
		// terminal
	}

	step.To = t.State()
	return step, nil
}
