package session

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/cardroom/tourneyd/internal/game"
)

const (
	pauseTick = 250 * time.Millisecond
	idleTick  = 100 * time.Millisecond
)

// OfferProvider extends rebuy and addon offers to players and blocks until
// they answer or the offer times out.
type OfferProvider interface {
	OfferRebuy(ctx context.Context, p *game.Player) bool
	OfferAddon(ctx context.Context, p *game.Player) bool
}

// Director runs one game to completion on its own goroutine. It drives every
// table through the engine, publishes the resulting events, handles
// eliminations, rebuys, breaks and table consolidation, and declares the
// winner. A director failure is contained to its game.
type Director struct {
	log    zerolog.Logger
	clock  quartz.Clock
	gameID string

	cfg    *game.TournamentConfig
	trn    *game.Tournament
	tables []*game.Table
	engine *game.Engine
	router *Router
	bus    *Bus
	offers OfferProvider

	eliminated []*game.Player
	onStep     func(*game.Table) // projection refresh hook
}

// NewDirector wires a director for one game.
func NewDirector(logger zerolog.Logger, clock quartz.Clock, gameID string, trn *game.Tournament, tables []*game.Table, engine *game.Engine, router *Router, bus *Bus, offers OfferProvider) *Director {
	return &Director{
		log:    logger.With().Str("component", "director").Str("game", gameID).Logger(),
		clock:  clock,
		gameID: gameID,
		cfg:    trn.Config(),
		trn:    trn,
		tables: tables,
		engine: engine,
		router: router,
		bus:    bus,
		offers: offers,
	}
}

// SetStepHook installs a callback invoked after each table step, used to
// refresh cached projections on the loop goroutine.
func (d *Director) SetStepHook(fn func(*game.Table)) {
	d.onStep = fn
}

// Run drives the game until a winner emerges, the context is cancelled, or a
// fatal error occurs. Panics are recovered and surfaced as a GameError
// event plus a returned error.
func (d *Director) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("director panic: %v", r)
			d.log.Error().Interface("panic", r).Msg("director panicked")
			d.bus.Publish(GameError{stamp: stampNow(d.clock), Message: err.Error()})
		}
	}()

	d.log.Info().Int("tables", len(d.tables)).Msg("game starting")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.trn.Paused() {
			if err := d.sleep(ctx, pauseTick); err != nil {
				return err
			}
			continue
		}

		waiting := true
		for _, t := range d.tables {
			if t.State() == game.StateGameOver {
				continue
			}
			step, err := d.processTable(ctx, t)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				d.bus.Publish(GameError{stamp: stampNow(d.clock), Message: err.Error()})
				return err
			}
			if step.Phase != game.PhaseWaiting {
				waiting = false
			}
		}

		d.consolidate()

		if d.breakDue() {
			d.runBreak(ctx)
			if d.trn.NextLevel() {
				d.publishLevel()
			}
			waiting = false
		}

		if d.gameOver() {
			d.finish()
			return nil
		}
		if waiting {
			if err := d.sleep(ctx, idleTick); err != nil {
				return err
			}
		}
	}
}

func (d *Director) processTable(ctx context.Context, t *game.Table) (game.Step, error) {
	step, err := d.engine.Process(ctx, t, d.trn)
	if err != nil {
		return step, err
	}

	switch step.Phase {
	case game.PhaseLevelUp:
		d.publishLevel()
	case game.PhaseBreak:
		// Schedule moved onto the break level as the table parked.
		if step.LevelChanged {
			d.publishLevel()
		}
	case game.PhaseHandStarted:
		d.publishHandStarted(t)
	case game.PhaseAction:
		d.publishAction(t, step)
	case game.PhaseCommunity:
		d.bus.Publish(CommunityCardsDealt{
			stamp:   stampNow(d.clock),
			TableID: t.ID,
			Round:   t.Hand().Round().String(),
			Cards:   game.Notations(step.Dealt),
			Board:   game.Notations(t.Hand().Board()),
		})
	case game.PhaseShowdown:
		d.publishShowdown(t, step.Result)
	case game.PhaseHandDone:
		d.bus.Publish(HandCompleted{
			stamp:   stampNow(d.clock),
			TableID: t.ID,
			HandNum: d.trn.TotalHands(),
		})
		if step.LevelChanged {
			d.publishLevel()
		}
		d.settleBustouts(ctx, t)
	}

	if d.onStep != nil {
		d.onStep(t)
	}
	return step, nil
}

func (d *Director) publishLevel() {
	lvl := d.trn.Level()
	d.bus.Publish(LevelChanged{
		stamp:      stampNow(d.clock),
		Level:      d.trn.LevelIndex(),
		SmallBlind: lvl.Small,
		BigBlind:   lvl.Big,
		Ante:       lvl.Ante,
	})
}

func (d *Director) publishHandStarted(t *game.Table) {
	lvl := d.trn.Level()
	seats := make([]HandSeat, 0, len(t.Players()))
	for _, p := range t.PlayersWithChips() {
		seats = append(seats, HandSeat{PlayerID: p.ID, Name: p.Name, Seat: p.Seat(), Chips: p.Chips()})
	}
	// Short stacks all in on the blinds still belong in the seat list.
	for _, p := range t.Players() {
		if p.Chips() == 0 && p.InHand() {
			seats = append(seats, HandSeat{PlayerID: p.ID, Name: p.Name, Seat: p.Seat(), Chips: 0})
		}
	}
	d.bus.Publish(ButtonMoved{stamp: stampNow(d.clock), TableID: t.ID, Seat: t.Button()})
	d.bus.Publish(HandStarted{
		stamp:      stampNow(d.clock),
		TableID:    t.ID,
		HandNum:    d.trn.TotalHands() + 1,
		Level:      d.trn.LevelIndex(),
		ButtonSeat: t.Button(),
		SmallBlind: lvl.Small,
		BigBlind:   lvl.Big,
		Ante:       lvl.Ante,
		Seats:      seats,
	})
}

func (d *Director) publishAction(t *game.Table, step game.Step) {
	d.bus.Publish(PlayerActed{
		stamp:    stampNow(d.clock),
		TableID:  t.ID,
		PlayerID: step.ActedBy.ID,
		Round:    t.Hand().Round().String(),
		Action:   step.Action.Type.String(),
		Amount:   step.Action.Amount,
		PotTotal: t.Hand().PotTotal(),
	})
}

func (d *Director) publishShowdown(t *game.Table, res *game.HandResult) {
	if res.Showdown {
		revealed := make(map[int64][]string, len(res.Revealed))
		for id, cards := range res.Revealed {
			revealed[id] = game.Notations(cards)
		}
		d.bus.Publish(ShowdownStarted{
			stamp:    stampNow(d.clock),
			TableID:  t.ID,
			Revealed: revealed,
		})
	}
	for _, award := range res.Awards {
		d.bus.Publish(PotAwarded{
			stamp:    stampNow(d.clock),
			TableID:  t.ID,
			PotIndex: award.PotIndex,
			Chips:    award.Chips,
			Winners:  award.Winners,
			Share:    award.Share,
			Refund:   award.Refund,
		})
	}
}

// breakDue reports whether the schedule sits on a break level and every
// active table has parked for it. A table too short to deal a hand counts as
// parked; it is waiting on consolidation, not on a player.
func (d *Director) breakDue() bool {
	if !d.trn.Level().Break {
		return false
	}
	act := d.activeTables()
	if len(act) == 0 {
		return false
	}
	for _, t := range act {
		switch t.State() {
		case game.StateBreak:
		case game.StateBegin:
			if len(t.PlayersWithChips()) > 1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// runBreak holds play for the break level's duration and extends addon
// offers to everyone still in. Runs once per break for the whole game, not
// per table.
func (d *Director) runBreak(ctx context.Context) {
	lvl := d.trn.Level()
	d.bus.Publish(BreakStarted{stamp: stampNow(d.clock), Level: d.trn.LevelIndex(), Minutes: lvl.Minutes})

	if d.cfg.Addon.Enabled && d.offers != nil {
		for _, p := range d.allPlayersWithChips() {
			if !d.trn.AddonAvailable(p) || !p.Human {
				continue
			}
			d.bus.Publish(AddonOffered{stamp: stampNow(d.clock), PlayerID: p.ID, Chips: d.cfg.Addon.Chips})
			if d.offers.OfferAddon(ctx, p) {
				p.AddChips(d.cfg.Addon.Chips)
				p.Addons++
				d.bus.Publish(PlayerAddon{stamp: stampNow(d.clock), PlayerID: p.ID, Chips: d.cfg.Addon.Chips})
			}
		}
	}

	if lvl.Minutes > 0 {
		_ = d.sleep(ctx, time.Duration(lvl.Minutes)*time.Minute)
	}
	d.bus.Publish(BreakEnded{stamp: stampNow(d.clock), Level: d.trn.LevelIndex()})
}

// settleBustouts handles players left without chips after a hand: a rebuy
// offer while the rebuy window is open, elimination otherwise. Finish
// positions count down from the field; two players busting the same hand
// finish in stack-independent seat order.
func (d *Director) settleBustouts(ctx context.Context, t *game.Table) {
	var busted []*game.Player
	for _, p := range t.Players() {
		if p.Chips() == 0 && !p.Eliminated() {
			busted = append(busted, p)
		}
	}
	if len(busted) == 0 {
		return
	}

	var out []*game.Player
	for _, p := range busted {
		if d.trn.RebuyActive(p) && p.Human && d.offers != nil {
			d.bus.Publish(RebuyOffered{stamp: stampNow(d.clock), PlayerID: p.ID, Chips: d.cfg.Rebuy.Chips})
			if d.offers.OfferRebuy(ctx, p) {
				p.AddChips(d.cfg.Rebuy.Chips)
				p.Rebuys++
				d.bus.Publish(PlayerRebuy{stamp: stampNow(d.clock), PlayerID: p.ID, Chips: d.cfg.Rebuy.Chips, Count: p.Rebuys})
				continue
			}
		}
		out = append(out, p)
	}

	survivors := len(d.allPlayersWithChips())
	for i, p := range out {
		p.FinishPosition = survivors + len(out) - i
		// Vacate the seat so the table can take consolidated players.
		_, _ = t.RemovePlayer(p.ID)
		d.eliminated = append(d.eliminated, p)
		d.bus.Publish(PlayerEliminated{stamp: stampNow(d.clock), PlayerID: p.ID, Position: p.FinishPosition})
		d.log.Info().Int64("player", p.ID).Int("position", p.FinishPosition).Msg("player eliminated")
	}
}

// consolidate folds a table down to the busiest table once it cannot seat a
// hand on its own. Only idle tables move; a table mid-hand is left alone.
func (d *Director) consolidate() {
	if len(d.activeTables()) < 2 {
		return
	}
	for _, t := range d.tables {
		if t.State() != game.StateBegin || t.HasActivePot() {
			continue
		}
		holders := t.PlayersWithChips()
		if len(holders) > 1 {
			continue
		}
		target := d.consolidationTarget(t, len(holders))
		if target == nil {
			continue
		}
		moved := make([]int64, 0, len(holders))
		for _, p := range holders {
			if _, err := t.RemovePlayer(p.ID); err != nil {
				continue
			}
			if err := target.AddPlayer(p); err != nil {
				// No room after all; put the player back.
				_ = t.AddPlayer(p)
				continue
			}
			moved = append(moved, p.ID)
			d.bus.Publish(ChipsTransferred{
				stamp:     stampNow(d.clock),
				PlayerID:  p.ID,
				FromTable: t.ID,
				ToTable:   target.ID,
				Chips:     p.Chips(),
			})
		}
		t.SetState(game.StateGameOver)
		if len(moved) > 0 {
			d.bus.Publish(TableConsolidated{
				stamp:     stampNow(d.clock),
				FromTable: t.ID,
				ToTable:   target.ID,
				Moved:     moved,
			})
			d.log.Info().Int("from", t.ID).Int("to", target.ID).Ints64("moved", moved).Msg("table consolidated")
		}
	}
}

// consolidationTarget picks the fullest other table that can seat the movers.
func (d *Director) consolidationTarget(from *game.Table, movers int) *game.Table {
	var target *game.Table
	for _, t := range d.activeTables() {
		if t == from || t.OpenSeats() < movers {
			continue
		}
		if target == nil || len(t.PlayersWithChips()) > len(target.PlayersWithChips()) {
			target = t
		}
	}
	return target
}

func (d *Director) activeTables() []*game.Table {
	out := make([]*game.Table, 0, len(d.tables))
	for _, t := range d.tables {
		if t.State() != game.StateGameOver {
			out = append(out, t)
		}
	}
	return out
}

// allPlayers returns everyone still seated plus everyone eliminated.
func (d *Director) allPlayers() []*game.Player {
	var out []*game.Player
	for _, t := range d.tables {
		out = append(out, t.Players()...)
	}
	return append(out, d.eliminated...)
}

func (d *Director) allPlayersWithChips() []*game.Player {
	var out []*game.Player
	for _, t := range d.tables {
		out = append(out, t.PlayersWithChips()...)
	}
	return out
}

// gameOver reports whether at most one chip holder remains and no table has
// chips in an open pot.
func (d *Director) gameOver() bool {
	for _, t := range d.tables {
		if t.HasActivePot() {
			return false
		}
	}
	return len(d.allPlayersWithChips()) <= 1
}

// finish declares the winner and publishes final standings.
func (d *Director) finish() {
	var winner *game.Player
	for _, p := range d.allPlayersWithChips() {
		if winner == nil || p.Chips() > winner.Chips() {
			winner = p
		}
	}
	if winner == nil {
		// Nobody holds chips; take the best finisher.
		for _, p := range d.allPlayers() {
			if winner == nil || p.FinishPosition < winner.FinishPosition {
				winner = p
			}
		}
	}

	var standings []Standing
	if winner != nil {
		winner.FinishPosition = 1
		for _, p := range d.allPlayers() {
			standings = append(standings, Standing{PlayerID: p.ID, Name: p.Name, Position: p.FinishPosition})
		}
	}
	ev := TournamentCompleted{stamp: stampNow(d.clock), Standings: standings}
	if winner != nil {
		ev.WinnerID = winner.ID
		d.log.Info().Int64("winner", winner.ID).Int("hands", d.trn.TotalHands()).Msg("game complete")
	}
	d.bus.Publish(ev)
	for _, t := range d.tables {
		t.SetState(game.StateGameOver)
	}
}

func (d *Director) sleep(ctx context.Context, dur time.Duration) error {
	timer := d.clock.NewTimer(dur, "director-sleep")
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
