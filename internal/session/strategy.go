package session

import (
	rand "math/rand/v2"

	"github.com/cardroom/tourneyd/internal/game"
)

// Strategy decides for AI players. Implementations must return an action
// legal under the given options.
type Strategy interface {
	Decide(p *game.Player, opts game.ActionOptions, potTotal int) game.Action
}

// BasicStrategy is the stock AI: it checks when free, calls bets priced
// against its stack, and mixes in occasional aggression. Not a strong
// player, just a live opponent.
type BasicStrategy struct {
	rng *rand.Rand
}

// NewBasicStrategy creates the stock AI with a seeded rng.
func NewBasicStrategy(rng *rand.Rand) *BasicStrategy {
	return &BasicStrategy{rng: rng}
}

// Decide picks an action for the player.
func (s *BasicStrategy) Decide(p *game.Player, opts game.ActionOptions, potTotal int) game.Action {
	if opts.ToCall == 0 {
		if opts.CanBet && s.rng.IntN(5) == 0 {
			return game.Action{Type: game.ActionBet, Amount: opts.MinBet}
		}
		return game.Action{Type: game.ActionCheck}
	}

	// Price the call against stack and pot.
	affordable := opts.ToCall <= p.Chips()/4 || opts.ToCall <= 2*opts.MinBet || opts.ToCall <= potTotal/2
	if opts.CanRaise && affordable && s.rng.IntN(8) == 0 {
		return game.Action{Type: game.ActionRaise, Amount: opts.MinRaise}
	}
	if opts.CanCall && affordable {
		return game.Action{Type: game.ActionCall}
	}
	if opts.CanCall && s.rng.IntN(4) == 0 {
		return game.Action{Type: game.ActionCall}
	}
	return game.Action{Type: game.ActionFold}
}
