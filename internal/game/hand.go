package game

import "errors"

var (
	// ErrOutOfTurn is returned when an action arrives from a player other
	// than the one to act.
	ErrOutOfTurn = errors.New("not this player's turn")
	// ErrIllegalAction is returned when an action type is not among the
	// player's legal options.
	ErrIllegalAction = errors.New("action not legal in current state")
	// ErrNoAction is returned when no betting decision is pending.
	ErrNoAction = errors.New("no action pending")
	// ErrTooFewPlayers is returned when a hand cannot be dealt.
	ErrTooFewPlayers = errors.New("need at least two players with chips")
)

// ActionRecord captures one applied action for hand history.
type ActionRecord struct {
	Round    Round
	PlayerID int64
	Action   Action
}

// PotAward describes how one pot was settled.
type PotAward struct {
	PotIndex int
	Chips    int
	Winners  []int64
	Share    int
	Refund   bool
}

// HandResult is the outcome of a resolved hand.
type HandResult struct {
	Awards   []PotAward
	Showdown bool
	Board    []Card
	Revealed map[int64][]Card
	Scores   map[int64]HandScore
}

// Hand runs a single hand of hold'em for the players dealt in. It owns the
// per-round bet ledger and the pot ledger; all chip movement between player
// stacks and pots happens here.
type Hand struct {
	players []*Player // clockwise seat order
	button  int       // index into players

	deck   *Deck
	round  Round
	board  []Card
	ledger *Ledger

	bets       map[int64]int // current round, total per player
	acted      map[int64]bool
	currentBet int
	active     int // index of player to act, -1 when none

	smallBlind int
	bigBlind   int
	ante       int

	history  []ActionRecord
	resolved bool
}

// NewHand deals a new hand. players must be in clockwise seat order and hold
// at least two members with chips; button indexes into players.
func NewHand(players []*Player, button int, small, big, ante int, deck *Deck) (*Hand, error) {
	withChips := 0
	for _, p := range players {
		if p.Chips() > 0 {
			withChips++
		}
	}
	if withChips < 2 {
		return nil, ErrTooFewPlayers
	}

	h := &Hand{
		players:    players,
		button:     button,
		deck:       deck,
		round:      RoundNone,
		ledger:     NewLedger(),
		bets:       make(map[int64]int),
		acted:      make(map[int64]bool),
		smallBlind: small,
		bigBlind:   big,
		ante:       ante,
	}
	h.deal()
	return h, nil
}

func (h *Hand) deal() {
	for _, p := range h.players {
		p.ResetForHand()
	}

	if h.ante > 0 {
		h.postAntes()
	}

	// Heads up the button posts the small blind and acts first preflop.
	sb := h.nextIndex(h.button)
	if h.liveSeats() == 2 {
		sb = h.button
	}
	bb := h.nextIndex(sb)
	h.postBlind(sb, h.smallBlind)
	h.postBlind(bb, h.bigBlind)
	h.currentBet = h.bigBlind

	// Two hole cards each, starting left of the button.
	for range 2 {
		for i := h.nextIndex(h.button); ; i = h.nextIndex(i) {
			p := h.players[i]
			if p.Chips() > 0 || p.AllIn {
				card, _ := h.deck.Deal()
				p.Cards = append(p.Cards, card)
			}
			if i == h.button {
				break
			}
		}
	}

	h.round = RoundPreFlop
	h.active = h.nextToAct(bb)
}

// postAntes collects the ante from every player before the blinds. Short
// stacks post what they have and are all in.
func (h *Hand) postAntes() {
	antes := make(map[int64]int)
	var allIn []int
	for _, p := range h.players {
		if p.Chips() == 0 {
			continue
		}
		paid := p.RemoveChips(h.ante)
		antes[p.ID] = paid
		if p.AllIn && paid < h.ante {
			allIn = append(allIn, paid)
		}
	}
	h.ledger.Collect(RoundNone, antes, allIn)
}

// postBlind puts up to amount into the player's round bet, clamped to stack.
func (h *Hand) postBlind(idx int, amount int) {
	p := h.players[idx]
	paid := p.RemoveChips(amount)
	h.bets[p.ID] += paid
}

// Round returns the current betting round.
func (h *Hand) Round() Round { return h.round }

// Board returns the community cards dealt so far.
func (h *Hand) Board() []Card { return h.board }

// Button returns the button index.
func (h *Hand) Button() int { return h.button }

// CurrentBet returns the highest round-total bet this round.
func (h *Hand) CurrentBet() int { return h.currentBet }

// PlayerBet returns the player's round-total bet this round.
func (h *Hand) PlayerBet(id int64) int { return h.bets[id] }

// PotTotal returns all chips committed to the hand, collected or pending.
func (h *Hand) PotTotal() int {
	sum := h.ledger.Total()
	for _, b := range h.bets {
		sum += b
	}
	return sum
}

// Pots returns the collected pots.
func (h *Hand) Pots() []*Pot { return h.ledger.Pots() }

// History returns the actions applied so far.
func (h *Hand) History() []ActionRecord { return h.history }

// Resolved reports whether the hand has been settled.
func (h *Hand) Resolved() bool { return h.resolved }

// Active returns the player to act, or nil when no decision is pending.
func (h *Hand) Active() *Player {
	if h.active < 0 || !h.bettingRound() {
		return nil
	}
	return h.players[h.active]
}

// LiveCount returns the number of players still contesting the hand.
func (h *Hand) LiveCount() int {
	n := 0
	for _, p := range h.players {
		if p.InHand() {
			n++
		}
	}
	return n
}

// Options derives the legal actions for the active player.
func (h *Hand) Options() ActionOptions {
	p := h.Active()
	if p == nil {
		return ActionOptions{}
	}
	toCall := h.currentBet - h.bets[p.ID]
	chips := p.Chips()
	return ActionOptions{
		CanFold:  true,
		CanCheck: toCall == 0,
		CanCall:  toCall > 0 && chips > 0,
		CanBet:   toCall == 0 && chips > 0,
		CanRaise: toCall > 0 && chips > toCall,
		ToCall:   toCall,
		MinBet:   h.bigBlind,
		MaxBet:   h.bets[p.ID] + chips,
		MinRaise: h.currentBet + h.bigBlind,
		MaxRaise: h.bets[p.ID] + chips,
	}
}

// Apply validates and applies the active player's action. Bet and raise
// amounts are clamped into their legal range; the applied action is returned.
func (h *Hand) Apply(playerID int64, a Action) (Action, error) {
	p := h.Active()
	if p == nil {
		return Action{}, ErrNoAction
	}
	if p.ID != playerID {
		return Action{}, ErrOutOfTurn
	}
	opts := h.Options()
	if !opts.Allows(a.Type) {
		return Action{}, ErrIllegalAction
	}
	a = opts.Clamp(a)

	switch a.Type {
	case ActionFold:
		p.Folded = true
	case ActionCheck:
		// no chips move
	case ActionCall:
		paid := p.RemoveChips(opts.ToCall)
		h.bets[p.ID] += paid
	case ActionBet, ActionRaise:
		paid := p.RemoveChips(a.Amount - h.bets[p.ID])
		h.bets[p.ID] += paid
		if h.bets[p.ID] > h.currentBet {
			h.currentBet = h.bets[p.ID]
		}
		a.Amount = h.bets[p.ID]
	}

	h.acted[p.ID] = true
	h.history = append(h.history, ActionRecord{Round: h.round, PlayerID: p.ID, Action: a})
	h.active = h.nextToAct(h.active)
	return a, nil
}

// RoundDone reports whether the current betting round is complete.
func (h *Hand) RoundDone() bool {
	if !h.bettingRound() {
		return true
	}
	live := 0
	canAct := 0
	for _, p := range h.players {
		if !p.InHand() {
			continue
		}
		live++
		if p.AllIn {
			continue
		}
		canAct++
		if h.bets[p.ID] != h.currentBet {
			return false
		}
	}
	if live <= 1 || canAct <= 1 {
		return true
	}
	for _, p := range h.players {
		if p.InHand() && !p.AllIn && !h.acted[p.ID] {
			return false
		}
	}
	return true
}

// Advance collects the round's bets into the pot ledger and moves to the
// next street, dealing community cards after a burn. When only one player
// remains the hand skips straight to showdown. Returns the cards dealt.
func (h *Hand) Advance() []Card {
	h.collectBets()

	if h.LiveCount() <= 1 {
		h.round = RoundShowdown
		return nil
	}

	var dealt []Card
	switch h.round {
	case RoundPreFlop:
		h.deck.Burn()
		dealt = h.deck.DealN(3)
		h.round = RoundFlop
	case RoundFlop:
		h.deck.Burn()
		dealt = h.deck.DealN(1)
		h.round = RoundTurn
	case RoundTurn:
		h.deck.Burn()
		dealt = h.deck.DealN(1)
		h.round = RoundRiver
	case RoundRiver:
		h.round = RoundShowdown
		return nil
	default:
		return nil
	}

	h.board = append(h.board, dealt...)
	h.active = h.nextToAct(h.button)
	return dealt
}

func (h *Hand) collectBets() {
	var allIn []int
	for _, p := range h.players {
		if p.AllIn && h.bets[p.ID] > 0 && h.bets[p.ID] < h.currentBet {
			allIn = append(allIn, h.bets[p.ID])
		}
	}
	h.ledger.Collect(h.round, h.bets, allIn)
	h.bets = make(map[int64]int)
	h.acted = make(map[int64]bool)
	h.currentBet = 0
}

// Resolve settles every pot and returns the hand result. Overbet pots are
// refunded to their sole contributor; split pots send the odd chip to the
// first winner left of the button.
func (h *Hand) Resolve() (*HandResult, error) {
	if h.round != RoundShowdown {
		return nil, ErrNoAction
	}

	res := &HandResult{
		Showdown: h.LiveCount() >= 2,
		Board:    h.board,
		Revealed: make(map[int64][]Card),
		Scores:   make(map[int64]HandScore),
	}

	if res.Showdown {
		for _, p := range h.players {
			if p.InHand() {
				res.Revealed[p.ID] = p.Cards
				res.Scores[p.ID] = BestHand(p.Cards, h.board)
			}
		}
	}

	for i, pot := range h.ledger.Pots() {
		award := PotAward{PotIndex: i, Chips: pot.Chips}

		if pot.Overbet() {
			id := pot.Eligible[0]
			h.playerByID(id).AddChips(pot.Chips)
			award.Winners = []int64{id}
			award.Share = pot.Chips
			award.Refund = true
			res.Awards = append(res.Awards, award)
			continue
		}

		winners := h.potWinners(pot, res.Scores)
		share := pot.Chips / len(winners)
		odd := pot.Chips % len(winners)
		for j, id := range winners {
			amount := share
			if j == 0 {
				amount += odd
			}
			h.playerByID(id).AddChips(amount)
		}
		award.Winners = winners
		award.Share = share
		res.Awards = append(res.Awards, award)
	}

	h.round = RoundDone
	h.resolved = true
	return res, nil
}

// potWinners returns the pot's winning player ids in seat order starting
// left of the button.
func (h *Hand) potWinners(pot *Pot, scores map[int64]HandScore) []int64 {
	var contenders []*Player
	for _, p := range h.seatOrder() {
		if p.InHand() && pot.eligible(p.ID) {
			contenders = append(contenders, p)
		}
	}
	if len(contenders) == 0 {
		// Every contributor folded. Hand the chips to the last live player.
		for _, p := range h.seatOrder() {
			if p.InHand() {
				return []int64{p.ID}
			}
		}
		return []int64{pot.Eligible[0]}
	}
	if len(contenders) == 1 {
		return []int64{contenders[0].ID}
	}

	best := HandScore(-1)
	for _, p := range contenders {
		if scores[p.ID] > best {
			best = scores[p.ID]
		}
	}
	var winners []int64
	for _, p := range contenders {
		if scores[p.ID] == best {
			winners = append(winners, p.ID)
		}
	}
	return winners
}

// seatOrder returns players clockwise starting left of the button.
func (h *Hand) seatOrder() []*Player {
	out := make([]*Player, 0, len(h.players))
	for i := h.nextIndex(h.button); ; i = h.nextIndex(i) {
		out = append(out, h.players[i])
		if i == h.button {
			break
		}
	}
	return out
}

func (h *Hand) bettingRound() bool {
	return h.round >= RoundPreFlop && h.round <= RoundRiver
}

func (h *Hand) nextIndex(i int) int {
	return (i + 1) % len(h.players)
}

// nextToAct finds the next player who can make a decision, scanning
// clockwise from the given index. Returns -1 when nobody can act.
func (h *Hand) nextToAct(from int) int {
	for i := h.nextIndex(from); i != from; i = h.nextIndex(i) {
		if h.players[i].CanAct() {
			return i
		}
	}
	return -1
}

// liveSeats counts players dealt into the hand or able to be.
func (h *Hand) liveSeats() int {
	n := 0
	for _, p := range h.players {
		if p.Chips() > 0 || p.AllIn || p.InHand() {
			n++
		}
	}
	return n
}

func (h *Hand) playerByID(id int64) *Player {
	for _, p := range h.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}
