package game

// Player is a tournament participant. Chip mutations go through methods so
// the hand ledger stays the single source of bet accounting.
type Player struct {
	ID    int64
	Name  string
	Human bool

	chips int
	seat  int

	// Per-hand state, reset when a new hand is dealt.
	Cards  []Card
	Folded bool
	AllIn  bool

	SittingOut     bool
	Rebuys         int
	Addons         int
	FinishPosition int
}

// NewPlayer creates a player with a starting stack.
func NewPlayer(id int64, name string, human bool, chips int) *Player {
	return &Player{ID: id, Name: name, Human: human, chips: chips}
}

// Chips returns the player's current stack.
func (p *Player) Chips() int { return p.chips }

// Seat returns the player's seat at their table.
func (p *Player) Seat() int { return p.seat }

// SetSeat records the player's table seat.
func (p *Player) SetSeat(seat int) { p.seat = seat }

// AddChips credits chips to the stack (pot award, rebuy, addon).
func (p *Player) AddChips(n int) {
	p.chips += n
}

// RemoveChips debits up to n chips and returns the amount actually taken.
// Taking the whole stack marks the player all in.
func (p *Player) RemoveChips(n int) int {
	if n > p.chips {
		n = p.chips
	}
	p.chips -= n
	if p.chips == 0 {
		p.AllIn = true
	}
	return n
}

// ResetForHand clears per-hand state before a new deal.
func (p *Player) ResetForHand() {
	p.Cards = nil
	p.Folded = false
	p.AllIn = false
}

// InHand reports whether the player was dealt in and has not folded.
func (p *Player) InHand() bool {
	return len(p.Cards) > 0 && !p.Folded
}

// CanAct reports whether the player can still make betting decisions.
func (p *Player) CanAct() bool {
	return p.InHand() && !p.AllIn
}

// Eliminated reports whether the player has busted out of the tournament.
func (p *Player) Eliminated() bool {
	return p.FinishPosition > 0
}
