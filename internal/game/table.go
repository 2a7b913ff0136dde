package game

import "errors"

var (
	// ErrTableFull is returned when no seat is open.
	ErrTableFull = errors.New("table is full")
	// ErrNotSeated is returned when a player is not at the table.
	ErrNotSeated = errors.New("player not seated at table")
)

// TableState drives per-table processing by the engine.
type TableState int

const (
	StateBegin TableState = iota
	StateLevelCheck
	StateBreak
	StateStartHand
	StateBetting
	StateCommunity
	StateShowdown
	StateDone
	StateGameOver
)

var tableStateNames = [...]string{
	"begin", "level_check", "break", "start_hand",
	"betting", "community", "showdown", "done", "game_over",
}

// String returns the state name.
func (s TableState) String() string {
	if s < StateBegin || s > StateGameOver {
		return "unknown"
	}
	return tableStateNames[s]
}

// Table seats players and runs one hand at a time.
type Table struct {
	ID int

	seats  []*Player // nil means empty seat
	button int       // seat index, -1 before the first hand
	state  TableState

	hand        *Hand
	handsPlayed int
}

// NewTable creates a table with the given number of seats.
func NewTable(id, numSeats int) *Table {
	return &Table{
		ID:     id,
		seats:  make([]*Player, numSeats),
		button: -1,
		state:  StateBegin,
	}
}

// State returns the table's processing state.
func (t *Table) State() TableState { return t.state }

// SetState moves the table to a new processing state.
func (t *Table) SetState(s TableState) { t.state = s }

// Hand returns the hand in progress, or nil.
func (t *Table) Hand() *Hand { return t.hand }

// HandsPlayed returns the number of hands completed at this table.
func (t *Table) HandsPlayed() int { return t.handsPlayed }

// Button returns the button seat index.
func (t *Table) Button() int { return t.button }

// AddPlayer seats a player at the first open seat.
func (t *Table) AddPlayer(p *Player) error {
	for i, s := range t.seats {
		if s == nil {
			t.seats[i] = p
			p.SetSeat(i)
			return nil
		}
	}
	return ErrTableFull
}

// RemovePlayer vacates the player's seat.
func (t *Table) RemovePlayer(id int64) (*Player, error) {
	for i, s := range t.seats {
		if s != nil && s.ID == id {
			t.seats[i] = nil
			return s, nil
		}
	}
	return nil, ErrNotSeated
}

// Player returns the seated player with the given id.
func (t *Table) Player(id int64) *Player {
	for _, s := range t.seats {
		if s != nil && s.ID == id {
			return s
		}
	}
	return nil
}

// Players returns seated players in seat order.
func (t *Table) Players() []*Player {
	out := make([]*Player, 0, len(t.seats))
	for _, s := range t.seats {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// PlayersWithChips returns seated players still holding chips, in seat order.
func (t *Table) PlayersWithChips() []*Player {
	out := make([]*Player, 0, len(t.seats))
	for _, s := range t.seats {
		if s != nil && s.Chips() > 0 {
			out = append(out, s)
		}
	}
	return out
}

// OpenSeats returns the number of empty seats.
func (t *Table) OpenSeats() int {
	n := 0
	for _, s := range t.seats {
		if s == nil {
			n++
		}
	}
	return n
}

// HasActivePot reports whether chips sit in an unresolved hand.
func (t *Table) HasActivePot() bool {
	return t.hand != nil && !t.hand.Resolved() && t.hand.PotTotal() > 0
}

// DrawButton places the button by high card among players with chips. Ties
// go to the earlier seat.
func (t *Table) DrawButton(deck *Deck) {
	best := Rank(0)
	for i, s := range t.seats {
		if s == nil || s.Chips() == 0 {
			continue
		}
		card, _ := deck.Deal()
		if card.Rank > best {
			best = card.Rank
			t.button = i
		}
	}
}

// AdvanceButton moves the button to the next seat holding chips.
func (t *Table) AdvanceButton() {
	if t.button < 0 {
		return
	}
	n := len(t.seats)
	for i := 1; i <= n; i++ {
		seat := (t.button + i) % n
		if s := t.seats[seat]; s != nil && s.Chips() > 0 {
			t.button = seat
			return
		}
	}
}

// StartHand advances the button and deals a new hand at the level's stakes.
func (t *Table) StartHand(small, big, ante int, deck *Deck) error {
	if t.button < 0 {
		t.DrawButton(deck)
	} else {
		t.AdvanceButton()
	}

	players := t.PlayersWithChips()
	buttonIdx := 0
	for i, p := range players {
		if p.Seat() == t.button {
			buttonIdx = i
			break
		}
	}

	hand, err := NewHand(players, buttonIdx, small, big, ante, deck)
	if err != nil {
		return err
	}
	t.hand = hand
	return nil
}

// FinishHand clears the completed hand and bumps the table's hand count.
func (t *Table) FinishHand() {
	if t.hand != nil && t.hand.Resolved() {
		t.hand = nil
		t.handsPlayed++
	}
}
