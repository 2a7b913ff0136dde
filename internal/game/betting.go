package game

// Round identifies a stage within a hand.
type Round int

const (
	RoundNone Round = iota
	RoundPreFlop
	RoundFlop
	RoundTurn
	RoundRiver
	RoundShowdown
	RoundDone
)

var roundNames = [...]string{"none", "preflop", "flop", "turn", "river", "showdown", "done"}

// String returns the round name.
func (r Round) String() string {
	if r < RoundNone || r > RoundDone {
		return "unknown"
	}
	return roundNames[r]
}

// ActionType identifies a betting decision.
type ActionType int

const (
	ActionFold ActionType = iota
	ActionCheck
	ActionCall
	ActionBet
	ActionRaise
)

var actionNames = [...]string{"fold", "check", "call", "bet", "raise"}

// String returns the action name.
func (a ActionType) String() string {
	if a < ActionFold || a > ActionRaise {
		return "unknown"
	}
	return actionNames[a]
}

// Action is a player's betting decision. Amount is the player's total bet for
// the round after the action, meaningful only for Bet and Raise.
type Action struct {
	Type   ActionType
	Amount int
}

// ActionOptions describes the legal decisions for the player to act. Bet and
// raise bounds are round-total amounts.
type ActionOptions struct {
	CanFold  bool
	CanCheck bool
	CanCall  bool
	CanBet   bool
	CanRaise bool

	ToCall   int
	MinBet   int
	MaxBet   int
	MinRaise int
	MaxRaise int
}

// Allows reports whether the given action type is legal under the options.
func (o ActionOptions) Allows(t ActionType) bool {
	switch t {
	case ActionFold:
		return o.CanFold
	case ActionCheck:
		return o.CanCheck
	case ActionCall:
		return o.CanCall
	case ActionBet:
		return o.CanBet
	case ActionRaise:
		return o.CanRaise
	default:
		return false
	}
}

// Clamp bounds a bet or raise amount into the legal range for its type and
// returns other actions unchanged.
func (o ActionOptions) Clamp(a Action) Action {
	switch a.Type {
	case ActionBet:
		if a.Amount < o.MinBet {
			a.Amount = o.MinBet
		}
		if a.Amount > o.MaxBet {
			a.Amount = o.MaxBet
		}
	case ActionRaise:
		if a.Amount < o.MinRaise {
			a.Amount = o.MinRaise
		}
		if a.Amount > o.MaxRaise {
			a.Amount = o.MaxRaise
		}
	default:
		a.Amount = 0
	}
	return a
}
