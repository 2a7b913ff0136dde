package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/tourneyd/internal/randutil"
)

func testDeck(seed int64) *Deck {
	return NewDeck(randutil.New(seed))
}

func newTestHand(t *testing.T, stacks []int, button, small, big, ante int) (*Hand, []*Player) {
	t.Helper()
	players := make([]*Player, len(stacks))
	for i, chips := range stacks {
		players[i] = NewPlayer(int64(i+1), "", false, chips)
		players[i].SetSeat(i)
	}
	h, err := NewHand(players, button, small, big, ante, testDeck(42))
	require.NoError(t, err)
	return h, players
}

// rigShowdown replaces the dealt cards with a known layout so resolution is
// deterministic.
func rigShowdown(h *Hand, board []Card, holes map[int64][]Card) {
	h.board = board
	for _, p := range h.players {
		if cards, ok := holes[p.ID]; ok && p.InHand() {
			p.Cards = cards
		}
	}
}

func mustApply(t *testing.T, h *Hand, playerID int64, a Action) Action {
	t.Helper()
	applied, err := h.Apply(playerID, a)
	require.NoError(t, err)
	return applied
}

func TestNewHandRequiresTwoStacks(t *testing.T) {
	t.Parallel()

	players := []*Player{NewPlayer(1, "", false, 100), NewPlayer(2, "", false, 0)}
	_, err := NewHand(players, 0, 10, 20, 0, testDeck(1))
	assert.ErrorIs(t, err, ErrTooFewPlayers)
}

func TestHeadsUpButtonPostsSmallAndActsFirst(t *testing.T) {
	t.Parallel()

	h, players := newTestHand(t, []int{100, 100}, 0, 10, 20, 0)

	// Button posted the small blind, the other seat the big blind.
	assert.Equal(t, 10, h.PlayerBet(players[0].ID))
	assert.Equal(t, 20, h.PlayerBet(players[1].ID))
	require.NotNil(t, h.Active())
	assert.Equal(t, players[0].ID, h.Active().ID)
}

func TestHeadsUpAllInRunout(t *testing.T) {
	t.Parallel()

	h, players := newTestHand(t, []int{100, 100}, 0, 10, 20, 0)

	// Button shoves, big blind calls. Both all in.
	mustApply(t, h, 1, Action{Type: ActionRaise, Amount: 100})
	mustApply(t, h, 2, Action{Type: ActionCall})
	require.True(t, h.RoundDone())
	assert.True(t, players[0].AllIn)
	assert.True(t, players[1].AllIn)

	// The board runs out with no further betting.
	for h.Round() != RoundShowdown {
		h.Advance()
		assert.True(t, h.RoundDone())
	}
	require.Len(t, h.Board(), 5)

	rigShowdown(h, cards([2]int{2, 0}, [2]int{7, 1}, [2]int{9, 2}, [2]int{11, 3}, [2]int{3, 0}), map[int64][]Card{
		1: cards([2]int{14, 1}, [2]int{14, 2}),
		2: cards([2]int{13, 1}, [2]int{13, 2}),
	})
	res, err := h.Resolve()
	require.NoError(t, err)
	require.Len(t, res.Awards, 1)
	assert.Equal(t, []int64{1}, res.Awards[0].Winners)

	// Chip conservation: winner holds everything.
	assert.Equal(t, 200, players[0].Chips())
	assert.Equal(t, 0, players[1].Chips())
}

func TestThreeWaySidePots(t *testing.T) {
	t.Parallel()

	// Seats: 1=button(200), 2=small blind(50), 3=big blind(150).
	h, players := newTestHand(t, []int{200, 50, 150}, 0, 10, 20, 0)

	// Button shoves 200, both blinds call all in.
	mustApply(t, h, 1, Action{Type: ActionRaise, Amount: 200})
	mustApply(t, h, 2, Action{Type: ActionCall})
	mustApply(t, h, 3, Action{Type: ActionCall})
	require.True(t, h.RoundDone())

	for h.Round() != RoundShowdown {
		h.Advance()
	}

	pots := h.Pots()
	require.Len(t, pots, 3)
	assert.Equal(t, 150, pots[0].Chips) // 50 x 3
	assert.Equal(t, 200, pots[1].Chips) // 100 x 2
	assert.Equal(t, 50, pots[2].Chips)  // uncovered overbet
	assert.True(t, pots[2].Overbet())

	// Shorty takes the main pot, mid stack the side pot, the overbet
	// returns to the big stack.
	rigShowdown(h, cards([2]int{2, 0}, [2]int{7, 1}, [2]int{9, 2}, [2]int{11, 3}, [2]int{3, 0}), map[int64][]Card{
		1: cards([2]int{6, 1}, [2]int{4, 2}),
		2: cards([2]int{14, 1}, [2]int{14, 2}),
		3: cards([2]int{13, 1}, [2]int{13, 2}),
	})
	res, err := h.Resolve()
	require.NoError(t, err)
	require.Len(t, res.Awards, 3)

	assert.Equal(t, []int64{2}, res.Awards[0].Winners)
	assert.Equal(t, []int64{3}, res.Awards[1].Winners)
	assert.Equal(t, []int64{1}, res.Awards[2].Winners)
	assert.True(t, res.Awards[2].Refund)

	assert.Equal(t, 150, players[1].Chips())
	assert.Equal(t, 200, players[2].Chips())
	assert.Equal(t, 50, players[0].Chips())
}

func TestOddChipGoesToFirstWinnerLeftOfButton(t *testing.T) {
	t.Parallel()

	// Blinds 10/25 make an odd preflop pot of 75.
	h, players := newTestHand(t, []int{500, 500, 500}, 0, 10, 25, 0)

	mustApply(t, h, 1, Action{Type: ActionCall})
	mustApply(t, h, 2, Action{Type: ActionCall})
	mustApply(t, h, 3, Action{Type: ActionCheck})
	require.True(t, h.RoundDone())
	h.Advance()

	// Button folds on the flop, the blinds check it down.
	mustApply(t, h, 2, Action{Type: ActionCheck})
	mustApply(t, h, 3, Action{Type: ActionCheck})
	mustApply(t, h, 1, Action{Type: ActionFold})
	h.Advance()
	mustApply(t, h, 2, Action{Type: ActionCheck})
	mustApply(t, h, 3, Action{Type: ActionCheck})
	h.Advance()
	mustApply(t, h, 2, Action{Type: ActionCheck})
	mustApply(t, h, 3, Action{Type: ActionCheck})
	h.Advance()
	require.Equal(t, RoundShowdown, h.Round())

	// Both remaining players play the board and tie.
	board := cards([2]int{14, 0}, [2]int{13, 1}, [2]int{12, 2}, [2]int{11, 3}, [2]int{10, 0})
	rigShowdown(h, board, map[int64][]Card{
		2: cards([2]int{2, 1}, [2]int{3, 2}),
		3: cards([2]int{2, 3}, [2]int{3, 0}),
	})
	res, err := h.Resolve()
	require.NoError(t, err)
	require.Len(t, res.Awards, 1)
	require.Equal(t, []int64{2, 3}, res.Awards[0].Winners)
	assert.Equal(t, 37, res.Awards[0].Share)

	// Player 2 sits left of the button and collects the odd chip.
	assert.Equal(t, 500-25+38, players[1].Chips())
	assert.Equal(t, 500-25+37, players[2].Chips())
}

func TestFoldToWinnerWithoutShowdown(t *testing.T) {
	t.Parallel()

	h, players := newTestHand(t, []int{500, 500, 500}, 0, 10, 20, 0)

	mustApply(t, h, 1, Action{Type: ActionFold})
	mustApply(t, h, 2, Action{Type: ActionFold})
	require.True(t, h.RoundDone())
	h.Advance()
	require.Equal(t, RoundShowdown, h.Round())

	res, err := h.Resolve()
	require.NoError(t, err)
	assert.False(t, res.Showdown)
	require.Len(t, res.Awards, 1)
	assert.Equal(t, []int64{3}, res.Awards[0].Winners)

	// The big blind collects the small blind's surrender.
	assert.Equal(t, 510, players[2].Chips())
}

func TestBigBlindKeepsOption(t *testing.T) {
	t.Parallel()

	h, _ := newTestHand(t, []int{500, 500, 500}, 0, 10, 20, 0)

	mustApply(t, h, 1, Action{Type: ActionCall})
	mustApply(t, h, 2, Action{Type: ActionCall})
	assert.False(t, h.RoundDone())

	require.Equal(t, int64(3), h.Active().ID)
	opts := h.Options()
	assert.True(t, opts.CanCheck)
	assert.True(t, opts.CanBet)

	mustApply(t, h, 3, Action{Type: ActionCheck})
	assert.True(t, h.RoundDone())
}

func TestApplyOutOfTurn(t *testing.T) {
	t.Parallel()

	h, _ := newTestHand(t, []int{500, 500, 500}, 0, 10, 20, 0)
	_, err := h.Apply(2, Action{Type: ActionFold})
	assert.ErrorIs(t, err, ErrOutOfTurn)
}

func TestApplyIllegalAction(t *testing.T) {
	t.Parallel()

	h, _ := newTestHand(t, []int{500, 500, 500}, 0, 10, 20, 0)
	// Facing the big blind, check is not available.
	_, err := h.Apply(1, Action{Type: ActionCheck})
	assert.ErrorIs(t, err, ErrIllegalAction)
}

func TestRaiseClampedIntoRange(t *testing.T) {
	t.Parallel()

	h, players := newTestHand(t, []int{500, 500, 500}, 0, 10, 20, 0)

	// A raise below the minimum is lifted to it.
	applied := mustApply(t, h, 1, Action{Type: ActionRaise, Amount: 21})
	assert.Equal(t, 40, applied.Amount)
	assert.Equal(t, 40, h.CurrentBet())

	// A raise beyond the stack caps at all in.
	applied = mustApply(t, h, 2, Action{Type: ActionRaise, Amount: 10_000})
	assert.Equal(t, 500, applied.Amount)
	assert.True(t, players[1].AllIn)
}

func TestShortBlindPostIsAllIn(t *testing.T) {
	t.Parallel()

	// Big blind seat has only 5 chips against a 20 blind.
	h, players := newTestHand(t, []int{500, 500, 5}, 0, 10, 20, 0)

	assert.Equal(t, 5, h.PlayerBet(3))
	assert.True(t, players[2].AllIn)
	// The table still owes 20 to play.
	assert.Equal(t, 20, h.CurrentBet())
}

func TestAntesCollectedBeforeBlinds(t *testing.T) {
	t.Parallel()

	h, _ := newTestHand(t, []int{500, 500, 500}, 0, 10, 20, 5)

	pots := h.Pots()
	require.Len(t, pots, 1)
	assert.Equal(t, 15, pots[0].Chips)
	assert.Equal(t, RoundNone, pots[0].Round)
	assert.Equal(t, 45, h.PotTotal()) // antes plus blinds
}

func TestHistoryRecordsActions(t *testing.T) {
	t.Parallel()

	h, _ := newTestHand(t, []int{500, 500}, 0, 10, 20, 0)
	mustApply(t, h, 1, Action{Type: ActionCall})
	mustApply(t, h, 2, Action{Type: ActionCheck})

	hist := h.History()
	require.Len(t, hist, 2)
	assert.Equal(t, int64(1), hist[0].PlayerID)
	assert.Equal(t, ActionCall, hist[0].Action.Type)
	assert.Equal(t, RoundPreFlop, hist[1].Round)
}
