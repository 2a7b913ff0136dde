package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cards(pairs ...[2]int) []Card {
	out := make([]Card, len(pairs))
	for i, s := range pairs {
		out[i] = NewCard(Rank(s[0]), Suit(s[1]))
	}
	return out
}

func TestEvaluateCategories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cards []Card
		want  Category
	}{
		{
			name:  "high card",
			cards: cards([2]int{14, 0}, [2]int{12, 1}, [2]int{9, 2}, [2]int{7, 3}, [2]int{3, 0}, [2]int{2, 1}, [2]int{5, 2}),
			want:  HighCard,
		},
		{
			name:  "pair",
			cards: cards([2]int{14, 0}, [2]int{14, 1}, [2]int{9, 2}, [2]int{7, 3}, [2]int{3, 0}, [2]int{2, 1}, [2]int{5, 2}),
			want:  Pair,
		},
		{
			name:  "two pair",
			cards: cards([2]int{14, 0}, [2]int{14, 1}, [2]int{9, 2}, [2]int{9, 3}, [2]int{3, 0}, [2]int{2, 1}, [2]int{5, 2}),
			want:  TwoPair,
		},
		{
			name:  "trips",
			cards: cards([2]int{14, 0}, [2]int{14, 1}, [2]int{14, 2}, [2]int{9, 3}, [2]int{3, 0}, [2]int{2, 1}, [2]int{5, 2}),
			want:  ThreeOfAKind,
		},
		{
			name:  "straight",
			cards: cards([2]int{5, 0}, [2]int{6, 1}, [2]int{7, 2}, [2]int{8, 3}, [2]int{9, 0}, [2]int{2, 1}, [2]int{14, 2}),
			want:  Straight,
		},
		{
			name:  "wheel straight",
			cards: cards([2]int{14, 0}, [2]int{2, 1}, [2]int{3, 2}, [2]int{4, 3}, [2]int{5, 0}, [2]int{9, 1}, [2]int{11, 2}),
			want:  Straight,
		},
		{
			name:  "flush",
			cards: cards([2]int{14, 0}, [2]int{12, 0}, [2]int{9, 0}, [2]int{7, 0}, [2]int{3, 0}, [2]int{2, 1}, [2]int{5, 2}),
			want:  Flush,
		},
		{
			name:  "full house",
			cards: cards([2]int{14, 0}, [2]int{14, 1}, [2]int{14, 2}, [2]int{9, 3}, [2]int{9, 0}, [2]int{2, 1}, [2]int{5, 2}),
			want:  FullHouse,
		},
		{
			name:  "quads",
			cards: cards([2]int{14, 0}, [2]int{14, 1}, [2]int{14, 2}, [2]int{14, 3}, [2]int{9, 0}, [2]int{2, 1}, [2]int{5, 2}),
			want:  FourOfAKind,
		},
		{
			name:  "straight flush",
			cards: cards([2]int{5, 0}, [2]int{6, 0}, [2]int{7, 0}, [2]int{8, 0}, [2]int{9, 0}, [2]int{2, 1}, [2]int{14, 2}),
			want:  StraightFlush,
		},
		{
			name:  "steel wheel",
			cards: cards([2]int{14, 2}, [2]int{2, 2}, [2]int{3, 2}, [2]int{4, 2}, [2]int{5, 2}, [2]int{9, 1}, [2]int{11, 0}),
			want:  StraightFlush,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Evaluate(tt.cards)
			assert.Equal(t, tt.want, got.Category())
		})
	}
}

func TestEvaluateKickerOrdering(t *testing.T) {
	t.Parallel()

	// Quad twos with an ace kicker must not outrank quad threes.
	quadTwos := Evaluate(cards([2]int{2, 0}, [2]int{2, 1}, [2]int{2, 2}, [2]int{2, 3}, [2]int{14, 0}))
	quadThrees := Evaluate(cards([2]int{3, 0}, [2]int{3, 1}, [2]int{3, 2}, [2]int{3, 3}, [2]int{4, 0}))
	assert.Greater(t, quadThrees, quadTwos)

	// Twos full of aces loses to threes full of twos.
	twosFull := Evaluate(cards([2]int{2, 0}, [2]int{2, 1}, [2]int{2, 2}, [2]int{14, 0}, [2]int{14, 1}))
	threesFull := Evaluate(cards([2]int{3, 0}, [2]int{3, 1}, [2]int{3, 2}, [2]int{2, 3}, [2]int{2, 0}))
	assert.Greater(t, threesFull, twosFull)

	// Pair kickers break ties in order.
	kingKicker := Evaluate(cards([2]int{8, 0}, [2]int{8, 1}, [2]int{13, 2}, [2]int{7, 3}, [2]int{3, 0}))
	queenKicker := Evaluate(cards([2]int{8, 2}, [2]int{8, 3}, [2]int{12, 0}, [2]int{7, 1}, [2]int{3, 2}))
	assert.Greater(t, kingKicker, queenKicker)
}

func TestEvaluateSplits(t *testing.T) {
	t.Parallel()

	// Identical board-play hands score identically.
	a := Evaluate(cards([2]int{14, 0}, [2]int{13, 0}, [2]int{9, 1}, [2]int{9, 2}, [2]int{5, 3}))
	b := Evaluate(cards([2]int{14, 1}, [2]int{13, 1}, [2]int{9, 3}, [2]int{9, 0}, [2]int{5, 2}))
	assert.Equal(t, a, b)
}

func TestEvaluateWheelBeatsNothingHigher(t *testing.T) {
	t.Parallel()

	wheel := Evaluate(cards([2]int{14, 0}, [2]int{2, 1}, [2]int{3, 2}, [2]int{4, 3}, [2]int{5, 0}))
	sixHigh := Evaluate(cards([2]int{2, 0}, [2]int{3, 1}, [2]int{4, 2}, [2]int{5, 3}, [2]int{6, 0}))
	require.Equal(t, Straight, wheel.Category())
	require.Equal(t, Straight, sixHigh.Category())
	assert.Greater(t, sixHigh, wheel)
}

func TestBestHandUsesBoard(t *testing.T) {
	t.Parallel()

	hole := cards([2]int{14, 0}, [2]int{14, 1})
	board := cards([2]int{14, 2}, [2]int{14, 3}, [2]int{9, 0})
	assert.Equal(t, FourOfAKind, BestHand(hole, board).Category())
}
