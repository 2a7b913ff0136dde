package game

// Category classifies a five-card hand, ordered weakest to strongest.
type Category int

const (
	HighCard Category = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns a human-readable category name.
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// ScoreBase separates category bands in a HandScore. Five kicker ranks packed
// four bits each occupy the low 20 bits, so categories start at bit 20.
const ScoreBase = 1 << 20

// HandScore is a comparable hand strength. Higher is stronger; equal scores
// split the pot.
type HandScore int

// Category extracts the hand category from a score.
func (s HandScore) Category() Category {
	return Category(int(s) / ScoreBase)
}

// Evaluate returns the score of the best five-card hand within cards.
// Works for any hand of five to seven cards.
func Evaluate(cards []Card) HandScore {
	if len(cards) < 5 {
		return 0
	}

	var rankCount [15]int
	var suitCount [4]int
	for _, c := range cards {
		rankCount[c.Rank]++
		suitCount[c.Suit]++
	}

	// Flush and straight flush live in the most populous suit.
	bigSuit := Spades
	for s := Hearts; s <= Clubs; s++ {
		if suitCount[s] > suitCount[bigSuit] {
			bigSuit = s
		}
	}
	if suitCount[bigSuit] >= 5 {
		var suitedRanks [15]int
		for _, c := range cards {
			if c.Suit == bigSuit {
				suitedRanks[c.Rank]++
			}
		}
		if high := straightHigh(suitedRanks); high != 0 {
			return score(StraightFlush, []Rank{high})
		}
		return score(Flush, topRanks(suitedRanks, 5))
	}

	// Groupings: quads, trips and pairs by descending rank.
	var quads, trips, pairs []Rank
	for r := Ace; r >= Two; r-- {
		switch rankCount[r] {
		case 4:
			quads = append(quads, r)
		case 3:
			trips = append(trips, r)
		case 2:
			pairs = append(pairs, r)
		}
	}

	switch {
	case len(quads) > 0:
		q := quads[0]
		kicker := bestKickers(rankCount, []Rank{q}, 1)
		return score(FourOfAKind, append([]Rank{q, q, q, q}, kicker...))
	case len(trips) > 0 && (len(trips) > 1 || len(pairs) > 0):
		t := trips[0]
		var p Rank
		if len(trips) > 1 {
			p = trips[1]
		}
		if len(pairs) > 0 && pairs[0] > p {
			p = pairs[0]
		}
		return score(FullHouse, []Rank{t, t, t, p, p})
	}

	if high := straightHigh(rankCount); high != 0 {
		return score(Straight, []Rank{high})
	}

	switch {
	case len(trips) > 0:
		t := trips[0]
		kickers := bestKickers(rankCount, []Rank{t}, 2)
		return score(ThreeOfAKind, append([]Rank{t, t, t}, kickers...))
	case len(pairs) >= 2:
		hi, lo := pairs[0], pairs[1]
		kicker := bestKickers(rankCount, []Rank{hi, lo}, 1)
		return score(TwoPair, append([]Rank{hi, hi, lo, lo}, kicker...))
	case len(pairs) == 1:
		p := pairs[0]
		kickers := bestKickers(rankCount, []Rank{p}, 3)
		return score(Pair, append([]Rank{p, p}, kickers...))
	}

	return score(HighCard, topRanks(rankCount, 5))
}

// BestHand evaluates a player's hole cards against the board.
func BestHand(hole []Card, board []Card) HandScore {
	all := make([]Card, 0, len(hole)+len(board))
	all = append(all, hole...)
	all = append(all, board...)
	return Evaluate(all)
}

// straightHigh returns the high rank of the best straight in the rank set, or
// zero when there is none. The ace also plays low for the wheel.
func straightHigh(rankCount [15]int) Rank {
	run := 0
	if rankCount[Ace] > 0 {
		run = 1 // ace seeds a wheel
	}
	best := Rank(0)
	for r := Two; r <= Ace; r++ {
		if rankCount[r] == 0 {
			run = 0
			continue
		}
		run++
		if run >= 5 {
			best = r
		}
	}
	return best
}

// topRanks returns the n highest ranks present, repeated per their count.
func topRanks(rankCount [15]int, n int) []Rank {
	out := make([]Rank, 0, n)
	for r := Ace; r >= Two && len(out) < n; r-- {
		for i := 0; i < rankCount[r] && len(out) < n; i++ {
			out = append(out, r)
		}
	}
	return out
}

// bestKickers returns the n highest ranks not in exclude.
func bestKickers(rankCount [15]int, exclude []Rank, n int) []Rank {
	out := make([]Rank, 0, n)
	for r := Ace; r >= Two && len(out) < n; r-- {
		skip := false
		for _, e := range exclude {
			if r == e {
				skip = true
				break
			}
		}
		if skip || rankCount[r] == 0 {
			continue
		}
		out = append(out, r)
	}
	return out
}

// score packs a category and up to five ranks into a HandScore. Ranks must
// already be in significance order (pair rank before kickers, trips before
// the full house pair), four bits each from the top.
func score(cat Category, ranks []Rank) HandScore {
	v := int(cat) * ScoreBase
	shift := 16
	for i := 0; i < 5 && i < len(ranks); i++ {
		v |= int(ranks[i]) << shift
		shift -= 4
	}
	return HandScore(v)
}
