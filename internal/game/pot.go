package game

import "sort"

// Pot holds chips collected from one betting round. Cap is the all-in total
// this pot was split at, zero for the uncapped pot. Eligible lists every
// contributor; folded contributors lose their claim at resolution.
type Pot struct {
	Chips    int
	Round    Round
	Cap      int
	Eligible []int64
}

// Overbet reports whether only one player contributed to the pot. Overbet
// chips are returned to the bettor rather than awarded.
func (p *Pot) Overbet() bool {
	return len(p.Eligible) == 1
}

func (p *Pot) eligible(id int64) bool {
	for _, e := range p.Eligible {
		if e == id {
			return true
		}
	}
	return false
}

// Ledger accumulates the pots of a hand across betting rounds.
type Ledger struct {
	pots []*Pot
}

// NewLedger creates an empty pot ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Pots returns the pots collected so far, in creation order.
func (l *Ledger) Pots() []*Pot {
	return l.pots
}

// Total returns the chips across all pots.
func (l *Ledger) Total() int {
	sum := 0
	for _, p := range l.pots {
		sum += p.Chips
	}
	return sum
}

// Collect folds one round of bets into the ledger. Side pots are created
// ascending for each distinct all-in total below the highest bet of the
// round, followed by an uncapped pot. Each contributor's chips distribute
// lowest pot first; a capped pot never takes more than its cap from any
// single contributor.
func (l *Ledger) Collect(round Round, bets map[int64]int, allInTotals []int) {
	highest := 0
	total := 0
	for _, b := range bets {
		total += b
		if b > highest {
			highest = b
		}
	}
	if total == 0 {
		return
	}

	caps := distinctBelow(allInTotals, highest)

	pots := make([]*Pot, 0, len(caps)+1)
	for _, c := range caps {
		pots = append(pots, &Pot{Round: round, Cap: c})
	}
	pots = append(pots, &Pot{Round: round})

	ids := make([]int64, 0, len(bets))
	for id := range bets {
		if bets[id] > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		remaining := bets[id]
		prevCap := 0
		for _, pot := range pots {
			if remaining == 0 {
				break
			}
			take := remaining
			if pot.Cap > 0 {
				if room := pot.Cap - prevCap; take > room {
					take = room
				}
				prevCap = pot.Cap
			}
			if take > 0 {
				pot.Chips += take
				pot.Eligible = append(pot.Eligible, id)
				remaining -= take
			}
		}
	}

	for _, pot := range pots {
		if pot.Chips > 0 {
			l.pots = append(l.pots, pot)
		}
	}
}

// distinctBelow returns the sorted distinct values of totals strictly below
// limit.
func distinctBelow(totals []int, limit int) []int {
	seen := map[int]bool{}
	out := make([]int, 0, len(totals))
	for _, t := range totals {
		if t > 0 && t < limit && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Ints(out)
	return out
}
