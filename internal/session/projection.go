package session

import (
	"github.com/cardroom/tourneyd/internal/game"
)

// SeatView is one seat as a given player may see it. Hole cards are present
// only on the viewer's own seat.
type SeatView struct {
	PlayerID int64    `json:"player_id"`
	Name     string   `json:"name"`
	Seat     int      `json:"seat"`
	Chips    int      `json:"chips"`
	Bet      int      `json:"bet"`
	Folded   bool     `json:"folded"`
	AllIn    bool     `json:"all_in"`
	Out      bool     `json:"out"`
	Cards    []string `json:"cards,omitempty"`
}

// Projection is a point-in-time view of a table for one player, assembled on
// the director goroutine so it is internally consistent.
type Projection struct {
	GameID     string     `json:"game_id"`
	State      string     `json:"state"`
	TableID    int        `json:"table_id"`
	HandNum    int        `json:"hand_num"`
	Level      int        `json:"level"`
	SmallBlind int        `json:"small_blind"`
	BigBlind   int        `json:"big_blind"`
	Ante       int        `json:"ante"`
	Round      string     `json:"round"`
	Board      []string   `json:"board"`
	PotTotal   int        `json:"pot_total"`
	ToAct      int64      `json:"to_act,omitempty"`
	Seats      []SeatView `json:"seats"`
	LastSeq    uint64     `json:"last_seq"`

	// Options is set when the viewer has a decision outstanding.
	Options *game.ActionOptions `json:"options,omitempty"`
}

// snapshot captures a table with every player's cards; Projection filters it
// per viewer.
type snapshot struct {
	proj  Projection
	cards map[int64][]string
}

// buildSnapshot assembles the full table view. Runs on the director
// goroutine between engine steps, so hand state is stable.
func buildSnapshot(gameID string, state string, t *game.Table, trn *game.Tournament, lastSeq uint64) *snapshot {
	lvl := trn.Level()
	s := &snapshot{
		proj: Projection{
			GameID:     gameID,
			State:      state,
			TableID:    t.ID,
			HandNum:    trn.TotalHands() + 1,
			Level:      trn.LevelIndex(),
			SmallBlind: lvl.Small,
			BigBlind:   lvl.Big,
			Ante:       lvl.Ante,
			LastSeq:    lastSeq,
		},
		cards: make(map[int64][]string),
	}

	h := t.Hand()
	if h != nil {
		s.proj.Round = h.Round().String()
		s.proj.Board = game.Notations(h.Board())
		s.proj.PotTotal = h.PotTotal()
		if p := h.Active(); p != nil {
			s.proj.ToAct = p.ID
		}
	}

	for _, p := range t.Players() {
		sv := SeatView{
			PlayerID: p.ID,
			Name:     p.Name,
			Seat:     p.Seat(),
			Chips:    p.Chips(),
			Folded:   p.Folded,
			AllIn:    p.AllIn,
			Out:      p.Eliminated(),
		}
		if h != nil {
			sv.Bet = h.PlayerBet(p.ID)
		}
		if len(p.Cards) > 0 {
			s.cards[p.ID] = game.Notations(p.Cards)
		}
		s.proj.Seats = append(s.proj.Seats, sv)
	}
	return s
}

// viewFor returns the snapshot as seen by the given player.
func (s *snapshot) viewFor(playerID int64) Projection {
	proj := s.proj
	proj.Seats = make([]SeatView, len(s.proj.Seats))
	copy(proj.Seats, s.proj.Seats)
	for i := range proj.Seats {
		if proj.Seats[i].PlayerID == playerID {
			proj.Seats[i].Cards = s.cards[playerID]
		}
	}
	return proj
}
