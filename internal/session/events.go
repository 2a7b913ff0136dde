package session

import (
	"time"

	"github.com/coder/quartz"
)

// EventType identifies an event payload.
type EventType string

const (
	EventGameStateChanged    EventType = "game_state_changed"
	EventPlayerAdded         EventType = "player_added"
	EventPlayerRemoved       EventType = "player_removed"
	EventHandStarted         EventType = "hand_started"
	EventPlayerActed         EventType = "player_acted"
	EventActionTimeout       EventType = "action_timeout"
	EventCommunityCards      EventType = "community_cards_dealt"
	EventShowdownStarted     EventType = "showdown_started"
	EventPotAwarded          EventType = "pot_awarded"
	EventHandCompleted       EventType = "hand_completed"
	EventLevelChanged        EventType = "level_changed"
	EventBreakStarted        EventType = "break_started"
	EventBreakEnded          EventType = "break_ended"
	EventRebuyOffered        EventType = "rebuy_offered"
	EventPlayerRebuy         EventType = "player_rebuy"
	EventAddonOffered        EventType = "addon_offered"
	EventPlayerAddon         EventType = "player_addon"
	EventPlayerEliminated    EventType = "player_eliminated"
	EventButtonMoved         EventType = "button_moved"
	EventChipsTransferred    EventType = "chips_transferred"
	EventTableConsolidated   EventType = "table_consolidated"
	EventTournamentCompleted EventType = "tournament_completed"
	EventGameError           EventType = "game_error"
)

// Event is a fact about a game, published to the game's log and bus.
type Event interface {
	Type() EventType
	OccurredAt() time.Time
}

// stamp carries the event timestamp, set by the bus at publish time.
type stamp struct {
	At time.Time `json:"at"`
}

// OccurredAt returns when the event was published.
func (s stamp) OccurredAt() time.Time { return s.At }

// stampNow builds the timestamp for an event literal from the game clock.
func stampNow(c quartz.Clock) stamp { return stamp{At: c.Now()} }

// GameStateChanged records a lifecycle transition.
type GameStateChanged struct {
	stamp
	From string `json:"from"`
	To   string `json:"to"`
}

func (GameStateChanged) Type() EventType { return EventGameStateChanged }

// PlayerAdded records a player joining the game.
type PlayerAdded struct {
	stamp
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name"`
	Human    bool   `json:"human"`
	Chips    int    `json:"chips"`
}

func (PlayerAdded) Type() EventType { return EventPlayerAdded }

// PlayerRemoved records a player leaving before the game started.
type PlayerRemoved struct {
	stamp
	PlayerID int64 `json:"player_id"`
}

func (PlayerRemoved) Type() EventType { return EventPlayerRemoved }

// HandSeat is one player's position at the start of a hand.
type HandSeat struct {
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name"`
	Seat     int    `json:"seat"`
	Chips    int    `json:"chips"`
}

// HandStarted records a new deal.
type HandStarted struct {
	stamp
	TableID    int        `json:"table_id"`
	HandNum    int        `json:"hand_num"`
	Level      int        `json:"level"`
	ButtonSeat int        `json:"button_seat"`
	SmallBlind int        `json:"small_blind"`
	BigBlind   int        `json:"big_blind"`
	Ante       int        `json:"ante"`
	Seats      []HandSeat `json:"seats"`
}

func (HandStarted) Type() EventType { return EventHandStarted }

// PlayerActed records an applied betting action.
type PlayerActed struct {
	stamp
	TableID  int    `json:"table_id"`
	PlayerID int64  `json:"player_id"`
	Round    string `json:"round"`
	Action   string `json:"action"`
	Amount   int    `json:"amount,omitempty"`
	PotTotal int    `json:"pot_total"`
}

func (PlayerActed) Type() EventType { return EventPlayerActed }

// ActionTimeout records a decision resolved by the clock instead of the
// player.
type ActionTimeout struct {
	stamp
	TableID     int    `json:"table_id"`
	PlayerID    int64  `json:"player_id"`
	Resolved    string `json:"resolved"` // check or fold
	Consecutive int    `json:"consecutive"`
}

func (ActionTimeout) Type() EventType { return EventActionTimeout }

// CommunityCardsDealt records a street.
type CommunityCardsDealt struct {
	stamp
	TableID int      `json:"table_id"`
	Round   string   `json:"round"`
	Cards   []string `json:"cards"`
	Board   []string `json:"board"`
}

func (CommunityCardsDealt) Type() EventType { return EventCommunityCards }

// ShowdownStarted records hole cards revealed at showdown.
type ShowdownStarted struct {
	stamp
	TableID  int                `json:"table_id"`
	Revealed map[int64][]string `json:"revealed"`
}

func (ShowdownStarted) Type() EventType { return EventShowdownStarted }

// PotAwarded records the settlement of one pot.
type PotAwarded struct {
	stamp
	TableID  int     `json:"table_id"`
	PotIndex int     `json:"pot_index"`
	Chips    int     `json:"chips"`
	Winners  []int64 `json:"winners"`
	Share    int     `json:"share"`
	Refund   bool    `json:"refund,omitempty"`
}

func (PotAwarded) Type() EventType { return EventPotAwarded }

// HandCompleted records the end of a hand.
type HandCompleted struct {
	stamp
	TableID int      `json:"table_id"`
	HandNum int      `json:"hand_num"`
	Board   []string `json:"board"`
}

func (HandCompleted) Type() EventType { return EventHandCompleted }

// LevelChanged records a blind level advance.
type LevelChanged struct {
	stamp
	Level      int `json:"level"`
	SmallBlind int `json:"small_blind"`
	BigBlind   int `json:"big_blind"`
	Ante       int `json:"ante"`
}

func (LevelChanged) Type() EventType { return EventLevelChanged }

// BreakStarted records the start of a scheduled break.
type BreakStarted struct {
	stamp
	Level   int `json:"level"`
	Minutes int `json:"minutes"`
}

func (BreakStarted) Type() EventType { return EventBreakStarted }

// BreakEnded records play resuming after a break.
type BreakEnded struct {
	stamp
	Level int `json:"level"`
}

func (BreakEnded) Type() EventType { return EventBreakEnded }

// RebuyOffered records a rebuy offer extended to a busted player.
type RebuyOffered struct {
	stamp
	PlayerID int64 `json:"player_id"`
	Chips    int   `json:"chips"`
}

func (RebuyOffered) Type() EventType { return EventRebuyOffered }

// PlayerRebuy records an accepted rebuy.
type PlayerRebuy struct {
	stamp
	PlayerID int64 `json:"player_id"`
	Chips    int   `json:"chips"`
	Count    int   `json:"count"`
}

func (PlayerRebuy) Type() EventType { return EventPlayerRebuy }

// AddonOffered records an addon offer at a break.
type AddonOffered struct {
	stamp
	PlayerID int64 `json:"player_id"`
	Chips    int   `json:"chips"`
}

func (AddonOffered) Type() EventType { return EventAddonOffered }

// PlayerAddon records an accepted addon.
type PlayerAddon struct {
	stamp
	PlayerID int64 `json:"player_id"`
	Chips    int   `json:"chips"`
}

func (PlayerAddon) Type() EventType { return EventPlayerAddon }

// PlayerEliminated records a bust-out and the player's finishing position.
type PlayerEliminated struct {
	stamp
	PlayerID int64 `json:"player_id"`
	Position int   `json:"position"`
}

func (PlayerEliminated) Type() EventType { return EventPlayerEliminated }

// ButtonMoved records the button landing on a new seat for the coming hand.
type ButtonMoved struct {
	stamp
	TableID int `json:"table_id"`
	Seat    int `json:"seat"`
}

func (ButtonMoved) Type() EventType { return EventButtonMoved }

// ChipsTransferred records a stack moving between tables.
type ChipsTransferred struct {
	stamp
	PlayerID  int64 `json:"player_id"`
	FromTable int   `json:"from_table"`
	ToTable   int   `json:"to_table"`
	Chips     int   `json:"chips"`
}

func (ChipsTransferred) Type() EventType { return EventChipsTransferred }

// TableConsolidated records players moved off a broken table.
type TableConsolidated struct {
	stamp
	FromTable int     `json:"from_table"`
	ToTable   int     `json:"to_table"`
	Moved     []int64 `json:"moved"`
}

func (TableConsolidated) Type() EventType { return EventTableConsolidated }

// Standing is one player's final tournament result.
type Standing struct {
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// TournamentCompleted records the end of the game.
type TournamentCompleted struct {
	stamp
	WinnerID  int64      `json:"winner_id"`
	Standings []Standing `json:"standings"`
}

func (TournamentCompleted) Type() EventType { return EventTournamentCompleted }

// GameError records a fatal director failure.
type GameError struct {
	stamp
	Message string `json:"message"`
}

func (GameError) Type() EventType { return EventGameError }
