package server

import (
	"encoding/json"
	"errors"

	"github.com/cardroom/tourneyd/internal/game"
)

// ErrConnectionClosed is returned when sending on a closed connection.
var ErrConnectionClosed = errors.New("connection closed")

// Message is the JSON envelope exchanged with clients. Payload shape depends
// on Type.
type Message struct {
	Type    string          `json:"type"`
	GameID  string          `json:"game_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound message types.
const (
	MsgCreateGame   = "create_game"
	MsgJoinGame     = "join_game"
	MsgLeaveGame    = "leave_game"
	MsgAddBot       = "add_bot"
	MsgStartGame    = "start_game"
	MsgPauseGame    = "pause_game"
	MsgResumeGame   = "resume_game"
	MsgCancelGame   = "cancel_game"
	MsgAction       = "action"
	MsgRebuy        = "rebuy"
	MsgAddon        = "addon"
	MsgResync       = "resync"
	MsgListGames    = "list_games"
	MsgGetState     = "get_state"
)

// Outbound message types.
const (
	MsgWelcome     = "welcome"
	MsgGameCreated = "game_created"
	MsgJoined      = "joined"
	MsgBotAdded    = "bot_added"
	MsgGames       = "games"
	MsgEvent       = "event"
	MsgPrompt      = "action_request"
	MsgState       = "state"
	MsgOK          = "ok"
	MsgError       = "error"
)

// CreateGamePayload carries the tournament configuration for a new game.
type CreateGamePayload struct {
	Config game.TournamentConfig `json:"config"`
}

// JoinPayload names the joining player.
type JoinPayload struct {
	Name string `json:"name"`
}

// AddBotPayload names the bot to seat.
type AddBotPayload struct {
	Name string `json:"name"`
}

// ActionPayload carries a betting decision.
type ActionPayload struct {
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

// OfferPayload answers a rebuy or addon offer.
type OfferPayload struct {
	Accept bool `json:"accept"`
}

// ResyncPayload requests events after a sequence number.
type ResyncPayload struct {
	SinceSeq uint64 `json:"since_seq"`
}

// ErrorPayload reports a failed request.
type ErrorPayload struct {
	Message string `json:"message"`
}

// parseActionType maps the wire action name to the game type. Unknown names
// report false; the session layer folds the player in that case.
func parseActionType(s string) (game.ActionType, bool) {
	switch s {
	case "fold":
		return game.ActionFold, true
	case "check":
		return game.ActionCheck, true
	case "call":
		return game.ActionCall, true
	case "bet":
		return game.ActionBet, true
	case "raise":
		return game.ActionRaise, true
	default:
		return game.ActionFold, false
	}
}

// mustJSON marshals a payload that cannot fail, for outbound messages built
// from our own types.
func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
