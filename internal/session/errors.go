package session

import "errors"

var (
	// ErrGameNotFound is returned when no game exists with the given id.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameFull is returned when a game has no open seats.
	ErrGameFull = errors.New("game is full")
	// ErrNotOwner is returned when a lifecycle operation comes from a
	// player who did not create the game.
	ErrNotOwner = errors.New("operation restricted to game owner")
	// ErrInvalidTransition is returned when a lifecycle operation is not
	// legal from the game's current state.
	ErrInvalidTransition = errors.New("invalid game state transition")
	// ErrAlreadyJoined is returned when a player joins a game twice.
	ErrAlreadyJoined = errors.New("player already in game")
	// ErrNotInGame is returned when a player is not part of the game.
	ErrNotInGame = errors.New("player not in game")
	// ErrNotEnoughPlayers is returned when a game starts below its minimum.
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	// ErrNoPendingAction is returned when a submission arrives with no
	// decision outstanding for the player.
	ErrNoPendingAction = errors.New("no pending action for player")
	// ErrNoPendingOffer is returned when a rebuy or addon response arrives
	// with no offer outstanding.
	ErrNoPendingOffer = errors.New("no pending offer for player")
	// ErrTooManyGames is returned when a player exceeds their concurrent
	// game allowance.
	ErrTooManyGames = errors.New("too many games for player")
	// ErrAtCapacity is returned when the server cannot host another game.
	ErrAtCapacity = errors.New("server at game capacity")
)
