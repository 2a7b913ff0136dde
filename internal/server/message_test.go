package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/tourneyd/internal/game"
)

func TestParseActionType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want game.ActionType
		ok   bool
	}{
		{"fold", game.ActionFold, true},
		{"check", game.ActionCheck, true},
		{"call", game.ActionCall, true},
		{"bet", game.ActionBet, true},
		{"raise", game.ActionRaise, true},
		{"shove", game.ActionFold, false},
		{"", game.ActionFold, false},
	}
	for _, tt := range tests {
		got, ok := parseActionType(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestMessageEnvelope(t *testing.T) {
	t.Parallel()

	msg := Message{
		Type:    MsgAction,
		GameID:  "g1",
		Payload: mustJSON(ActionPayload{Action: "raise", Amount: 120}),
	}
	b, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, MsgAction, decoded.Type)
	assert.Equal(t, "g1", decoded.GameID)

	var payload ActionPayload
	require.NoError(t, json.Unmarshal(decoded.Payload, &payload))
	assert.Equal(t, "raise", payload.Action)
	assert.Equal(t, 120, payload.Amount)
}

func TestEmptyPayloadOmitted(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Message{Type: MsgOK})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ok"}`, string(b))
}
