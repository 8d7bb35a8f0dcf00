package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerroom/internal/room"
)

func envelope(t *testing.T, event EventType, data interface{}) EventEnvelope {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return EventEnvelope{Event: event, Data: raw}
}

func TestDecodePlayerAction(t *testing.T) {
	env := envelope(t, EventPlayerAction, GameActionData{
		PlayerAddress: "alice",
		RoundID:       7,
		Street:        "flop",
		Action:        "raise",
		Amount:        25,
		Signature:     "sig",
	})

	ev, err := DecodeEvent(env)
	require.NoError(t, err)

	action, ok := ev.(room.PlayerPerformedAction)
	require.True(t, ok)
	assert.Equal(t, "alice", action.Action.PlayerAddress)
	assert.Equal(t, room.Flop, action.Action.Street)
	assert.Equal(t, room.Raise, action.Action.Action)
	assert.Equal(t, int64(25), action.Action.Amount)
	assert.Equal(t, "sig", action.Action.Signature)
}

func TestDecodePlayerActionRejectsUnknownNames(t *testing.T) {
	_, err := DecodeEvent(envelope(t, EventPlayerAction, GameActionData{
		PlayerAddress: "alice", Street: "flop", Action: "slowroll",
	}))
	require.Error(t, err)

	_, err = DecodeEvent(envelope(t, EventPlayerAction, GameActionData{
		PlayerAddress: "alice", Street: "sixth", Action: "raise",
	}))
	require.Error(t, err)
}

func TestDecodeCommunityCards(t *testing.T) {
	ev, err := DecodeEvent(envelope(t, EventCommunityCards, CardsData{
		Street: "turn",
		Cards:  []string{"9d"},
	}))
	require.NoError(t, err)

	revealed, ok := ev.(room.CommunityCardsRevealed)
	require.True(t, ok)
	assert.Equal(t, room.Turn, revealed.Street)
	assert.Equal(t, []room.Card{"9d"}, revealed.Cards)
}

func TestDecodeRoomStateUpdatePatch(t *testing.T) {
	round := int64(9)
	contract := "0xabc"
	ev, err := DecodeEvent(envelope(t, EventRoomUpdated, RoomStateData{
		Label:           "shuffle",
		RoundID:         &round,
		ContractAddress: &contract,
		Players: []PlayerData{{
			Address: "alice", SeatIndex: 0, Balance: 100, IsActive: true,
			RoundAction: "small-blind",
		}},
	}))
	require.NoError(t, err)

	updated, ok := ev.(room.RoomStateUpdated)
	require.True(t, ok)
	assert.Equal(t, "shuffle", updated.Label)

	rc := room.NewRoomContext(1)
	rc.SmallBlind = 1 // untouched fields survive the patch
	rc = updated.Patch(rc)

	assert.Equal(t, int64(9), rc.RoundID)
	assert.Equal(t, "0xabc", rc.ContractAddress)
	assert.Equal(t, int64(1), rc.SmallBlind)
	require.Len(t, rc.Players, 1)
	assert.Equal(t, room.SmallBlind, rc.Players[0].RoundAction)
}

func TestDecodeRevealTokens(t *testing.T) {
	ev, err := DecodeEvent(envelope(t, EventRevealTokens, RevealTokensData{
		Sender: "bob",
		Tokens: []string{"t1", "t2"},
	}))
	require.NoError(t, err)

	tokens, ok := ev.(room.RevealTokenReceived)
	require.True(t, ok)
	assert.Equal(t, "bob", tokens.Tokens.Sender)
	assert.Len(t, tokens.Tokens.Tokens, 2)
}

func TestDecodeRoomRefreshed(t *testing.T) {
	round := int64(10)
	blind := int64(2)
	ev, err := DecodeEvent(envelope(t, EventRoomRefreshed, RoomStateData{
		RoundID:    &round,
		SmallBlind: &blind,
		Players: []PlayerData{
			{Address: "alice", SeatIndex: 0, Balance: 98, IsActive: true},
			{Address: "bob", SeatIndex: 1, Balance: 102, IsActive: true},
		},
	}))
	require.NoError(t, err)

	refreshed, ok := ev.(room.RoomRefreshed)
	require.True(t, ok)
	assert.Equal(t, int64(10), refreshed.Fresh.RoundID)
	assert.Equal(t, int64(2), refreshed.Fresh.SmallBlind)
	assert.Len(t, refreshed.Fresh.Players, 2)
}

func TestDecodeUnknownEvent(t *testing.T) {
	_, err := DecodeEvent(EventEnvelope{Event: "players_mutinied"})
	require.Error(t, err)
}

func TestRoomStateToContext(t *testing.T) {
	seats := 6
	blind := int64(5)
	data := RoomStateData{
		SeatsCount: &seats,
		SmallBlind: &blind,
		Pots:       []PotData{{Total: 40, Winners: []string{"alice"}}},
	}

	rc, err := data.ToContext(3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rc.RoomID)
	assert.Equal(t, 6, rc.SeatsCount)
	assert.Equal(t, int64(10), rc.BigBlindAmount())
	require.Len(t, rc.Pots, 1)
	assert.Equal(t, int64(40), rc.Pots[0].Total)
}
