package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreetNext(t *testing.T) {
	next, ok := PreFlop.Next()
	require.True(t, ok)
	assert.Equal(t, Flop, next)

	next, ok = Turn.Next()
	require.True(t, ok)
	assert.Equal(t, River, next)

	_, ok = River.Next()
	assert.False(t, ok)

	_, ok = NoStreet.Next()
	assert.False(t, ok)
}

func TestActionIsStake(t *testing.T) {
	for _, a := range []Action{SmallBlind, BigBlind, Call, Raise, AllIn} {
		assert.True(t, a.IsStake(), a.String())
	}
	for _, a := range []Action{NoAction, Check, Fold} {
		assert.False(t, a.IsStake(), a.String())
	}
}

func TestCloneIsDeep(t *testing.T) {
	rc := testTable(seatedPlayer("alice", 0, 100))
	rc.Players[0].OpenCards = []Card{"Ah", "Kd"}
	rc.Pots = []Pot{{Total: 40, Winners: []string{"alice"}}}
	rc.RevealTokens = []PlayerRevealTokens{{Sender: "bob", Tokens: []string{"t1"}}}
	rc.ProofOfHands["alice"] = [][2]string{{"c1", "p1"}}
	rc.CommunityRevealTokens[Flop] = []CommunityRevealTokens{{Sender: "bob", Street: Flop, Tokens: []string{"ct"}}}
	rc.EndGameAttributes = map[string]string{"winner": "alice"}

	clone := rc.Clone()

	clone.Players[0].OpenCards[0] = "2c"
	clone.Pots[0].Winners[0] = "bob"
	clone.RevealTokens[0].Tokens[0] = "zap"
	clone.ProofOfHands["alice"][0] = [2]string{"x", "y"}
	clone.CommunityRevealTokens[Flop][0].Tokens[0] = "zap"
	clone.EndGameAttributes["winner"] = "bob"

	assert.Equal(t, Card("Ah"), rc.Players[0].OpenCards[0])
	assert.Equal(t, "alice", rc.Pots[0].Winners[0])
	assert.Equal(t, "t1", rc.RevealTokens[0].Tokens[0])
	assert.Equal(t, [2]string{"c1", "p1"}, rc.ProofOfHands["alice"][0])
	assert.Equal(t, "ct", rc.CommunityRevealTokens[Flop][0].Tokens[0])
	assert.Equal(t, "alice", rc.EndGameAttributes["winner"])
}

func TestResetForNextRound(t *testing.T) {
	current := testTable(seatedPlayer("alice", 0, 100))
	current.PlayerAddress = "alice"
	current.ContractAddress = "0xabc"
	current.ChatMessages = []ChatMessage{{ID: "1", Text: "glhf"}}
	current.Actions = []SignedPlayerAction{{PlayerAction: PlayerAction{
		PlayerAddress: "alice", Action: Check,
	}}}
	current.CommunityCards = []Card{"2h", "7c", "Js"}

	fresh := NewRoomContext(0)
	fresh.RoundID = 8
	fresh.Players = []Player{seatedPlayer("alice", 0, 98), seatedPlayer("bob", 1, 102)}

	next := ResetForNextRound(current, fresh)

	assert.Equal(t, current.RoomID, next.RoomID)
	assert.Equal(t, int64(8), next.RoundID)
	assert.Len(t, next.Players, 2)
	assert.Empty(t, next.CommunityCards, "round-scoped state cleared")
	assert.Empty(t, next.Actions)

	assert.Equal(t, "alice", next.PlayerAddress)
	assert.Equal(t, "0xabc", next.ContractAddress)
	assert.Len(t, next.ChatMessages, 1, "chat survives the round boundary")
	assert.Len(t, next.PreviousRoundActions, 1)

	assert.Equal(t, current.SmallBlind, next.SmallBlind, "zero fresh values backfilled")
	assert.Equal(t, current.SeatsCount, next.SeatsCount)
}

func TestBigBlindAmount(t *testing.T) {
	rc := NewRoomContext(1)
	rc.SmallBlind = 5
	assert.Equal(t, int64(10), rc.BigBlindAmount())
}
