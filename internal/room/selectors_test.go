package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingFlop() State {
	return State{Phase: PhasePendingAction, Street: Flop}
}

func TestSelectStreet(t *testing.T) {
	street, ok := SelectStreet(State{Phase: PhasePendingAction, Street: Turn})
	require.True(t, ok)
	assert.Equal(t, Turn, street)

	_, ok = SelectStreet(State{Phase: PhaseShowdown})
	assert.False(t, ok)

	_, ok = SelectStreet(State{Phase: PhaseIdle})
	assert.False(t, ok)
}

func TestAvailableActionsCheckOnlyWhileUnopened(t *testing.T) {
	rc := testTable(
		seatedPlayer("alice", 0, 100),
		seatedPlayer("bob", 1, 100),
	)
	rc.PlayerAddress = "alice"
	rc.Street = Flop

	actions := AvailableActions(rc, pendingFlop())
	assert.Contains(t, actions, Check)
	assert.NotContains(t, actions, Call)
	assert.Contains(t, actions, Raise)
	assert.Contains(t, actions, Fold)
	assert.Contains(t, actions, AllIn)
}

func TestAvailableActionsCallAfterBet(t *testing.T) {
	rc := testTable(
		seatedPlayer("alice", 0, 100),
		seatedPlayer("bob", 1, 100),
	)
	rc.PlayerAddress = "alice"
	rc.Street = Flop
	rc.Players[1].TotalBetInRound = 20
	rc.Actions = []SignedPlayerAction{{PlayerAction: PlayerAction{
		PlayerAddress: "bob", RoundID: rc.RoundID, Street: Flop, Action: Raise, Amount: 20,
	}}}

	actions := AvailableActions(rc, pendingFlop())
	assert.NotContains(t, actions, Check)
	assert.Contains(t, actions, Call)
	assert.Contains(t, actions, Raise)
}

func TestAvailableActionsShortStackCannotCall(t *testing.T) {
	rc := testTable(
		seatedPlayer("alice", 0, 10),
		seatedPlayer("bob", 1, 100),
	)
	rc.PlayerAddress = "alice"
	rc.Street = Flop
	rc.Players[1].TotalBetInRound = 50
	rc.Actions = []SignedPlayerAction{{PlayerAction: PlayerAction{
		PlayerAddress: "bob", RoundID: rc.RoundID, Street: Flop, Action: Raise, Amount: 50,
	}}}

	actions := AvailableActions(rc, pendingFlop())
	assert.NotContains(t, actions, Call)
	assert.NotContains(t, actions, Raise)
	assert.Contains(t, actions, Fold)
	assert.Contains(t, actions, AllIn)
}

func TestAvailableActionsSpectator(t *testing.T) {
	rc := testTable(seatedPlayer("alice", 0, 100))
	rc.PlayerAddress = ""

	assert.Nil(t, AvailableActions(rc, pendingFlop()))
}

func TestMinimumRaiseIsDoubleHighestBet(t *testing.T) {
	rc := testTable(
		seatedPlayer("alice", 0, 100),
		seatedPlayer("bob", 1, 100),
	)
	rc.Players[1].TotalBetInRound = 15

	assert.Equal(t, int64(30), MinimumRaise(rc))
}

func TestMaximumBetCappedBySecondStack(t *testing.T) {
	rc := testTable(
		seatedPlayer("alice", 0, 500),
		seatedPlayer("bob", 1, 120),
		seatedPlayer("carol", 2, 80),
	)

	// Alice holds the single biggest stack: anything above bob's 120
	// would be uncallable.
	rc.ActiveSeat = 0
	assert.Equal(t, int64(120), MaximumBet(rc))

	// Bob is covered by alice, so his cap is his own remaining stack.
	rc.ActiveSeat = 1
	rc.Players[1].TotalBetInRound = 20
	assert.Equal(t, int64(100), MaximumBet(rc))
}

func TestPlayersInOrderRotatesToSmallBlind(t *testing.T) {
	alice := seatedPlayer("alice", 0, 100)
	bob := seatedPlayer("bob", 1, 100)
	carol := seatedPlayer("carol", 2, 100)
	carol.IsSmallBlind = true

	// Seated out of order on purpose.
	rc := testTable(bob, carol, alice)

	ordered := PlayersInOrder(rc)
	require.Len(t, ordered, 3)
	assert.Equal(t, "carol", ordered[0].Address)
	assert.Equal(t, "alice", ordered[1].Address)
	assert.Equal(t, "bob", ordered[2].Address)
}

func TestGrandTotalSumsPotsAndBets(t *testing.T) {
	rc := testTable(
		seatedPlayer("alice", 0, 100),
		seatedPlayer("bob", 1, 100),
	)
	rc.Pots = []Pot{{Total: 40}}
	rc.Players[0].TotalBetInRound = 5
	rc.Players[1].TotalBetInRound = 10

	assert.Equal(t, int64(55), GrandTotal(rc))
}

func TestSelfPlayerFallsBackToWaitingList(t *testing.T) {
	rc := testTable(seatedPlayer("alice", 0, 100))
	rc.WaitingPlayers = []Player{seatedPlayer("bob", NoSeat, 200)}

	rc.PlayerAddress = "bob"
	self, ok := SelfPlayer(rc)
	require.True(t, ok)
	assert.Equal(t, "bob", self.Address)

	rc.PlayerAddress = "nobody"
	_, ok = SelfPlayer(rc)
	assert.False(t, ok)
}

func TestShowdownActivePot(t *testing.T) {
	rc := testTable(seatedPlayer("alice", 0, 100))
	rc.Pots = []Pot{{Total: 30}, {Total: 10}}

	pot, ok := ShowdownActivePot(rc)
	require.True(t, ok)
	assert.Equal(t, int64(30), pot.Total, "defaults to the first pot")

	rc.ShowdownPotIndex = 1
	pot, ok = ShowdownActivePot(rc)
	require.True(t, ok)
	assert.Equal(t, int64(10), pot.Total)

	rc.ShowdownPotIndex = 5
	_, ok = ShowdownActivePot(rc)
	assert.False(t, ok)
}
