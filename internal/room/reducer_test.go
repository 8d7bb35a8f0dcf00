package room

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// play emulates the machine's handling of a verified action: append to
// the history, run the reducer, and move the turn when told to.
func play(rc *RoomContext, addr string, action Action, amount int64) Result {
	sa := SignedPlayerAction{PlayerAction: PlayerAction{
		PlayerAddress: addr,
		RoundID:       rc.RoundID,
		Street:        rc.Street,
		Action:        action,
		Amount:        amount,
	}}
	return deliver(rc, sa)
}

func deliver(rc *RoomContext, sa SignedPlayerAction) Result {
	rc.Actions = append(rc.Actions, sa)
	next, res := ApplyAction(*rc, sa)
	*rc = next
	if res.Signal == SignalNextPlayer {
		rc.ActiveSeat = res.NextSeat
	}
	return res
}

func headsUpTable() RoomContext {
	alice := seatedPlayer("alice", 0, 100)
	alice.IsSmallBlind = true
	alice.IsDealer = true
	bob := seatedPlayer("bob", 1, 100)
	bob.IsBigBlind = true

	rc := testTable(alice, bob)
	rc.ActiveSeat = 0
	return rc
}

func TestBlindsThenCallEndsStreet(t *testing.T) {
	rc := headsUpTable()

	res := play(&rc, "alice", SmallBlind, 1)
	require.Equal(t, SignalNextPlayer, res.Signal)
	assert.Equal(t, 1, res.NextSeat)
	assert.Equal(t, int64(1), GrandTotal(rc))

	res = play(&rc, "bob", BigBlind, 2)
	require.Equal(t, SignalNextPlayer, res.Signal)
	assert.Equal(t, 0, res.NextSeat)
	assert.Equal(t, int64(3), GrandTotal(rc))

	res = play(&rc, "alice", Call, 1)
	require.Equal(t, SignalEndOfStreet, res.Signal)
	assert.Equal(t, int64(4), GrandTotal(rc))

	alice, _ := rc.PlayerByAddress("alice")
	bob, _ := rc.PlayerByAddress("bob")
	assert.Equal(t, int64(2), alice.TotalBetInRound)
	assert.Equal(t, int64(2), bob.TotalBetInRound)
}

func TestFoldToOneEndsGame(t *testing.T) {
	rc := testTable(
		seatedPlayer("alice", 0, 100),
		seatedPlayer("bob", 1, 100),
		seatedPlayer("carol", 2, 100),
	)
	rc.ActiveSeat = 0

	res := play(&rc, "alice", Fold, 0)
	require.Equal(t, SignalNextPlayer, res.Signal)
	assert.Equal(t, 1, res.NextSeat)

	res = play(&rc, "bob", Fold, 0)
	require.Equal(t, SignalEndOfGame, res.Signal)
}

func TestDuplicateActionIsNeutralized(t *testing.T) {
	rc := headsUpTable()

	sa := SignedPlayerAction{PlayerAction: PlayerAction{
		PlayerAddress: "alice",
		RoundID:       rc.RoundID,
		Street:        rc.Street,
		Action:        SmallBlind,
		Amount:        1,
	}}

	res := deliver(&rc, sa)
	require.Equal(t, SignalNextPlayer, res.Signal)
	require.Equal(t, 1, rc.ActiveSeat)
	require.Len(t, rc.Actions, 1)

	// Same chain event delivered a second time.
	res = deliver(&rc, sa)
	require.Equal(t, SignalNextPlayer, res.Signal)
	assert.Equal(t, 1, res.NextSeat, "turn re-raised unchanged")
	assert.Len(t, rc.Actions, 1, "duplicate dropped from history")

	alice, _ := rc.PlayerByAddress("alice")
	assert.Equal(t, int64(1), alice.TotalBetInRound, "chips not staked twice")
}

func TestTurnSkipsFoldedAndAllIn(t *testing.T) {
	alice := seatedPlayer("alice", 0, 100)
	bob := seatedPlayer("bob", 1, 100)
	bob.RoundAction = Fold
	carol := seatedPlayer("carol", 2, 100)
	carol.RoundAction = AllIn
	carol.TotalBetInRound = 30
	dave := seatedPlayer("dave", 3, 100)

	rc := testTable(alice, bob, carol, dave)
	rc.ActiveSeat = 0

	res := play(&rc, "alice", Raise, 30)
	require.Equal(t, SignalNextPlayer, res.Signal)
	assert.Equal(t, 3, res.NextSeat)
}

func TestInactivePlayersCountTowardsEndOfGame(t *testing.T) {
	alice := seatedPlayer("alice", 0, 100)
	gone := seatedPlayer("bob", 1, 100)
	gone.IsActive = false

	rc := testTable(alice, gone)
	rc.ActiveSeat = 0

	res := play(&rc, "alice", Check, 0)
	require.Equal(t, SignalEndOfGame, res.Signal)
}

func TestUnknownPlayerIgnored(t *testing.T) {
	rc := headsUpTable()
	before := rc.Players

	res := play(&rc, "mallory", Raise, 50)
	require.Equal(t, SignalIgnored, res.Signal)
	assert.Equal(t, before, rc.Players)
}

func TestTurnExhaustionMidStreet(t *testing.T) {
	// Bob is all-in, carol is sitting out without having acted. After
	// alice acts there is nobody left to hand the turn to.
	table := func(street Street) RoomContext {
		alice := seatedPlayer("alice", 0, 100)
		bob := seatedPlayer("bob", 1, 100)
		bob.RoundAction = AllIn
		bob.TotalBetInRound = 40
		carol := seatedPlayer("carol", 2, 100)
		carol.IsActive = false

		rc := testTable(alice, bob, carol)
		rc.Street = street
		rc.ActiveSeat = 0
		return rc
	}

	t.Run("before the river the street completes", func(t *testing.T) {
		rc := table(Flop)
		res := play(&rc, "alice", Raise, 60)
		require.Equal(t, SignalEndOfStreet, res.Signal)
	})

	t.Run("on the river the game ends", func(t *testing.T) {
		rc := table(River)
		res := play(&rc, "alice", Raise, 60)
		require.Equal(t, SignalEndOfGame, res.Signal)
	})
}

func TestGrandTotalTracksEveryStake(t *testing.T) {
	rc := testTable(
		seatedPlayer("alice", 0, 100),
		seatedPlayer("bob", 1, 100),
		seatedPlayer("carol", 2, 100),
	)
	rc.ActiveSeat = 0

	var staked int64
	for _, step := range []struct {
		addr   string
		action Action
		amount int64
	}{
		{"alice", Raise, 10},
		{"bob", Call, 10},
		{"carol", Raise, 30},
		{"alice", Call, 20},
		{"bob", Fold, 0},
	} {
		if step.action.IsStake() {
			staked += step.amount
		}
		play(&rc, step.addr, step.action, step.amount)
		assert.Equal(t, staked, GrandTotal(rc), "after %s by %s", step.action, step.addr)
	}
}

// The street may only close once every runner has acted. The reducer's
// exhaustion fallback is the one path that could break this, so hammer
// random betting sequences at it.
func TestEndOfStreetImpliesAllRunnersActed(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 250; trial++ {
		rc := testTable(
			seatedPlayer("alice", 0, 100),
			seatedPlayer("bob", 1, 100),
			seatedPlayer("carol", 2, 100),
		)
		rc.Street = Flop
		rc.ActiveSeat = 0

		for step := 0; step < 30; step++ {
			active, ok := ActivePlayer(rc)
			require.True(t, ok)

			owed := HighestBet(rc) - active.TotalBetInRound
			var action Action
			var amount int64
			switch rng.Intn(4) {
			case 0:
				if owed == 0 {
					action = Check
				} else {
					action, amount = Call, owed
				}
			case 1:
				action, amount = Raise, owed+int64(rng.Intn(10)+1)
			case 2:
				action = Fold
			case 3:
				action, amount = AllIn, active.Balance-active.TotalBetInRound
			}

			res := play(&rc, active.Address, action, amount)
			if res.Signal == SignalEndOfStreet {
				require.True(t, AllRunnersActed(rc),
					"trial %d: street closed before all runners acted", trial)
				break
			}
			if res.Signal == SignalEndOfGame {
				break
			}
			require.Equal(t, SignalNextPlayer, res.Signal)
		}
	}
}
