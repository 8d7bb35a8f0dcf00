package room

import "sort"

// Selectors are pure projections over (RoomContext, State). They are used
// by the reducer and the machine internally, and by external consumers on
// supervisor snapshots. None of them mutate the context.

// SelectStreet returns the street the machine is currently betting on,
// or false when no street is active.
func SelectStreet(s State) (Street, bool) {
	switch s.Phase {
	case PhasePreparingStreet, PhaseStreetStart, PhasePendingAction, PhaseProcessingAction:
		return s.Street, true
	}
	return NoStreet, false
}

// InRound reports whether a betting round is in progress.
func InRound(s State) bool {
	_, ok := SelectStreet(s)
	return ok
}

// IsAwaitingAction reports whether the machine is waiting for a player to
// act. The bootstrap procedure polls this before feeding replayed actions.
func IsAwaitingAction(s State) bool {
	return s.Phase == PhasePendingAction
}

// ActivePlayer returns the player whose turn it is.
func ActivePlayer(rc RoomContext) (Player, bool) {
	return rc.PlayerBySeat(rc.ActiveSeat)
}

// SelfPlayer returns the player for the local user, whether seated or
// waiting. False for spectators.
func SelfPlayer(rc RoomContext) (Player, bool) {
	if rc.PlayerAddress == "" {
		return Player{}, false
	}
	if p, ok := rc.PlayerByAddress(rc.PlayerAddress); ok {
		return p, true
	}
	for _, p := range rc.WaitingPlayers {
		if p.Address == rc.PlayerAddress {
			return p, true
		}
	}
	return Player{}, false
}

// HighestBet returns the highest round total any player has committed.
func HighestBet(rc RoomContext) int64 {
	var highest int64
	for _, p := range rc.Players {
		if p.TotalBetInRound > highest {
			highest = p.TotalBetInRound
		}
	}
	return highest
}

// MinimumRaise returns the minimum legal raise target, twice the highest
// committed bet.
func MinimumRaise(rc RoomContext) int64 {
	return HighestBet(rc) * 2
}

// MaximumBet returns the largest useful bet for the active player. When
// the active player holds the single biggest stack, betting more than the
// second-highest balance would be uncallable, so that is the cap.
// Otherwise the cap is the player's remaining stack.
func MaximumBet(rc RoomContext) int64 {
	active, ok := ActivePlayer(rc)
	if !ok {
		return 0
	}

	balances := make([]int64, 0, len(rc.Players))
	for _, p := range rc.Players {
		balances = append(balances, p.Balance)
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i] > balances[j] })

	if len(balances) > 1 && balances[0] == active.Balance {
		return balances[1]
	}
	return active.Balance - active.TotalBetInRound
}

// AvailableActions lists the actions the local user may take right now.
// Amounts are not computed here, only which actions are on the table:
//
//   - Check is offered only while nothing but checks have been played this
//     street (the pre-flop blinds are posted automatically and do not
//     count as voluntary bets for this rule).
//   - Call is offered when there is a last non-fold action to match and
//     the player's remaining balance covers the call amount.
//   - Raise is offered whenever the remaining balance exceeds the call.
//   - Fold and AllIn are always available once a street is active.
func AvailableActions(rc RoomContext, s State) []Action {
	player, ok := rc.PlayerByAddress(rc.PlayerAddress)
	if !ok {
		// Spectator
		return nil
	}

	street, ok := SelectStreet(s)
	if !ok {
		return nil
	}

	remaining := player.Balance - player.TotalBetInRound

	var streetActions []SignedPlayerAction
	for _, a := range rc.Actions {
		if a.RoundID == rc.RoundID && a.Street == street {
			streetActions = append(streetActions, a)
		}
	}

	var lastNonFold *SignedPlayerAction
	for i := len(streetActions) - 1; i >= 0; i-- {
		if streetActions[i].Action != Fold {
			lastNonFold = &streetActions[i]
			break
		}
	}

	onlyChecks := true
	for _, a := range streetActions {
		if a.Action != Check {
			onlyChecks = false
			break
		}
	}

	callAmount := HighestBet(rc) - player.TotalBetInRound

	var actions []Action
	if onlyChecks {
		actions = append(actions, Check)
	} else if lastNonFold != nil && remaining >= callAmount {
		actions = append(actions, Call)
	}
	if remaining > callAmount {
		actions = append(actions, Raise)
	}
	actions = append(actions, Fold, AllIn)

	return actions
}

// PlayersInOrder returns the seated players in canonical turn order:
// sorted by seat index and rotated so the small blind comes first.
func PlayersInOrder(rc RoomContext) []Player {
	ordered := clonePlayers(rc.Players)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].SeatIndex < ordered[j].SeatIndex })

	offset := 0
	for i, p := range ordered {
		if p.IsSmallBlind {
			offset = i
			break
		}
	}

	return append(ordered[offset:], ordered[:offset]...)
}

// GrandTotal returns all chips on the table for this round: collected pots
// plus every player's uncollected round bets.
func GrandTotal(rc RoomContext) int64 {
	var total int64
	for _, pot := range rc.Pots {
		total += pot.Total
	}
	for _, p := range rc.Players {
		total += p.TotalBetInRound
	}
	return total
}

// IsAllInOnTable reports whether any seated player is all-in.
func IsAllInOnTable(rc RoomContext) bool {
	for _, p := range rc.Players {
		if p.RoundAction == AllIn {
			return true
		}
	}
	return false
}

// ShowdownActivePot returns the pot currently being resolved at showdown.
func ShowdownActivePot(rc RoomContext) (Pot, bool) {
	idx := rc.ShowdownPotIndex
	if idx == NoSeat {
		idx = 0
	}
	if idx < 0 || idx >= len(rc.Pots) {
		return Pot{}, false
	}
	return rc.Pots[idx], true
}
