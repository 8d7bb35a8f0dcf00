package room

// Signal is the reducer's verdict on what happens after an action.
type Signal int

const (
	// SignalIgnored means the action was malformed (unknown player) and
	// the context was left untouched.
	SignalIgnored Signal = iota
	// SignalNextPlayer hands the turn to Result.NextSeat.
	SignalNextPlayer
	// SignalEndOfStreet closes the current betting street.
	SignalEndOfStreet
	// SignalEndOfGame ends the round immediately.
	SignalEndOfGame
)

func (s Signal) String() string {
	return [...]string{"ignored", "next_player", "end_of_street", "end_of_game"}[s]
}

// Result is the control signal returned by ApplyAction.
type Result struct {
	Signal   Signal
	NextSeat int
}

// ApplyAction processes the most recent player action, already appended to
// rc.Actions by the machine. It updates the acting player's bets, then
// decides whether the round ends, the street ends, or whose turn is next.
//
// The same logical action delivered twice (same player, round and street)
// is detected and neutralized: the duplicate is dropped from the history
// and the current turn is re-raised unchanged. Duplicate delivery of chain
// events is expected, not an error.
//
// Pure: rc is taken by value and the returned context shares no mutable
// state with the input beyond what is untouched.
func ApplyAction(rc RoomContext, action SignedPlayerAction) (RoomContext, Result) {
	// Guard against double-delivery of the same external event.
	if n := len(rc.Actions); n >= 2 {
		prev := rc.Actions[n-2]
		if prev.PlayerAddress == action.PlayerAddress &&
			prev.RoundID == action.RoundID &&
			prev.Street == action.Street {
			rc.Actions = append([]SignedPlayerAction(nil), rc.Actions[:n-1]...)
			return rc, Result{Signal: SignalNextPlayer, NextSeat: rc.ActiveSeat}
		}
	}

	actingIdx := -1
	for i, p := range rc.Players {
		if p.Address == action.PlayerAddress {
			actingIdx = i
			break
		}
	}
	if actingIdx == -1 {
		// Unknown player, ignore without touching the context.
		return rc, Result{Signal: SignalIgnored}
	}

	players := clonePlayers(rc.Players)
	acting := &players[actingIdx]
	if action.Action.IsStake() {
		acting.BetInStreet += action.Amount
		acting.TotalBetInRound += action.Amount
	}
	acting.RoundAction = action.Action
	rc.Players = players

	// Round is over when a single player remains undecided.
	out := 0
	for _, p := range players {
		if p.RoundAction == Fold || !p.IsActive {
			out++
		}
	}
	if out == len(players)-1 {
		return rc, Result{Signal: SignalEndOfGame}
	}

	// Street is over when every running player (not folded, not all-in)
	// has committed the same round total and everyone has acted.
	var runningTotal int64
	running := 0
	allEqual := true
	for _, p := range players {
		if p.RoundAction == Fold || p.RoundAction == AllIn {
			continue
		}
		if running == 0 {
			runningTotal = p.TotalBetInRound
		} else if p.TotalBetInRound != runningTotal {
			allEqual = false
		}
		running++
	}
	allActed := true
	for _, p := range players {
		if p.RoundAction == NoAction {
			allActed = false
			break
		}
	}
	if running > 0 && allEqual && allActed {
		return rc, Result{Signal: SignalEndOfStreet}
	}

	// Scan clockwise from the active seat for the next player who can
	// still act, skipping the player who just acted and anyone folded,
	// all-in or inactive.
	activeIdx := 0
	for i, p := range players {
		if p.SeatIndex == rc.ActiveSeat {
			activeIdx = i
			break
		}
	}
	for i := 1; i < len(players); i++ {
		cand := players[(activeIdx+i)%len(players)]
		if cand.Address == action.PlayerAddress || !cand.IsActive {
			continue
		}
		if cand.RoundAction == Fold || cand.RoundAction == AllIn {
			continue
		}
		return rc, Result{Signal: SignalNextPlayer, NextSeat: cand.SeatIndex}
	}

	// Nobody left to act mid-street. On the river that is the end of the
	// game, otherwise the street is considered complete.
	if rc.Street == River {
		return rc, Result{Signal: SignalEndOfGame}
	}
	return rc, Result{Signal: SignalEndOfStreet}
}

// AllRunnersActed reports whether every running player has a recorded
// action. EndOfStreet should only ever fire when this holds; a violation
// points at a turn-scan defect and is logged by the supervisor rather
// than silently corrected.
func AllRunnersActed(rc RoomContext) bool {
	for _, p := range rc.Players {
		if !p.IsActive {
			continue
		}
		if p.RoundAction == NoAction {
			return false
		}
	}
	return true
}
