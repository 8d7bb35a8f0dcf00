package room

// ValidateAction checks whether the given action can be performed and
// returns the action that should actually be played. The returned action
// may differ from the input: a call or raise the player cannot cover is
// coerced into an all-in for their remaining balance rather than rejected.
//
// Returns false when the action is not legal at all: the player is not
// seated, or is trying to stake chips with nothing behind.
//
// Pure and idempotent; safe to call repeatedly with the same input.
func ValidateAction(rc RoomContext, action PlayerAction) (PlayerAction, bool) {
	player, ok := rc.PlayerByAddress(action.PlayerAddress)
	if !ok {
		return PlayerAction{}, false
	}

	if action.Action.IsStake() && action.Action != SmallBlind && action.Action != BigBlind {
		if player.Balance <= 0 {
			return PlayerAction{}, false
		}
	}

	// A bet the player cannot cover (or that takes their exact balance)
	// becomes an all-in for everything they have.
	if (action.Action == Raise || action.Action == Call) && player.Balance <= action.Amount {
		coerced := action
		coerced.Action = AllIn
		coerced.Amount = player.Balance
		return coerced, true
	}

	return action, true
}
