package room

// Phase is the flattened lifecycle state of the room machine.
type Phase int

const (
	// PhaseIdle waits for enough players to join.
	PhaseIdle Phase = iota
	// PhasePreparingRoom shuffles and deals via the chain.
	PhasePreparingRoom
	// PhaseRevealingOwnCards decrypts the local player's hand.
	PhaseRevealingOwnCards
	// PhaseReady is a transient phase finalizing round preparation.
	PhaseReady
	// PhasePreparingStreet reveals the street's community cards.
	PhasePreparingStreet
	// PhaseStreetStart is a transient phase picking the first to act.
	PhaseStreetStart
	// PhasePendingAction waits for the active player.
	PhasePendingAction
	// PhaseProcessingAction runs the reducer over the latest action.
	PhaseProcessingAction
	// PhaseShowdown reveals hands and waits for the final evaluation.
	PhaseShowdown
	// PhaseEndRound displays results until the new-round timer fires.
	PhaseEndRound
	// PhaseRestarting refreshes room data for the next round.
	PhaseRestarting
)

func (p Phase) String() string {
	return [...]string{
		"idle", "preparing_room", "revealing_own_cards", "ready",
		"preparing_street", "street_start", "pending_action",
		"processing_action", "showdown", "end_round", "restarting",
	}[p]
}

// State is the machine's full position: the phase plus, during a street,
// which street is being bet.
type State struct {
	Phase  Phase
	Street Street
}

func (s State) String() string {
	if street, ok := SelectStreet(s); ok {
		return street.String() + "/" + s.Phase.String()
	}
	return s.Phase.String()
}

// ActorKind identifies an asynchronous task invoked at a state boundary.
// Actors are run by the supervisor, never by the machine itself.
type ActorKind int

const (
	ActorPrepareRoom ActorKind = iota
	ActorRevealOwnHand
	ActorPreFlopAutoActions
	ActorRevealCommunityCards
	ActorRevealHand
	ActorRefreshRoom
)

func (k ActorKind) String() string {
	return [...]string{
		"prepare_room", "reveal_own_hand", "preflop_auto_actions",
		"reveal_community_cards", "reveal_hand", "refresh_room",
	}[k]
}

// Effect describes a side effect requested by a transition. Transitions
// are pure; effects are interpreted by the supervisor.
type Effect interface {
	isEffect()
}

// InvokeActor starts (or restarts) the asynchronous task for the new
// phase, cancelling whatever actor was running before.
type InvokeActor struct {
	Kind ActorKind
}

func (InvokeActor) isEffect() {}

// StartTimer arms a machine timer; when it fires the supervisor posts a
// TimerElapsed event.
type StartTimer struct {
	Kind TimerKind
}

func (StartTimer) isEffect() {}

// RaiseEvent re-dispatches an event to the machine ahead of anything
// waiting in the external mailbox.
type RaiseEvent struct {
	Event Event
}

func (RaiseEvent) isEffect() {}

// Start computes the machine's initial position for a fresh context.
func Start(rc RoomContext) (State, RoomContext, []Effect) {
	return enterIdle(rc)
}

// EntryEffects returns the effects that re-arm a restored state: the
// phase's actor invocation or timer. Used when a machine is constructed
// from a replayed snapshot rather than by walking transitions.
func EntryEffects(s State) []Effect {
	switch s.Phase {
	case PhasePreparingRoom:
		return []Effect{InvokeActor{Kind: ActorPrepareRoom}}
	case PhaseRevealingOwnCards:
		return []Effect{InvokeActor{Kind: ActorRevealOwnHand}}
	case PhasePreparingStreet:
		return []Effect{InvokeActor{Kind: ActorRevealCommunityCards}}
	case PhasePendingAction:
		if s.Street == PreFlop {
			return []Effect{InvokeActor{Kind: ActorPreFlopAutoActions}}
		}
	case PhaseShowdown:
		return []Effect{InvokeActor{Kind: ActorRevealHand}}
	case PhaseEndRound:
		return []Effect{StartTimer{Kind: TimerNewRound}}
	case PhaseRestarting:
		return []Effect{InvokeActor{Kind: ActorRefreshRoom}}
	}
	return nil
}

// Transition applies one event to the machine. It is a pure function:
// all mutation happens on the value copies, side effects are returned as
// descriptions. Events that have no handler in the current phase are
// dropped without touching the context.
func Transition(s State, rc RoomContext, ev Event) (State, RoomContext, []Effect) {
	// Handlers active in every phase.
	switch e := ev.(type) {
	case PlayerWaiting:
		rc.WaitingPlayers = clonePlayers(e.Players)
		return s, rc, nil

	case PlayerLeft:
		players := make([]Player, 0, len(rc.Players))
		for _, p := range rc.Players {
			if p.Address != e.Address {
				players = append(players, p)
			}
		}
		rc.Players = players
		return s, rc, nil

	case ChatReceived:
		messages := append([]ChatMessage(nil), e.Messages...)
		rc.ChatMessages = append(messages, rc.ChatMessages...)
		return s, rc, nil

	case RevealTokenReceived:
		// One entry per sender; a re-send replaces the original.
		tokens := make([]PlayerRevealTokens, 0, len(rc.RevealTokens)+1)
		for _, rt := range rc.RevealTokens {
			if rt.Sender != e.Tokens.Sender {
				tokens = append(tokens, rt)
			}
		}
		rc.RevealTokens = append(tokens, e.Tokens)
		return s, rc, nil

	case PreparingDone:
		rc.IsPreparing = false
		return s, rc, nil

	case TimerElapsed:
		if s.Phase == PhaseEndRound && e.Kind == TimerNewRound {
			return enterRestarting(rc)
		}
		return s, rc, nil
	}

	switch s.Phase {
	case PhaseIdle:
		switch e := ev.(type) {
		case PlayerJoined:
			if e.Patch != nil {
				rc = e.Patch(rc)
			}
			return enterIdle(rc)
		case NewGameStarted:
			return enterPreparingRoom(rc)
		}

	case PhasePreparingRoom:
		switch e := ev.(type) {
		case RoomStateUpdated:
			rc = e.Patch(rc)
			return enterPreparingRoom(rc)
		case RoomIsReady:
			if e.Patch != nil {
				rc = e.Patch(rc)
			}
			return enterRevealingOwnCards(rc)
		}

	case PhaseRevealingOwnCards:
		switch e := ev.(type) {
		case RoomStateUpdated:
			rc = e.Patch(rc)
			return enterRevealingOwnCards(rc)
		case OwnCardsRevealed:
			players := clonePlayers(rc.Players)
			for i := range players {
				if players[i].Address == rc.PlayerAddress {
					players[i].OpenCards = append([]Card(nil), e.Cards...)
				}
			}
			rc.Players = players
			return enterReady(rc)
		case UserIsSpectator:
			return enterReady(rc)
		}

	case PhasePendingAction:
		if e, ok := ev.(PlayerPerformedAction); ok {
			return processAction(s, rc, e.Action)
		}

	case PhaseProcessingAction:
		switch e := ev.(type) {
		case NextPlayerTurn:
			rc.ActiveSeat = e.Seat
			return enterPendingAction(s.Street, rc)
		case EndOfStreet:
			next, ok := s.Street.Next()
			if !ok {
				return enterShowdown(rc)
			}
			return enterStreet(next, rc)
		case EndOfGame:
			return enterShowdown(rc)
		}

	case PhasePreparingStreet:
		switch e := ev.(type) {
		case RoomStateUpdated:
			rc = e.Patch(rc)
			return enterPreparingStreetKeep(s, rc)
		case CommunityCardsRevealed:
			rc.CommunityCards = append(append([]Card(nil), rc.CommunityCards...), e.Cards...)
			return enterStreetStart(s.Street, rc)
		}

	case PhaseShowdown:
		switch e := ev.(type) {
		case RoomStateUpdated:
			rc = e.Patch(rc)
			return enterShowdown(rc)
		case FinalEvalReceived:
			attrs := make(map[string]string, len(e.Attributes))
			for k, v := range e.Attributes {
				attrs[k] = v
			}
			rc.EndGameAttributes = attrs
			return enterEndRound(rc)
		}

	case PhaseRestarting:
		if e, ok := ev.(RoomRefreshed); ok {
			rc = ResetForNextRound(rc, e.Fresh)
			return enterIdle(rc)
		}
	}

	return s, rc, nil
}

// enterIdle settles into idle, immediately advancing to room preparation
// when enough players are already seated.
func enterIdle(rc RoomContext) (State, RoomContext, []Effect) {
	if len(rc.Players) >= 2 {
		return enterPreparingRoom(rc)
	}
	return State{Phase: PhaseIdle}, rc, nil
}

func enterPreparingRoom(rc RoomContext) (State, RoomContext, []Effect) {
	return State{Phase: PhasePreparingRoom}, rc, []Effect{InvokeActor{Kind: ActorPrepareRoom}}
}

func enterRevealingOwnCards(rc RoomContext) (State, RoomContext, []Effect) {
	return State{Phase: PhaseRevealingOwnCards}, rc, []Effect{InvokeActor{Kind: ActorRevealOwnHand}}
}

// enterReady finalizes round preparation by giving the first turn to the
// small blind, then advances straight into pre-flop.
func enterReady(rc RoomContext) (State, RoomContext, []Effect) {
	for _, p := range rc.Players {
		if p.IsSmallBlind {
			rc.ActiveSeat = p.SeatIndex
			break
		}
	}
	rc.Street = PreFlop
	return enterPendingAction(PreFlop, rc)
}

// enterPendingAction waits for the active player. Pre-flop additionally
// arms the blind auto-posting policy.
func enterPendingAction(street Street, rc RoomContext) (State, RoomContext, []Effect) {
	s := State{Phase: PhasePendingAction, Street: street}
	if street == PreFlop {
		return s, rc, []Effect{InvokeActor{Kind: ActorPreFlopAutoActions}}
	}
	return s, rc, nil
}

// processAction records the action, runs the reducer over it, and moves
// to the processing phase with the reducer's verdict re-raised as an
// internal event. A malformed action is dropped without leaving the
// pending phase.
func processAction(s State, rc RoomContext, action SignedPlayerAction) (State, RoomContext, []Effect) {
	withAction := rc
	withAction.Actions = append(append([]SignedPlayerAction(nil), rc.Actions...), action)

	next := State{Phase: PhaseProcessingAction, Street: s.Street}

	applied, res := ApplyAction(withAction, action)
	switch res.Signal {
	case SignalNextPlayer:
		return next, applied, []Effect{RaiseEvent{Event: NextPlayerTurn{Seat: res.NextSeat}}}
	case SignalEndOfStreet:
		return next, applied, []Effect{RaiseEvent{Event: EndOfStreet{}}}
	case SignalEndOfGame:
		return next, applied, []Effect{RaiseEvent{Event: EndOfGame{}}}
	default:
		return s, rc, nil
	}
}

// enterStreet begins a community-card street: previous street actions are
// cleared (folds and all-ins persist for the round) and the street's
// reveal actor starts.
func enterStreet(street Street, rc RoomContext) (State, RoomContext, []Effect) {
	rc.Street = street

	players := clonePlayers(rc.Players)
	for i := range players {
		if players[i].RoundAction != Fold && players[i].RoundAction != AllIn {
			players[i].RoundAction = NoAction
		}
		players[i].BetInStreet = 0
	}
	rc.Players = players

	return State{Phase: PhasePreparingStreet, Street: street}, rc,
		[]Effect{InvokeActor{Kind: ActorRevealCommunityCards}}
}

// enterPreparingStreetKeep re-enters the current preparing street after a
// state patch, restarting the reveal actor without resetting actions.
func enterPreparingStreetKeep(s State, rc RoomContext) (State, RoomContext, []Effect) {
	return State{Phase: PhasePreparingStreet, Street: s.Street}, rc,
		[]Effect{InvokeActor{Kind: ActorRevealCommunityCards}}
}

// enterStreetStart picks the first player to act: the first player after
// the dealer in canonical order. This is usually the small blind, unless
// the small blind is also the dealer (heads-up), in which case the big
// blind acts first.
func enterStreetStart(street Street, rc RoomContext) (State, RoomContext, []Effect) {
	ordered := PlayersInOrder(rc)
	if len(ordered) > 0 {
		first := ordered[0]
		if first.IsDealer && len(ordered) > 1 {
			first = ordered[1]
		}
		rc.ActiveSeat = first.SeatIndex
	}
	return enterPendingAction(street, rc)
}

func enterShowdown(rc RoomContext) (State, RoomContext, []Effect) {
	return State{Phase: PhaseShowdown}, rc, []Effect{InvokeActor{Kind: ActorRevealHand}}
}

func enterEndRound(rc RoomContext) (State, RoomContext, []Effect) {
	return State{Phase: PhaseEndRound}, rc, []Effect{StartTimer{Kind: TimerNewRound}}
}

func enterRestarting(rc RoomContext) (State, RoomContext, []Effect) {
	return State{Phase: PhaseRestarting}, rc, []Effect{InvokeActor{Kind: ActorRefreshRoom}}
}
