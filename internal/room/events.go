package room

// EventType identifies an event consumed by the room machine.
type EventType string

const (
	EventPlayerJoined           EventType = "player_joined"
	EventPlayerWaiting          EventType = "waiting_player_joined"
	EventPlayerLeft             EventType = "player_left"
	EventNewGameStarted         EventType = "new_game_started"
	EventRoomIsReady            EventType = "room_is_ready"
	EventRoomStateUpdated       EventType = "room_state_updated"
	EventRevealTokenReceived    EventType = "reveal_tokens_received"
	EventOwnCardsRevealed       EventType = "own_cards_revealed"
	EventUserIsSpectator        EventType = "user_is_spectator"
	EventPlayerPerformedAction  EventType = "player_performed_action"
	EventNextPlayerTurn         EventType = "next_player_turn"
	EventEndOfStreet            EventType = "end_of_street"
	EventCommunityCardsRevealed EventType = "community_cards_revealed"
	EventEndOfGame              EventType = "end_of_game"
	EventFinalEvalReceived      EventType = "final_eval_received"
	EventRoomRefreshed          EventType = "room_refreshed"
	EventChatReceived           EventType = "chat_received"
	EventPreparingDone          EventType = "preparing_done"
	EventTimerElapsed           EventType = "timer_elapsed"
)

// Event is anything that can be delivered to the room machine.
type Event interface {
	Type() EventType
}

// ContextPatch applies a partial room update to the context. Patches come
// from the gateway, which knows how the chain encodes room state.
type ContextPatch func(RoomContext) RoomContext

// PlayerJoined announces a player taking a seat. The patch carries the
// refreshed player list (and any other room fields the chain re-sent).
type PlayerJoined struct {
	Patch ContextPatch
}

func (PlayerJoined) Type() EventType { return EventPlayerJoined }

// PlayerWaiting replaces the list of players waiting for the next round.
type PlayerWaiting struct {
	Players []Player
}

func (PlayerWaiting) Type() EventType { return EventPlayerWaiting }

// PlayerLeft announces a player leaving the room.
type PlayerLeft struct {
	Address string
}

func (PlayerLeft) Type() EventType { return EventPlayerLeft }

// NewGameStarted forces the room out of idle into preparation.
type NewGameStarted struct{}

func (NewGameStarted) Type() EventType { return EventNewGameStarted }

// RoomIsReady signals the room preparation (shuffle, deal) is complete.
type RoomIsReady struct {
	Patch ContextPatch
}

func (RoomIsReady) Type() EventType { return EventRoomIsReady }

// RoomStateUpdated patches the context and restarts the current
// preparation actor, if any.
type RoomStateUpdated struct {
	Label string
	Patch ContextPatch
}

func (RoomStateUpdated) Type() EventType { return EventRoomStateUpdated }

// RevealTokenReceived delivers one player's reveal tokens for our hand.
type RevealTokenReceived struct {
	Tokens PlayerRevealTokens
}

func (RevealTokenReceived) Type() EventType { return EventRevealTokenReceived }

// OwnCardsRevealed delivers our decrypted hole cards.
type OwnCardsRevealed struct {
	Cards []Card
}

func (OwnCardsRevealed) Type() EventType { return EventOwnCardsRevealed }

// UserIsSpectator skips the own-hand reveal for non-players.
type UserIsSpectator struct{}

func (UserIsSpectator) Type() EventType { return EventUserIsSpectator }

// PlayerPerformedAction delivers a verified game action from the chain.
type PlayerPerformedAction struct {
	Action SignedPlayerAction
}

func (PlayerPerformedAction) Type() EventType { return EventPlayerPerformedAction }

// NextPlayerTurn moves the turn to the given seat. Raised internally by
// the reducer, never expected from outside.
type NextPlayerTurn struct {
	Seat int
}

func (NextPlayerTurn) Type() EventType { return EventNextPlayerTurn }

// EndOfStreet closes the current betting street.
type EndOfStreet struct{}

func (EndOfStreet) Type() EventType { return EventEndOfStreet }

// CommunityCardsRevealed delivers the community cards for a street.
type CommunityCardsRevealed struct {
	Street Street
	Cards  []Card
}

func (CommunityCardsRevealed) Type() EventType { return EventCommunityCardsRevealed }

// EndOfGame ends the round and moves straight to showdown.
type EndOfGame struct{}

func (EndOfGame) Type() EventType { return EventEndOfGame }

// FinalEvalReceived carries the contract's end-of-round evaluation.
type FinalEvalReceived struct {
	Attributes map[string]string
}

func (FinalEvalReceived) Type() EventType { return EventFinalEvalReceived }

// RoomRefreshed delivers fresh room data for the next round.
type RoomRefreshed struct {
	Fresh RoomContext
}

func (RoomRefreshed) Type() EventType { return EventRoomRefreshed }

// ChatReceived prepends new chat messages.
type ChatReceived struct {
	Messages []ChatMessage
}

func (ChatReceived) Type() EventType { return EventChatReceived }

// PreparingDone clears the bootstrap flag, re-enabling side effects.
type PreparingDone struct{}

func (PreparingDone) Type() EventType { return EventPreparingDone }

// TimerKind identifies a machine timer.
type TimerKind int

const (
	// TimerNewRound is the pause between the end of a round and the restart.
	TimerNewRound TimerKind = iota
)

func (k TimerKind) String() string {
	return [...]string{"new_round"}[k]
}

// TimerElapsed is posted by the supervisor when a machine timer fires.
type TimerElapsed struct {
	Kind TimerKind
}

func (TimerElapsed) Type() EventType { return EventTimerElapsed }
