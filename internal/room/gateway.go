package room

import "context"

// Gateway is the room's only window to the outside world: the chain, the
// relay and the local wallet. Every method is safe to call concurrently.
//
// The long-running methods back the machine's actors. They block until
// the work completes or ctx is cancelled, and may return an event to feed
// back to the machine. A nil event with a nil error means the result will
// arrive later on the Events feed instead.
type Gateway interface {
	// Events is the external event feed. The channel closes when ctx is
	// done or the connection terminates.
	Events(ctx context.Context) <-chan Event

	// PrepareRoom runs the shuffle/deal protocol for a new round.
	PrepareRoom(ctx context.Context, rc RoomContext) (Event, error)

	// RevealOwnHand decrypts the local player's hole cards using the
	// collected reveal tokens.
	RevealOwnHand(ctx context.Context, rc RoomContext) (Event, error)

	// RevealCommunityCards reveals the community cards for a street.
	RevealCommunityCards(ctx context.Context, rc RoomContext, street Street) (Event, error)

	// RevealHand submits the local player's hand for showdown.
	RevealHand(ctx context.Context, rc RoomContext) (Event, error)

	// RefreshRoom fetches fresh room data for the next round.
	RefreshRoom(ctx context.Context, rc RoomContext) (Event, error)

	// SendGameAction signs and submits a betting action.
	SendGameAction(ctx context.Context, action PlayerAction) error

	// JoinRoom takes a seat with the given buy-in.
	JoinRoom(ctx context.Context, seat int, buyIn int64) error

	// LeaveRoom gives up the local player's seat.
	LeaveRoom(ctx context.Context) error

	// SendChatMessage posts to the room chat.
	SendChatMessage(ctx context.Context, text string) error

	// HasChat reports whether the relay supports chat.
	HasChat() bool

	// Terminate tears the connection down.
	Terminate() error
}
