package room

import "time"

// Street represents a betting round of Texas Hold'em
type Street int

const (
	NoStreet Street = iota
	PreFlop
	Flop
	Turn
	River
)

func (s Street) String() string {
	return [...]string{"none", "preflop", "flop", "turn", "river"}[s]
}

// Next returns the street that follows s, or false when s is the river
// (or not a street at all).
func (s Street) Next() (Street, bool) {
	switch s {
	case PreFlop:
		return Flop, true
	case Flop:
		return Turn, true
	case Turn:
		return River, true
	default:
		return NoStreet, false
	}
}

// Action represents a player action. The zero value NoAction means the
// player has not acted yet this street.
type Action int

const (
	NoAction Action = iota
	SmallBlind
	BigBlind
	Check
	Call
	Raise
	Fold
	AllIn
)

func (a Action) String() string {
	return [...]string{"none", "small-blind", "big-blind", "check", "call", "raise", "fold", "all-in"}[a]
}

// IsStake reports whether the action moves chips into the pot.
func (a Action) IsStake() bool {
	switch a {
	case SmallBlind, BigBlind, Call, Raise, AllIn:
		return true
	}
	return false
}

// Card is the display value of a revealed card (e.g. "Ah"). The engine
// never interprets card values, it only threads them through.
type Card string

// PlayerAction is a single action taken by a player during a round.
type PlayerAction struct {
	PlayerAddress string
	RoundID       int64
	Street        Street
	Action        Action
	Amount        int64
}

// SignedPlayerAction is a player action together with the signature the
// chain verified it under. The signature is opaque to the engine.
type SignedPlayerAction struct {
	PlayerAction
	ActionPubKey string
	Signature    string
}

// Player is a seat at the table.
type Player struct {
	Address         string
	Name            string
	SeatIndex       int
	Balance         int64 // stack at the start of the round
	TotalBetInRound int64
	BetInStreet     int64
	RoundAction     Action
	IsActive        bool
	IsDealer        bool
	IsSmallBlind    bool
	IsBigBlind      bool
	OpenCards       []Card
	MaskedCards     []string
}

// Pot holds chips bet on the table. A new pot is split off whenever a
// player goes all-in; winners can only receive from pots they contributed
// to. No split algorithm exists yet, everything is collected into pot 0.
type Pot struct {
	Total        int64
	Winners      []string
	WinningHands [][]Card
}

// PlayerRevealTokens carries the reveal tokens one player published for
// decrypting our own hand. The tokens are opaque cryptographic payloads.
type PlayerRevealTokens struct {
	Sender string
	Tokens []string
}

// CommunityRevealTokens carries the reveal tokens one player published for
// a street's community cards.
type CommunityRevealTokens struct {
	Sender string
	Street Street
	Tokens []string
}

// ShowdownDecision records whether a player mucked or showed at showdown.
type ShowdownDecision struct {
	Sender   string
	Decision string // "muck" or "show"
}

// ChatMessage is a chat message in the room, newest first in context.
type ChatMessage struct {
	ID     string
	Sender string
	Text   string
	SentAt time.Time
}

// NoSeat marks the absence of an active seat.
const NoSeat = -1

// RoomContext is the aggregate state of one table round-session. It is
// owned by the machine that mutates it; everything handed out of the
// supervisor is a Clone.
type RoomContext struct {
	RoomID          int64
	RoundID         int64
	SeatsCount      int
	PlayerAddress   string // empty for spectators
	ContractAddress string

	// True while bootstrap replays history. Side effects are suppressed
	// until PreparingDone clears it.
	IsPreparing bool

	Players        []Player
	WaitingPlayers []Player

	// Seat index of the player whose turn it is, or NoSeat.
	ActiveSeat int

	Actions              []SignedPlayerAction
	PreviousRoundActions []SignedPlayerAction

	CommunityCards []Card

	MinimumEntryBalance int64
	SmallBlind          int64

	// Current street, NoStreet outside a round.
	Street Street

	Pots             []Pot
	ShowdownPotIndex int

	RevealTokens          []PlayerRevealTokens
	ProofOfHands          map[string][][2]string
	CommunityRevealTokens map[Street][]CommunityRevealTokens
	ShowdownDecisions     []ShowdownDecision

	EndGameAttributes map[string]string
	ChatMessages      []ChatMessage
}

// NewRoomContext returns an empty context for the given room.
func NewRoomContext(roomID int64) RoomContext {
	return RoomContext{
		RoomID:                roomID,
		ActiveSeat:            NoSeat,
		ShowdownPotIndex:      NoSeat,
		ProofOfHands:          make(map[string][][2]string),
		CommunityRevealTokens: make(map[Street][]CommunityRevealTokens),
	}
}

// BigBlindAmount returns the table's big blind, always twice the small blind.
func (rc RoomContext) BigBlindAmount() int64 {
	return rc.SmallBlind * 2
}

// PlayerByAddress returns the seated player with the given address.
func (rc RoomContext) PlayerByAddress(addr string) (Player, bool) {
	for _, p := range rc.Players {
		if p.Address == addr {
			return p, true
		}
	}
	return Player{}, false
}

// PlayerBySeat returns the seated player at the given seat index.
func (rc RoomContext) PlayerBySeat(seat int) (Player, bool) {
	if seat == NoSeat {
		return Player{}, false
	}
	for _, p := range rc.Players {
		if p.SeatIndex == seat {
			return p, true
		}
	}
	return Player{}, false
}

// Clone deep-copies the context so callers can hold a snapshot without
// aliasing the machine's mutable state.
func (rc RoomContext) Clone() RoomContext {
	out := rc
	out.Players = clonePlayers(rc.Players)
	out.WaitingPlayers = clonePlayers(rc.WaitingPlayers)
	out.Actions = append([]SignedPlayerAction(nil), rc.Actions...)
	out.PreviousRoundActions = append([]SignedPlayerAction(nil), rc.PreviousRoundActions...)
	out.CommunityCards = append([]Card(nil), rc.CommunityCards...)
	out.ChatMessages = append([]ChatMessage(nil), rc.ChatMessages...)
	out.ShowdownDecisions = append([]ShowdownDecision(nil), rc.ShowdownDecisions...)

	out.Pots = make([]Pot, len(rc.Pots))
	for i, pot := range rc.Pots {
		out.Pots[i] = Pot{
			Total:        pot.Total,
			Winners:      append([]string(nil), pot.Winners...),
			WinningHands: make([][]Card, len(pot.WinningHands)),
		}
		for j, hand := range pot.WinningHands {
			out.Pots[i].WinningHands[j] = append([]Card(nil), hand...)
		}
	}

	out.RevealTokens = make([]PlayerRevealTokens, len(rc.RevealTokens))
	for i, rt := range rc.RevealTokens {
		out.RevealTokens[i] = PlayerRevealTokens{Sender: rt.Sender, Tokens: append([]string(nil), rt.Tokens...)}
	}

	out.ProofOfHands = make(map[string][][2]string, len(rc.ProofOfHands))
	for addr, pairs := range rc.ProofOfHands {
		out.ProofOfHands[addr] = append([][2]string(nil), pairs...)
	}

	out.CommunityRevealTokens = make(map[Street][]CommunityRevealTokens, len(rc.CommunityRevealTokens))
	for street, tokens := range rc.CommunityRevealTokens {
		cloned := make([]CommunityRevealTokens, len(tokens))
		for i, ct := range tokens {
			cloned[i] = CommunityRevealTokens{Sender: ct.Sender, Street: ct.Street, Tokens: append([]string(nil), ct.Tokens...)}
		}
		out.CommunityRevealTokens[street] = cloned
	}

	if rc.EndGameAttributes != nil {
		out.EndGameAttributes = make(map[string]string, len(rc.EndGameAttributes))
		for k, v := range rc.EndGameAttributes {
			out.EndGameAttributes[k] = v
		}
	}

	return out
}

func clonePlayers(players []Player) []Player {
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = p
		out[i].OpenCards = append([]Card(nil), p.OpenCards...)
		out[i].MaskedCards = append([]string(nil), p.MaskedCards...)
	}
	return out
}

// ResetForNextRound builds the context for a fresh round from refreshed
// room data, carrying over the fields that outlive a round: who we are,
// the contract, the chat log, and the previous round's action history.
func ResetForNextRound(current RoomContext, fresh RoomContext) RoomContext {
	out := NewRoomContext(current.RoomID)

	out.RoundID = fresh.RoundID
	out.SeatsCount = fresh.SeatsCount
	out.Players = clonePlayers(fresh.Players)
	out.WaitingPlayers = clonePlayers(fresh.WaitingPlayers)
	out.MinimumEntryBalance = fresh.MinimumEntryBalance
	out.SmallBlind = fresh.SmallBlind
	if out.RoundID == 0 {
		out.RoundID = current.RoundID
	}
	if out.SeatsCount == 0 {
		out.SeatsCount = current.SeatsCount
	}
	if out.SmallBlind == 0 {
		out.SmallBlind = current.SmallBlind
	}

	out.PlayerAddress = current.PlayerAddress
	out.ContractAddress = current.ContractAddress
	out.ChatMessages = append([]ChatMessage(nil), current.ChatMessages...)
	out.PreviousRoundActions = append([]SignedPlayerAction(nil), current.Actions...)

	return out
}
