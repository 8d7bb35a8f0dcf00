package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lox/pokerroom/internal/room"
)

// MessageType discriminates wire messages on the relay connection.
type MessageType string

// Client to relay.
const (
	MessageTypeHello         MessageType = "hello"
	MessageTypePrepareRoom   MessageType = "prepare_room"
	MessageTypeRevealOwnHand MessageType = "reveal_own_hand"
	MessageTypeRevealStreet  MessageType = "reveal_community_cards"
	MessageTypeRevealHand    MessageType = "reveal_hand"
	MessageTypeRefreshRoom   MessageType = "refresh_room"
	MessageTypeGameAction    MessageType = "game_action"
	MessageTypeJoinRoom      MessageType = "join_room"
	MessageTypeLeaveRoom     MessageType = "leave_room"
	MessageTypeChat          MessageType = "chat"
)

// Relay to client.
const (
	MessageTypeHelloResponse MessageType = "hello_response"
	MessageTypeAck           MessageType = "ack"
	MessageTypeEvent         MessageType = "event"
)

func (t MessageType) String() string { return string(t) }

// Message is the wire envelope. ID is set on correlated requests and
// echoed back on the matching ack.
type Message struct {
	Type MessageType     `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a message with marshaled data.
func NewMessage(t MessageType, data interface{}) (*Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s data: %w", t, err)
	}
	return &Message{Type: t, Data: raw}, nil
}

// HelloData opens the session: which room we watch and who we are.
type HelloData struct {
	RoomID        int64  `json:"roomId"`
	ChainID       string `json:"chainId"`
	PlayerAddress string `json:"playerAddress,omitempty"`
}

// HelloResponseData carries relay capabilities and the room's current
// on-chain state plus the historical events needed to catch up.
type HelloResponseData struct {
	HasChat bool            `json:"hasChat"`
	Room    RoomStateData   `json:"room"`
	History []EventEnvelope `json:"history"`
}

// AckData resolves a correlated request.
type AckData struct {
	Error string `json:"error,omitempty"`
}

// EventEnvelope is one room event on the feed.
type EventEnvelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EventType names a room event on the wire. The values match the event
// names the contract emits.
type EventType string

const (
	EventPlayerJoined    EventType = "player_joined"
	EventPlayerWaiting   EventType = "waiting_player_joined"
	EventPlayerLeft      EventType = "player_left"
	EventNewGameStarted  EventType = "new_game_started"
	EventRoomIsReady     EventType = "room_is_ready"
	EventRoomUpdated     EventType = "room_state_updated"
	EventRevealTokens    EventType = "reveal_tokens_received"
	EventOwnCards        EventType = "own_cards_revealed"
	EventSpectator       EventType = "user_is_spectator"
	EventPlayerAction    EventType = "player_performed_action"
	EventCommunityCards  EventType = "community_cards_revealed"
	EventFinalEval       EventType = "final_eval_received"
	EventRoomRefreshed   EventType = "room_refreshed"
	EventChat            EventType = "chat_received"
)

// PlayerData is a seat on the wire.
type PlayerData struct {
	Address         string   `json:"address"`
	Name            string   `json:"name"`
	SeatIndex       int      `json:"seatIndex"`
	Balance         int64    `json:"balance"`
	TotalBetInRound int64    `json:"totalBetInRound"`
	BetInStreet     int64    `json:"betInStreet"`
	RoundAction     string   `json:"roundAction,omitempty"`
	IsActive        bool     `json:"isActive"`
	IsDealer        bool     `json:"isDealer"`
	IsSmallBlind    bool     `json:"isSmallBlind"`
	IsBigBlind      bool     `json:"isBigBlind"`
	OpenCards       []string `json:"openCards,omitempty"`
	MaskedCards     []string `json:"maskedCards,omitempty"`
}

// PotData is a pot on the wire.
type PotData struct {
	Total        int64      `json:"total"`
	Winners      []string   `json:"winners,omitempty"`
	WinningHands [][]string `json:"winningHands,omitempty"`
}

// RoomStateData is a partial room snapshot. Absent fields leave the
// corresponding context fields untouched when applied as a patch.
type RoomStateData struct {
	RoundID             *int64       `json:"roundId,omitempty"`
	SeatsCount          *int         `json:"seatsCount,omitempty"`
	SmallBlind          *int64       `json:"smallBlind,omitempty"`
	MinimumEntryBalance *int64       `json:"minimumEntryBalance,omitempty"`
	ActiveSeat          *int         `json:"activeSeat,omitempty"`
	ContractAddress     *string      `json:"contractAddress,omitempty"`
	Players             []PlayerData `json:"players,omitempty"`
	WaitingPlayers      []PlayerData `json:"waitingPlayers,omitempty"`
	Pots                []PotData    `json:"pots,omitempty"`
	CommunityCards      []string     `json:"communityCards,omitempty"`
	Label               string       `json:"label,omitempty"`
}

// GameActionData is a betting action heading to the chain, or arriving
// verified from it.
type GameActionData struct {
	PlayerAddress string `json:"playerAddress"`
	RoundID       int64  `json:"roundId"`
	Street        string `json:"street"`
	Action        string `json:"action"`
	Amount        int64  `json:"amount"`
	ActionPubKey  string `json:"actionPubKey,omitempty"`
	Signature     string `json:"signature,omitempty"`
}

// RevealTokensData carries one sender's reveal tokens.
type RevealTokensData struct {
	Sender string   `json:"sender"`
	Tokens []string `json:"tokens"`
}

// CardsData carries revealed cards, with the street for community cards.
type CardsData struct {
	Street string   `json:"street,omitempty"`
	Cards  []string `json:"cards"`
}

// FinalEvalData carries the contract's end-of-round attributes.
type FinalEvalData struct {
	Attributes map[string]string `json:"attributes"`
}

// ChatMessageData is one chat message on the wire.
type ChatMessageData struct {
	ID     string    `json:"id"`
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sentAt"`
}

// ChatData carries a batch of chat messages, newest first.
type ChatData struct {
	Messages []ChatMessageData `json:"messages"`
}

// JoinRoomData requests a seat.
type JoinRoomData struct {
	SeatIndex int   `json:"seatIndex"`
	BuyIn     int64 `json:"buyIn"`
}

// RevealStreetData names the street whose community cards we want.
type RevealStreetData struct {
	RoundID int64  `json:"roundId"`
	Street  string `json:"street"`
}

var streetNames = map[string]room.Street{
	"preflop": room.PreFlop,
	"flop":    room.Flop,
	"turn":    room.Turn,
	"river":   room.River,
}

var actionNames = map[string]room.Action{
	"small-blind": room.SmallBlind,
	"big-blind":   room.BigBlind,
	"check":       room.Check,
	"call":        room.Call,
	"raise":       room.Raise,
	"fold":        room.Fold,
	"all-in":      room.AllIn,
}

func parseStreet(name string) (room.Street, error) {
	if s, ok := streetNames[name]; ok {
		return s, nil
	}
	return room.NoStreet, fmt.Errorf("unknown street %q", name)
}

func parseAction(name string) (room.Action, error) {
	if a, ok := actionNames[name]; ok {
		return a, nil
	}
	return room.NoAction, fmt.Errorf("unknown action %q", name)
}

func toCards(cards []string) []room.Card {
	out := make([]room.Card, len(cards))
	for i, c := range cards {
		out[i] = room.Card(c)
	}
	return out
}

func (d PlayerData) toPlayer() (room.Player, error) {
	p := room.Player{
		Address:         d.Address,
		Name:            d.Name,
		SeatIndex:       d.SeatIndex,
		Balance:         d.Balance,
		TotalBetInRound: d.TotalBetInRound,
		BetInStreet:     d.BetInStreet,
		IsActive:        d.IsActive,
		IsDealer:        d.IsDealer,
		IsSmallBlind:    d.IsSmallBlind,
		IsBigBlind:      d.IsBigBlind,
		OpenCards:       toCards(d.OpenCards),
		MaskedCards:     append([]string(nil), d.MaskedCards...),
	}
	if d.RoundAction != "" {
		action, err := parseAction(d.RoundAction)
		if err != nil {
			return room.Player{}, err
		}
		p.RoundAction = action
	}
	return p, nil
}

func toPlayers(data []PlayerData) ([]room.Player, error) {
	players := make([]room.Player, len(data))
	for i, d := range data {
		p, err := d.toPlayer()
		if err != nil {
			return nil, err
		}
		players[i] = p
	}
	return players, nil
}

// Patch builds the context patch that applies this partial snapshot.
func (d RoomStateData) Patch() (room.ContextPatch, error) {
	players, err := toPlayers(d.Players)
	if err != nil {
		return nil, err
	}
	waiting, err := toPlayers(d.WaitingPlayers)
	if err != nil {
		return nil, err
	}

	return func(rc room.RoomContext) room.RoomContext {
		if d.RoundID != nil {
			rc.RoundID = *d.RoundID
		}
		if d.SeatsCount != nil {
			rc.SeatsCount = *d.SeatsCount
		}
		if d.SmallBlind != nil {
			rc.SmallBlind = *d.SmallBlind
		}
		if d.MinimumEntryBalance != nil {
			rc.MinimumEntryBalance = *d.MinimumEntryBalance
		}
		if d.ActiveSeat != nil {
			rc.ActiveSeat = *d.ActiveSeat
		}
		if d.ContractAddress != nil {
			rc.ContractAddress = *d.ContractAddress
		}
		if d.Players != nil {
			rc.Players = players
		}
		if d.WaitingPlayers != nil {
			rc.WaitingPlayers = waiting
		}
		if d.Pots != nil {
			pots := make([]room.Pot, len(d.Pots))
			for i, pd := range d.Pots {
				pot := room.Pot{Total: pd.Total, Winners: append([]string(nil), pd.Winners...)}
				for _, hand := range pd.WinningHands {
					pot.WinningHands = append(pot.WinningHands, toCards(hand))
				}
				pots[i] = pot
			}
			rc.Pots = pots
		}
		if d.CommunityCards != nil {
			rc.CommunityCards = toCards(d.CommunityCards)
		}
		return rc
	}, nil
}

// ToContext builds a full context from a snapshot, for the initial state
// and for room refreshes.
func (d RoomStateData) ToContext(roomID int64) (room.RoomContext, error) {
	rc := room.NewRoomContext(roomID)
	patch, err := d.Patch()
	if err != nil {
		return room.RoomContext{}, err
	}
	return patch(rc), nil
}

// DecodeEvent turns a wire event into a room event.
func DecodeEvent(env EventEnvelope) (room.Event, error) {
	switch env.Event {
	case EventPlayerJoined:
		var data RoomStateData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", env.Event, err)
		}
		patch, err := data.Patch()
		if err != nil {
			return nil, err
		}
		return room.PlayerJoined{Patch: patch}, nil

	case EventPlayerWaiting:
		var data RoomStateData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", env.Event, err)
		}
		players, err := toPlayers(data.WaitingPlayers)
		if err != nil {
			return nil, err
		}
		return room.PlayerWaiting{Players: players}, nil

	case EventPlayerLeft:
		var data struct {
			Address string `json:"address"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", env.Event, err)
		}
		return room.PlayerLeft{Address: data.Address}, nil

	case EventNewGameStarted:
		return room.NewGameStarted{}, nil

	case EventRoomIsReady:
		var data RoomStateData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", env.Event, err)
		}
		patch, err := data.Patch()
		if err != nil {
			return nil, err
		}
		return room.RoomIsReady{Patch: patch}, nil

	case EventRoomUpdated:
		var data RoomStateData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", env.Event, err)
		}
		patch, err := data.Patch()
		if err != nil {
			return nil, err
		}
		return room.RoomStateUpdated{Label: data.Label, Patch: patch}, nil

	case EventRevealTokens:
		var data RevealTokensData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", env.Event, err)
		}
		return room.RevealTokenReceived{Tokens: room.PlayerRevealTokens{
			Sender: data.Sender,
			Tokens: data.Tokens,
		}}, nil

	case EventOwnCards:
		var data CardsData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", env.Event, err)
		}
		return room.OwnCardsRevealed{Cards: toCards(data.Cards)}, nil

	case EventSpectator:
		return room.UserIsSpectator{}, nil

	case EventPlayerAction:
		var data GameActionData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", env.Event, err)
		}
		street, err := parseStreet(data.Street)
		if err != nil {
			return nil, err
		}
		action, err := parseAction(data.Action)
		if err != nil {
			return nil, err
		}
		return room.PlayerPerformedAction{Action: room.SignedPlayerAction{
			PlayerAction: room.PlayerAction{
				PlayerAddress: data.PlayerAddress,
				RoundID:       data.RoundID,
				Street:        street,
				Action:        action,
				Amount:        data.Amount,
			},
			ActionPubKey: data.ActionPubKey,
			Signature:    data.Signature,
		}}, nil

	case EventCommunityCards:
		var data CardsData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", env.Event, err)
		}
		street, err := parseStreet(data.Street)
		if err != nil {
			return nil, err
		}
		return room.CommunityCardsRevealed{Street: street, Cards: toCards(data.Cards)}, nil

	case EventFinalEval:
		var data FinalEvalData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", env.Event, err)
		}
		return room.FinalEvalReceived{Attributes: data.Attributes}, nil

	case EventRoomRefreshed:
		var data RoomStateData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", env.Event, err)
		}
		// RoomID is carried by the current context, not the wire.
		fresh, err := data.ToContext(0)
		if err != nil {
			return nil, err
		}
		return room.RoomRefreshed{Fresh: fresh}, nil

	case EventChat:
		var data ChatData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", env.Event, err)
		}
		messages := make([]room.ChatMessage, len(data.Messages))
		for i, m := range data.Messages {
			messages[i] = room.ChatMessage{ID: m.ID, Sender: m.Sender, Text: m.Text, SentAt: m.SentAt}
		}
		return room.ChatReceived{Messages: messages}, nil
	}

	return nil, fmt.Errorf("unknown event %q", env.Event)
}
