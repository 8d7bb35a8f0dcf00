package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lox/pokerroom/internal/room"
)

const (
	// Time allowed to write a message to the relay
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the relay
	pongWait = 60 * time.Second

	// Send pings with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from the relay
	maxMessageSize = 1 << 20

	helloTimeout = 10 * time.Second
)

var (
	ErrRelayClosed = errors.New("relay connection closed")
)

// Config describes a relay session.
type Config struct {
	URL           string
	RoomID        int64
	ChainID       string
	PlayerAddress string // empty to spectate
	Logger        *log.Logger
}

// Relay is a websocket client for the room relay, implementing
// room.Gateway. The relay verifies chain events, re-broadcasts them to
// the room, and forwards our signed transactions.
//
// The reveal protocol runs server side: the "actor" methods only tell the
// relay what we are waiting for, and the answers come back on the event
// feed. JoinRoom and LeaveRoom are the exceptions, they block on a
// correlated ack because the caller needs to know whether the seat was
// taken.
type Relay struct {
	conn   *websocket.Conn
	logger *log.Logger

	send   chan *Message
	events chan room.Event

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu      sync.Mutex
	pending map[string]chan AckData

	roomID        int64
	playerAddress string
	hasChat       bool

	initial RoomStateData
	history []EventEnvelope
}

// Dial connects to the relay, performs the hello handshake and starts
// the read/write pumps.
func Dial(ctx context.Context, cfg Config) (*Relay, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing relay %s: %w", cfg.URL, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(nil)
	}

	relayCtx, cancel := context.WithCancel(context.Background())
	r := &Relay{
		conn:          conn,
		logger:        logger.WithPrefix("relay"),
		send:          make(chan *Message, 256),
		events:        make(chan room.Event, 256),
		ctx:           relayCtx,
		cancel:        cancel,
		pending:       make(map[string]chan AckData),
		roomID:        cfg.RoomID,
		playerAddress: cfg.PlayerAddress,
	}

	if err := r.hello(cfg); err != nil {
		_ = conn.Close()
		cancel()
		return nil, err
	}

	go r.writePump()
	go r.readPump()

	return r, nil
}

// hello runs the opening handshake synchronously, before the pumps own
// the connection.
func (r *Relay) hello(cfg Config) error {
	msg, err := NewMessage(MessageTypeHello, HelloData{
		RoomID:        cfg.RoomID,
		ChainID:       cfg.ChainID,
		PlayerAddress: cfg.PlayerAddress,
	})
	if err != nil {
		return err
	}

	_ = r.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := r.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("sending hello: %w", err)
	}

	_ = r.conn.SetReadDeadline(time.Now().Add(helloTimeout))
	var response Message
	if err := r.conn.ReadJSON(&response); err != nil {
		return fmt.Errorf("reading hello response: %w", err)
	}
	if response.Type != MessageTypeHelloResponse {
		return fmt.Errorf("expected %s, got %s", MessageTypeHelloResponse, response.Type)
	}

	var data HelloResponseData
	if err := json.Unmarshal(response.Data, &data); err != nil {
		return fmt.Errorf("decoding hello response: %w", err)
	}

	r.hasChat = data.HasChat
	r.initial = data.Room
	r.history = data.History

	r.logger.Info("connected", "room", cfg.RoomID, "chat", data.HasChat, "history", len(data.History))
	return nil
}

// InitialContext builds the room context from the hello snapshot.
func (r *Relay) InitialContext() (room.RoomContext, error) {
	rc, err := r.initial.ToContext(r.roomID)
	if err != nil {
		return room.RoomContext{}, fmt.Errorf("decoding room snapshot: %w", err)
	}
	rc.PlayerAddress = r.playerAddress
	return rc, nil
}

// History decodes the historical events from the hello handshake, in
// the order they happened on chain.
func (r *Relay) History() ([]room.Event, error) {
	events := make([]room.Event, 0, len(r.history))
	for _, env := range r.history {
		ev, err := DecodeEvent(env)
		if err != nil {
			return nil, fmt.Errorf("decoding history: %w", err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// Events implements room.Gateway.
func (r *Relay) Events(ctx context.Context) <-chan room.Event {
	out := make(chan room.Event, 64)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.ctx.Done():
				return
			case ev := <-r.events:
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				case <-r.ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// PrepareRoom implements room.Gateway. The relay coordinates the
// shuffle; progress arrives as room_state_updated events.
func (r *Relay) PrepareRoom(ctx context.Context, rc room.RoomContext) (room.Event, error) {
	return nil, r.post(MessageTypePrepareRoom, struct {
		RoundID int64 `json:"roundId"`
	}{RoundID: rc.RoundID})
}

// RevealOwnHand implements room.Gateway.
func (r *Relay) RevealOwnHand(ctx context.Context, rc room.RoomContext) (room.Event, error) {
	if rc.PlayerAddress == "" {
		return room.UserIsSpectator{}, nil
	}
	return nil, r.post(MessageTypeRevealOwnHand, struct {
		RoundID int64 `json:"roundId"`
	}{RoundID: rc.RoundID})
}

// RevealCommunityCards implements room.Gateway.
func (r *Relay) RevealCommunityCards(ctx context.Context, rc room.RoomContext, street room.Street) (room.Event, error) {
	return nil, r.post(MessageTypeRevealStreet, RevealStreetData{
		RoundID: rc.RoundID,
		Street:  street.String(),
	})
}

// RevealHand implements room.Gateway.
func (r *Relay) RevealHand(ctx context.Context, rc room.RoomContext) (room.Event, error) {
	if rc.PlayerAddress == "" {
		return nil, nil
	}
	return nil, r.post(MessageTypeRevealHand, struct {
		RoundID int64 `json:"roundId"`
	}{RoundID: rc.RoundID})
}

// RefreshRoom implements room.Gateway. The refreshed state comes back as
// a room_refreshed event.
func (r *Relay) RefreshRoom(ctx context.Context, rc room.RoomContext) (room.Event, error) {
	return nil, r.post(MessageTypeRefreshRoom, struct {
		RoomID int64 `json:"roomId"`
	}{RoomID: rc.RoomID})
}

// SendGameAction implements room.Gateway. The relay signs with the
// session key and submits; the verified action comes back on the feed.
func (r *Relay) SendGameAction(ctx context.Context, action room.PlayerAction) error {
	return r.post(MessageTypeGameAction, GameActionData{
		PlayerAddress: action.PlayerAddress,
		RoundID:       action.RoundID,
		Street:        action.Street.String(),
		Action:        action.Action.String(),
		Amount:        action.Amount,
	})
}

// JoinRoom implements room.Gateway.
func (r *Relay) JoinRoom(ctx context.Context, seat int, buyIn int64) error {
	return r.call(ctx, MessageTypeJoinRoom, JoinRoomData{SeatIndex: seat, BuyIn: buyIn})
}

// LeaveRoom implements room.Gateway.
func (r *Relay) LeaveRoom(ctx context.Context) error {
	return r.call(ctx, MessageTypeLeaveRoom, nil)
}

// SendChatMessage implements room.Gateway.
func (r *Relay) SendChatMessage(ctx context.Context, text string) error {
	if !r.hasChat {
		return errors.New("relay does not support chat")
	}
	return r.post(MessageTypeChat, struct {
		Text string `json:"text"`
	}{Text: text})
}

// HasChat implements room.Gateway.
func (r *Relay) HasChat() bool {
	return r.hasChat
}

// Terminate implements room.Gateway.
func (r *Relay) Terminate() error {
	var err error
	r.closeOnce.Do(func() {
		r.cancel()
		err = r.conn.Close()
	})
	return err
}

// post enqueues a fire-and-forget request.
func (r *Relay) post(t MessageType, data interface{}) error {
	msg, err := NewMessage(t, data)
	if err != nil {
		return err
	}
	return r.enqueue(msg)
}

// call sends a correlated request and waits for its ack.
func (r *Relay) call(ctx context.Context, t MessageType, data interface{}) error {
	msg, err := NewMessage(t, data)
	if err != nil {
		return err
	}
	msg.ID = uuid.NewString()

	ack := make(chan AckData, 1)
	r.mu.Lock()
	r.pending[msg.ID] = ack
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.pending, msg.ID)
		r.mu.Unlock()
	}()

	if err := r.enqueue(msg); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ctx.Done():
		return ErrRelayClosed
	case data := <-ack:
		if data.Error != "" {
			return fmt.Errorf("%s rejected: %s", t, data.Error)
		}
		return nil
	}
}

func (r *Relay) enqueue(msg *Message) error {
	select {
	case r.send <- msg:
		return nil
	case <-r.ctx.Done():
		return ErrRelayClosed
	default:
		r.logger.Warn("send buffer full, closing connection")
		_ = r.Terminate()
		return ErrRelayClosed
	}
}

// readPump handles incoming messages from the relay.
func (r *Relay) readPump() {
	defer func() { _ = r.Terminate() }()

	r.conn.SetReadLimit(maxMessageSize)
	_ = r.conn.SetReadDeadline(time.Now().Add(pongWait))
	r.conn.SetPongHandler(func(string) error {
		_ = r.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		var msg Message
		if err := r.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				r.logger.Error("websocket error", "error", err)
			}
			return
		}

		r.handleMessage(&msg)
	}
}

// writePump handles outgoing messages and keepalive pings.
func (r *Relay) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = r.conn.Close()
	}()

	for {
		select {
		case msg := <-r.send:
			_ = r.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := r.conn.WriteJSON(msg); err != nil {
				r.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = r.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := r.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-r.ctx.Done():
			return
		}
	}
}

func (r *Relay) handleMessage(msg *Message) {
	switch msg.Type {
	case MessageTypeAck:
		var data AckData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			r.logger.Error("malformed ack", "error", err)
			return
		}
		r.mu.Lock()
		ack, ok := r.pending[msg.ID]
		r.mu.Unlock()
		if !ok {
			r.logger.Warn("ack for unknown request", "id", msg.ID)
			return
		}
		ack <- data

	case MessageTypeEvent:
		var env EventEnvelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			r.logger.Error("malformed event envelope", "error", err)
			return
		}
		ev, err := DecodeEvent(env)
		if err != nil {
			r.logger.Warn("dropping undecodable event", "event", env.Event, "error", err)
			return
		}
		r.logger.Debug("event", "type", ev.Type())
		select {
		case r.events <- ev:
		case <-r.ctx.Done():
		}

	default:
		r.logger.Warn("unknown message type", "type", msg.Type)
	}
}
