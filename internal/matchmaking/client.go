package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/verte-zerg/codeduel/internal/model"
)

var (
	ErrInvalidState    = errors.New("operation not allowed in current state")
	ErrBusy            = errors.New("a matchmaking request is already pending")
	ErrCannotCancel    = errors.New("match already found")
	ErrIncompleteMatch = errors.New("match is missing room or problem id")
	ErrNotConnected    = errors.New("not connected")
	ErrClosed          = errors.New("client closed")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrRateLimited     = errors.New("sending messages too fast")
	ErrInvalidMode     = errors.New("mode must be ranked or casual")
	ErrNoIdentity      = errors.New("user id unknown")
)

// Chat flood guard: one message per 500ms with a burst of three.
const (
	chatInterval = 500 * time.Millisecond
	chatBurst    = 3
)

// Identity supplies who the client plays as.
type Identity interface {
	Token() string
	UserID() string
	Username() string
}

type request int

const (
	requestNone request = iota
	requestQueue
	requestCreateLobby
	requestJoinLobby
)

// Client drives one realtime connection through the duel lifecycle.
type Client struct {
	url    string
	dialer Dialer
	self   Identity
	log    *zap.Logger

	mu      sync.Mutex
	state   State
	conn    Conn
	pending request
	lobby   string
	match   *model.MatchFound
	over    *MatchOver
	closed  bool

	writeMu sync.Mutex
	chat    *rate.Limiter
	box     *mailbox
}

// New builds a disconnected client.
func New(url string, dialer Dialer, self Identity, log *zap.Logger) *Client {
	if dialer == nil {
		dialer = WebSocketDialer{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		url:    url,
		dialer: dialer,
		self:   self,
		log:    log,
		chat:   rate.NewLimiter(rate.Every(chatInterval), chatBurst),
		box:    newMailbox(),
	}
}

// Events delivers server and lifecycle events in arrival order.
// The channel is closed by Close.
func (c *Client) Events() <-chan Event {
	return c.box.out
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Match returns the current match, if any.
func (c *Client) Match() (model.MatchFound, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.match == nil {
		return model.MatchFound{}, false
	}
	return *c.match, true
}

// Outcome returns the match_over payload of a finished match.
func (c *Client) Outcome() (MatchOver, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.over == nil {
		return MatchOver{}, false
	}
	return *c.over, true
}

// LobbyID returns the private room created by this client, if any.
func (c *Client) LobbyID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lobby
}

// Connect dials the server and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.setState(StateConnecting)
	c.mu.Unlock()

	header := http.Header{}
	if tok := c.self.Token(); tok != "" {
		header.Set("Authorization", "Bearer "+tok)
	}
	conn, err := c.dialer.Dial(ctx, c.url, header)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.setState(StateDisconnected)
		c.log.Warn("connect failed", zap.String("url", c.url), zap.Error(err))
		return err
	}
	if c.closed {
		if cerr := conn.Close(); cerr != nil {
			// Best-effort close after shutdown.
			_ = cerr
		}
		return ErrClosed
	}
	c.conn = conn
	c.setState(StateIdle)
	c.log.Info("connected", zap.String("url", c.url))
	go c.readLoop(conn)
	return nil
}

// FindMatch queues for a ranked or casual duel.
func (c *Client) FindMatch(mode, language string) error {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode != model.ModeRanked && mode != model.ModeCasual {
		return ErrInvalidMode
	}
	return c.request(requestQueue, func(uid string) Intent {
		return FindMatch{UserAuthID: uid, Mode: mode, Language: language}
	})
}

// CreatePrivateLobby asks the server for a shareable room.
func (c *Client) CreatePrivateLobby() error {
	return c.request(requestCreateLobby, func(uid string) Intent {
		return CreatePrivateLobby{UserAuthID: uid}
	})
}

// JoinPrivateLobby joins a room shared by another player.
func (c *Client) JoinPrivateLobby(roomID string) error {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return fmt.Errorf("room id: %w", ErrIncompleteMatch)
	}
	return c.request(requestJoinLobby, func(uid string) Intent {
		return JoinPrivateLobby{RoomID: roomID, UserAuthID: uid}
	})
}

func (c *Client) request(kind request, build func(uid string) Intent) error {
	uid := c.self.UserID()
	if uid == "" {
		return ErrNoIdentity
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateIdle:
	case StateSearching:
		return ErrBusy
	case StateDisconnected, StateConnecting:
		return ErrNotConnected
	default:
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	if err := c.send(build(uid)); err != nil {
		return err
	}
	c.pending = kind
	c.lobby = ""
	c.setState(StateSearching)
	return nil
}

// CancelSearch leaves the queue or an unfilled lobby.
func (c *Client) CancelSearch() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.state == StateSearching:
	case c.state.Playing():
		return ErrCannotCancel
	default:
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	if err := c.send(CancelSearch{}); err != nil {
		return err
	}
	c.pending = requestNone
	c.lobby = ""
	c.setState(StateIdle)
	return nil
}

// BeginSession marks the arena as open for the current match.
func (c *Client) BeginSession() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateMatched {
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	c.setState(StateInSession)
	return nil
}

// ReportWin tells the server the local user solved the duel problem.
func (c *Client) ReportWin(problemID model.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateInSession || c.match == nil {
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	return c.send(PlayerWon{
		RoomID:     c.match.RoomID,
		ProblemID:  problemID,
		UserAuthID: c.self.UserID(),
	})
}

// SendMessage posts a chat line to the current room.
func (c *Client) SendMessage(text string) (ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return ChatMessage{}, ErrEmptyMessage
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Playing() || c.match == nil {
		return ChatMessage{}, fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	if !c.chat.Allow() {
		return ChatMessage{}, ErrRateLimited
	}
	msg := SendMessage{
		ID:       uuid.NewString(),
		RoomID:   c.match.RoomID,
		Message:  text,
		Username: c.self.Username(),
	}
	if err := c.send(msg); err != nil {
		return ChatMessage{}, err
	}
	line := ChatMessage{ID: msg.ID, RoomID: msg.RoomID, Message: msg.Message, Username: msg.Username, Mine: true}
	c.box.push(line)
	return line, nil
}

// Forfeit abandons the match. The connection is closed; the server scores a loss.
func (c *Client) Forfeit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Playing() {
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	c.dropConn()
	c.setState(StateForfeited)
	c.log.Info("forfeited", zap.String("room", c.roomID()))
	return nil
}

// Acknowledge clears a finished match.
func (c *Client) Acknowledge() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Terminal() {
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	c.match = nil
	c.over = nil
	c.pending = requestNone
	c.lobby = ""
	if c.conn != nil {
		c.setState(StateIdle)
	} else {
		c.setState(StateDisconnected)
	}
	return nil
}

// Close tears down the connection and stops event delivery.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.dropConn()
	c.state = StateDisconnected
	c.mu.Unlock()
	c.box.close()
	return nil
}

func (c *Client) readLoop(conn Conn) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			c.connectionLost(conn, err)
			return
		}
		ev, err := Decode(frame)
		if err != nil {
			if errors.Is(err, ErrUnknownEvent) {
				c.log.Debug("dropping frame", zap.Error(err))
				continue
			}
			c.log.Warn("bad frame", zap.Error(err))
			c.box.push(ProtocolError{Err: err})
			continue
		}
		c.dispatch(ev)
	}
}

func (c *Client) connectionLost(conn Conn, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		return
	}
	c.conn = nil
	if cerr := conn.Close(); cerr != nil {
		// Best-effort close of a dead connection.
		_ = cerr
	}
	if isClosed(err) {
		c.log.Info("connection closed by server", zap.Error(err))
	} else {
		c.log.Warn("connection lost", zap.Error(err))
	}
	c.box.push(ConnectionLost{Err: err})
	if !c.state.Terminal() {
		c.pending = requestNone
		c.match = nil
		c.setState(StateDisconnected)
	}
}

func (c *Client) dispatch(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e := ev.(type) {
	case MatchFound:
		if e.RoomID == "" || e.ProblemID == "" {
			c.box.push(ProtocolError{Err: ErrIncompleteMatch})
			return
		}
		if c.state != StateSearching {
			c.log.Debug("ignoring match_found", zap.Stringer("state", c.state), zap.String("room", e.RoomID))
			return
		}
		m := e.MatchFound
		c.match = &m
		c.pending = requestNone
		c.box.push(e)
		c.setState(StateMatched)

	case LobbyCreated:
		if c.state != StateSearching || c.pending != requestCreateLobby {
			c.log.Debug("ignoring lobby_created", zap.Stringer("state", c.state))
			return
		}
		c.lobby = e.RoomID
		c.box.push(e)
		// The host joins its own room like any guest.
		if err := c.send(JoinPrivateLobby{RoomID: e.RoomID, UserAuthID: c.self.UserID()}); err != nil {
			c.log.Warn("join own lobby", zap.Error(err))
		}

	case MatchOver:
		if !c.state.Playing() {
			c.log.Debug("ignoring match_over", zap.Stringer("state", c.state))
			return
		}
		over := e
		c.over = &over
		c.box.push(e)
		if string(e.WinnerID) == c.self.UserID() {
			c.setState(StateWon)
		} else {
			c.setState(StateLost)
		}

	case UserDisconnected:
		switch {
		case c.state.Playing():
			c.box.push(e)
			c.setState(StateWon)
		case c.state == StateSearching:
			c.box.push(e)
			c.pending = requestNone
			c.setState(StateIdle)
		default:
			c.log.Debug("ignoring user-disconnected", zap.Stringer("state", c.state))
		}

	case ChatMessage:
		if !c.state.Playing() || c.match == nil {
			return
		}
		if e.RoomID != "" && e.RoomID != c.match.RoomID {
			return
		}
		c.box.push(e)

	case ServerError:
		c.box.push(e)
		if c.state == StateSearching {
			c.pending = requestNone
			c.lobby = ""
			c.setState(StateIdle)
		}
	}
}

// send writes one intent. Callers hold c.mu.
func (c *Client) send(in Intent) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	frame, err := Encode(in)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("send %s: %w", in.EventName(), err)
	}
	c.log.Debug("sent", zap.String("event", in.EventName()))
	return nil
}

// setState records and announces a transition. Callers hold c.mu.
func (c *Client) setState(to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	c.log.Debug("state", zap.Stringer("from", from), zap.Stringer("to", to))
	c.box.push(StateChanged{From: from, To: to})
}

// dropConn closes the connection so the read loop exits quietly. Callers hold c.mu.
func (c *Client) dropConn() {
	if c.conn == nil {
		return
	}
	conn := c.conn
	c.conn = nil
	c.writeMu.Lock()
	if err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
		// Best-effort close frame.
		_ = err
	}
	c.writeMu.Unlock()
	if err := conn.Close(); err != nil {
		// Best-effort close.
		_ = err
	}
}

func (c *Client) roomID() string {
	if c.match == nil {
		return ""
	}
	return c.match.RoomID
}
