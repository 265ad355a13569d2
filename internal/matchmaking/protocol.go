package matchmaking

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/verte-zerg/codeduel/internal/model"
)

// Wire event names.
const (
	EventFindMatch        = "find_match"
	EventCancelSearch     = "cancel_search"
	EventCreateLobby      = "create_private_lobby"
	EventJoinLobby        = "join_private_lobby"
	EventPlayerWon        = "player_won"
	EventSendMessage      = "send_message"
	EventMatchFound       = "match_found"
	EventLobbyCreated     = "lobby_created"
	EventMatchOver        = "match_over"
	EventUserDisconnected = "user-disconnected"
	EventReceiveMessage   = "receive_message"
	EventError            = "error"
)

// ErrUnknownEvent is returned by Decode for unrecognised event names.
var ErrUnknownEvent = errors.New("unknown event")

// Envelope is one WebSocket frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Intent is a message the client sends.
type Intent interface {
	EventName() string
}

// FindMatch asks to be queued.
type FindMatch struct {
	UserAuthID string `json:"userAuthId"`
	Mode       string `json:"mode"`
	Language   string `json:"language,omitempty"`
}

// CancelSearch leaves the queue.
type CancelSearch struct{}

// CreatePrivateLobby asks for a shareable room.
type CreatePrivateLobby struct {
	UserAuthID string `json:"userAuthId"`
}

// JoinPrivateLobby joins a shared room.
type JoinPrivateLobby struct {
	RoomID     string `json:"roomId"`
	UserAuthID string `json:"userAuthId"`
}

// PlayerWon reports an accepted submission in a duel.
type PlayerWon struct {
	RoomID     string   `json:"roomId"`
	ProblemID  model.ID `json:"problemId"`
	UserAuthID string   `json:"userAuthId"`
}

// SendMessage posts a chat line to the room.
type SendMessage struct {
	ID       string `json:"id"`
	RoomID   string `json:"roomId"`
	Message  string `json:"message"`
	Username string `json:"username"`
}

func (FindMatch) EventName() string          { return EventFindMatch }
func (CancelSearch) EventName() string       { return EventCancelSearch }
func (CreatePrivateLobby) EventName() string { return EventCreateLobby }
func (JoinPrivateLobby) EventName() string   { return EventJoinLobby }
func (PlayerWon) EventName() string          { return EventPlayerWon }
func (SendMessage) EventName() string        { return EventSendMessage }

// Encode wraps an intent in an envelope.
func Encode(in Intent) ([]byte, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: in.EventName(), Data: data})
}

// Event is anything delivered on Client.Events.
type Event interface {
	isEvent()
}

// MatchFound pairs the user with an opponent.
type MatchFound struct {
	model.MatchFound
}

// LobbyCreated carries the shareable room id.
type LobbyCreated struct {
	RoomID string `json:"roomId"`
}

// MatchOver ends a duel.
type MatchOver struct {
	WinnerID    model.ID             `json:"winnerId"`
	WinDetails  model.OutcomeDetails `json:"winDetails"`
	LoseDetails model.OutcomeDetails `json:"loseDetails"`
}

// UserDisconnected reports that the opponent left.
type UserDisconnected struct {
	Message string `json:"message"`
}

// ChatMessage is a room chat line. Mine marks lines sent by this client.
type ChatMessage struct {
	ID       string `json:"id,omitempty"`
	RoomID   string `json:"roomId"`
	Message  string `json:"message"`
	Username string `json:"username"`
	Mine     bool   `json:"-"`
}

// ServerError is an error pushed by the server.
type ServerError struct {
	Message string `json:"message"`
}

// StateChanged is emitted on every transition.
type StateChanged struct {
	From State
	To   State
}

// ConnectionLost is emitted when the read loop fails.
type ConnectionLost struct {
	Err error
}

// ProtocolError is emitted for frames that cannot be honoured.
type ProtocolError struct {
	Err error
}

func (MatchFound) isEvent()       {}
func (LobbyCreated) isEvent()     {}
func (MatchOver) isEvent()        {}
func (UserDisconnected) isEvent() {}
func (ChatMessage) isEvent()      {}
func (ServerError) isEvent()      {}
func (StateChanged) isEvent()     {}
func (ConnectionLost) isEvent()   {}
func (ProtocolError) isEvent()    {}

// Decode parses a server frame into its event.
func Decode(frame []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	data := env.Data
	if len(data) == 0 {
		data = []byte("{}")
	}

	var ev Event
	var err error
	switch env.Event {
	case EventMatchFound:
		var v MatchFound
		err = json.Unmarshal(data, &v.MatchFound)
		ev = v
	case EventLobbyCreated:
		var v LobbyCreated
		err = json.Unmarshal(data, &v)
		ev = v
	case EventMatchOver:
		var v MatchOver
		err = json.Unmarshal(data, &v)
		ev = v
	case EventUserDisconnected:
		var v UserDisconnected
		err = json.Unmarshal(data, &v)
		ev = v
	case EventReceiveMessage:
		var v ChatMessage
		err = json.Unmarshal(data, &v)
		ev = v
	case EventError:
		var v ServerError
		err = json.Unmarshal(data, &v)
		ev = v
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownEvent, env.Event)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Event, err)
	}
	return ev, nil
}
