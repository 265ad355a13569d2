// Package matchmaking is the realtime duel client: queueing, private lobbies,
// match results and room chat over one WebSocket.
package matchmaking

// State is the client's position in the duel lifecycle.
type State int

// Lifecycle states.
const (
	StateDisconnected State = iota
	StateConnecting
	StateIdle
	StateSearching
	StateMatched
	StateInSession
	StateWon
	StateLost
	StateForfeited
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateMatched:
		return "matched"
	case StateInSession:
		return "in-session"
	case StateWon:
		return "won"
	case StateLost:
		return "lost"
	case StateForfeited:
		return "forfeited"
	default:
		return "unknown"
	}
}

// Terminal reports whether the match has a result.
func (s State) Terminal() bool {
	return s == StateWon || s == StateLost || s == StateForfeited
}

// Playing reports whether a room is assigned and unfinished.
func (s State) Playing() bool {
	return s == StateMatched || s == StateInSession
}
