// Package model defines shared data structures.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is an identifier the backend may send either as a JSON string or a number.
type ID string

// UnmarshalJSON accepts `"42"`, `42` and `null`.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as numbers so the backend sees the type it issued.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte(`""`), nil
	}
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// String returns the id as text.
func (id ID) String() string {
	return string(id)
}

// Credential is the persisted login state.
type Credential struct {
	Token    string
	UserID   string
	Username string
}

// User is the identity block returned by auth endpoints.
type User struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Stats holds the progress counters shown on the profile page.
type Stats struct {
	Level           int    `json:"level"`
	Points          int    `json:"points"`
	RankedPoints    int    `json:"rankedPoints"`
	Rank            string `json:"rank"`
	QuestionsSolved int    `json:"questionsSolved"`
	Streak          int    `json:"streak"`
}

// StatsPatch is a partial stats update. Nil fields are left untouched.
type StatsPatch struct {
	Level           *int
	Points          *int
	RankedPoints    *int
	Rank            *string
	QuestionsSolved *int
	Streak          *int
}

// Apply returns s with every set field of p overwritten.
func (p StatsPatch) Apply(s Stats) Stats {
	if p.Level != nil {
		s.Level = *p.Level
	}
	if p.Points != nil {
		s.Points = *p.Points
	}
	if p.RankedPoints != nil {
		s.RankedPoints = *p.RankedPoints
	}
	if p.Rank != nil {
		s.Rank = *p.Rank
	}
	if p.QuestionsSolved != nil {
		s.QuestionsSolved = *p.QuestionsSolved
	}
	if p.Streak != nil {
		s.Streak = *p.Streak
	}
	return s
}

// Empty reports whether the patch sets nothing.
func (p StatsPatch) Empty() bool {
	return p.Level == nil && p.Points == nil && p.RankedPoints == nil &&
		p.Rank == nil && p.QuestionsSolved == nil && p.Streak == nil
}

// Profile is the current user's profile.
type Profile struct {
	ID                ID     `json:"_id,omitempty"`
	Username          string `json:"username"`
	FullName          string `json:"fullName"`
	College           string `json:"college"`
	Bio               string `json:"bio"`
	PreferredLanguage string `json:"preferredLanguage"`
	Github            string `json:"github"`
	ProfilePic        string `json:"profilePic"`
	Stats             Stats  `json:"stats"`
}

// ProfileUpdate carries the editable profile fields. Nil fields are omitted.
type ProfileUpdate struct {
	Username          *string `json:"username,omitempty"`
	FullName          *string `json:"fullName,omitempty"`
	College           *string `json:"college,omitempty"`
	Bio               *string `json:"bio,omitempty"`
	PreferredLanguage *string `json:"preferredLanguage,omitempty"`
	Github            *string `json:"github,omitempty"`
	ProfilePic        *string `json:"profilePic,omitempty"`
}

// Difficulty labels used by the catalog.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Example is a public sample for a problem.
type Example struct {
	Input       json.RawMessage `json:"input"`
	Output      json.RawMessage `json:"output"`
	Explanation string          `json:"explanation,omitempty"`
}

// Problem is a catalog entry.
type Problem struct {
	ID          ID                `json:"id"`
	Title       string            `json:"title"`
	Difficulty  string            `json:"difficulty"`
	Topic       string            `json:"topic,omitempty"`
	Language    string            `json:"language,omitempty"`
	Description string            `json:"description"`
	Examples    []Example         `json:"examples,omitempty"`
	Constraints []string          `json:"constraints,omitempty"`
	StarterCode map[string]string `json:"starterCode,omitempty"`
	DriverCode  map[string]string `json:"driverCode,omitempty"`
}

// TopicOrDefault returns the topic, or "General" when unset.
func (p Problem) TopicOrDefault() string {
	if strings.TrimSpace(p.Topic) == "" {
		return "General"
	}
	return p.Topic
}

// LanguageOrDefault returns the language tag, or "Multi" when unset.
func (p Problem) LanguageOrDefault() string {
	if strings.TrimSpace(p.Language) == "" {
		return "Multi"
	}
	return p.Language
}

// SolvedProblem is a stored accepted solution.
type SolvedProblem struct {
	ProblemID ID        `json:"problemId"`
	Code      string    `json:"code"`
	Language  string    `json:"language"`
	SolvedAt  time.Time `json:"-"`
}

// Verdict statuses reported by the judge.
const (
	StatusAccepted = "Accepted"
)

// SubmitResult is the judge response for a submission.
type SubmitResult struct {
	Success       bool   `json:"success"`
	Status        string `json:"status"`
	Output        string `json:"output"`
	PointsAwarded int    `json:"pointsAwarded"`
	Message       string `json:"message,omitempty"`
}

// Accepted reports whether the judge accepted the submission.
func (r SubmitResult) Accepted() bool {
	return r.Success && r.Status == StatusAccepted
}

// Match modes.
const (
	ModeRanked = "ranked"
	ModeCasual = "casual"
)

// Player is a duel participant.
type Player struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
}

// MatchFound is pushed by the matchmaking server when a room is formed.
type MatchFound struct {
	RoomID    string   `json:"roomId"`
	ProblemID ID       `json:"problemId"`
	IsRanked  bool     `json:"isRanked"`
	Players   []Player `json:"players"`
}

// Opponent returns the first player that is not self.
func (m MatchFound) Opponent(self string) (Player, bool) {
	for _, p := range m.Players {
		if string(p.ID) != self {
			return p, true
		}
	}
	return Player{}, false
}

// OutcomeDetails is the per-player score change of a finished match.
type OutcomeDetails struct {
	PointsChange int    `json:"pointsChange"`
	NewPoints    int    `json:"newPoints"`
	NewRank      string `json:"newRank"`
}
