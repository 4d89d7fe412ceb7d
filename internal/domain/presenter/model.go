// Package presenter mirrors a presenter's slide position to audience
// sessions. Delivery is best effort: there is no ordering or exactly-once
// guarantee, and audiences judge staleness from the last update they saw.
package presenter

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// DefaultStaleAfter is how long an audience waits before flagging the feed.
const DefaultStaleAfter = 15 * time.Second

// StateTTL bounds how long a session's last state is retained.
const StateTTL = 12 * time.Hour

// Event types broadcast on the session topic.
const (
	EventState = "presenter.state"
	EventEnded = "presenter.ended"
)

var ErrNotFound = errors.New("presenter session not found")

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// State is what the presenter publishes.
type State struct {
	SessionID      string    `json:"sessionId"`
	CurrentSlide   int       `json:"currentSlide"`
	IsLive         bool      `json:"isLive"`
	ElapsedMinutes float64   `json:"elapsedMinutes"`
	Timestamp      time.Time `json:"timestamp"`
	PublishedBy    string    `json:"publishedBy,omitempty"`
}

// Update is the presenter's request body.
type Update struct {
	CurrentSlide   int     `json:"currentSlide"`
	IsLive         *bool   `json:"isLive"`
	ElapsedMinutes float64 `json:"elapsedMinutes"`
}

func (u Update) validate() error {
	if u.CurrentSlide < 0 {
		return fmt.Errorf("currentSlide must not be negative")
	}
	if u.ElapsedMinutes < 0 {
		return fmt.Errorf("elapsedMinutes must not be negative")
	}
	return nil
}

// Snapshot is the audience view of a session at a point in time.
type Snapshot struct {
	State      State   `json:"state"`
	Stale      bool    `json:"stale"`
	AgeSeconds float64 `json:"ageSeconds"`
}

// ValidSessionID reports whether id is 1..64 characters of [A-Za-z0-9_-].
func ValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

// Topic is the websocket topic for a session.
func Topic(sessionID string) string {
	return "presenter:" + sessionID
}

// SessionFromTopic extracts the session id from a presenter topic.
func SessionFromTopic(topic string) (string, bool) {
	const prefix = "presenter:"
	if len(topic) <= len(prefix) || topic[:len(prefix)] != prefix {
		return "", false
	}
	id := topic[len(prefix):]
	return id, ValidSessionID(id)
}
