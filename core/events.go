package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates domain events.
type EventType string

const (
	EventScoreSubmitted     EventType = "score_submitted"
	EventNewLeader          EventType = "new_leader"
	EventLeaderboardCleared EventType = "leaderboard_cleared"
)

// EventTypes lists every event the service can publish.
func EventTypes() []EventType {
	return []EventType{EventScoreSubmitted, EventNewLeader, EventLeaderboardCleared}
}

// Event represents an immutable domain event.
type Event struct {
	ID    string       `json:"id"`
	Type  EventType    `json:"type"`
	Time  time.Time    `json:"time"`
	Entry *RankedEntry `json:"entry,omitempty"`
}

func newEvent(typ EventType, entry *RankedEntry) Event {
	return Event{ID: uuid.NewString(), Type: typ, Time: time.Now().UTC(), Entry: entry}
}

func NewScoreSubmitted(entry RankedEntry) Event {
	return newEvent(EventScoreSubmitted, &entry)
}

func NewNewLeader(entry RankedEntry) Event {
	return newEvent(EventNewLeader, &entry)
}

func NewLeaderboardCleared() Event {
	return newEvent(EventLeaderboardCleared, nil)
}
