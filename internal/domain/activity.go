package domain

import (
	"slices"
	"time"
)

// Activity is an extracurricular offering and its current roster.
// Participants are kept in signup order and hold each email at most once.
type Activity struct {
	Name            string
	Description     string
	Schedule        string
	MaxParticipants int
	Participants    []string
}

// Clone returns a copy that shares no backing storage with a.
func (a Activity) Clone() Activity {
	out := a
	out.Participants = append(make([]string, 0, len(a.Participants)), a.Participants...)
	return out
}

// HasParticipant reports whether email is on the roster.
func (a Activity) HasParticipant(email string) bool {
	return slices.Contains(a.Participants, email)
}

// EventType names a roster change.
type EventType string

const (
	EventParticipantSignedUp     EventType = "roster.participant_signed_up"
	EventParticipantUnregistered EventType = "roster.participant_unregistered"
)

// RosterEvent describes a single accepted roster change.
type RosterEvent struct {
	EventID    string    `json:"event_id"`
	EventType  EventType `json:"event_type"`
	Activity   string    `json:"activity"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}
