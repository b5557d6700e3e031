package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Custody events
	EventDelegated  EventType = "delegated"
	EventCheckpoint EventType = "checkpoint"
	EventSettled    EventType = "settled"

	// Session events
	EventSessionEntered EventType = "session-entered"
	EventBlockPlaced    EventType = "block-placed"
	EventAttack         EventType = "attack"
	EventEntityKilled   EventType = "entity-killed"
	EventGameEnded      EventType = "game-ended"
)

// Event is emitted after every successful state transition
type Event struct {
	Type      EventType
	Timestamp time.Time
	Owner     OwnerID
	Signer    SignerID // The signer that triggered the transition
	Session   GameSession
	Payload   any // Type-specific data
}

// ActionPayload describes a hot-path action
type ActionPayload struct {
	Kind    ActionKind
	Subject string // block, target or entity type
	Score   uint64 // score contribution of this action
}

// SettledPayload carries the profile produced by settlement
type SettledPayload struct {
	Profile PlayerProfile
}

// EventPublisher receives events after successful transitions. Publishing
// must not block the caller.
type EventPublisher interface {
	Publish(event Event)
}

// NopPublisher discards all events
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
