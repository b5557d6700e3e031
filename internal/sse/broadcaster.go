package sse

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mcoot/realmledger/internal/model"
)

// Broadcaster publishes session events to the owner's hub
type Broadcaster struct {
	hubManager *HubManager
	logger     *slog.Logger
}

// Ensure Broadcaster implements EventPublisher
var _ model.EventPublisher = (*Broadcaster)(nil)

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// EventMessage is the JSON data line of a published event
type EventMessage struct {
	Type      model.EventType `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Owner     string          `json:"owner"`
	Signer    string          `json:"signer,omitempty"`
	Session   SessionView     `json:"session"`
	Action    *ActionView     `json:"action,omitempty"`
	Profile   *ProfileView    `json:"profile,omitempty"`
}

// SessionView is the session state carried by an event
type SessionView struct {
	Realm        string `json:"realm"`
	State        string `json:"state"`
	BlocksPlaced uint32 `json:"blocks_placed"`
	Attacks      uint32 `json:"attacks"`
	Kills        uint32 `json:"kills"`
	Score        uint64 `json:"score"`
	Epoch        uint64 `json:"epoch"`
	Custody      string `json:"custody"`
}

// ActionView describes the action behind a hot-path event
type ActionView struct {
	Kind    string `json:"kind"`
	Subject string `json:"subject,omitempty"`
	Score   uint64 `json:"score"`
}

// ProfileView is the settled profile carried by a settled event
type ProfileView struct {
	TotalBlocksPlaced uint64 `json:"total_blocks_placed"`
	TotalAttacks      uint64 `json:"total_attacks"`
	TotalKills        uint64 `json:"total_kills"`
	TotalScore        uint64 `json:"total_score"`
	GamesPlayed       uint16 `json:"games_played"`
}

// Publish sends the event to every client watching its owner. Events for
// owners without a hub are dropped.
func (b *Broadcaster) Publish(event model.Event) {
	hub := b.hubManager.GetHub(event.Owner)
	if hub == nil {
		return
	}

	data, err := json.Marshal(NewEventMessage(event))
	if err != nil {
		b.logger.Error("sse failed to encode event",
			slog.String("owner", string(event.Owner)),
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
		return
	}
	hub.BroadcastEvent(string(event.Type), string(data))
}

// NewEventMessage converts an event to its wire form
func NewEventMessage(event model.Event) EventMessage {
	session := event.Session
	msg := EventMessage{
		Type:      event.Type,
		Timestamp: event.Timestamp,
		Owner:     string(event.Owner),
		Signer:    string(event.Signer),
		Session: SessionView{
			Realm:        session.Realm,
			State:        string(session.State()),
			BlocksPlaced: session.BlocksPlaced,
			Attacks:      session.Attacks,
			Kills:        session.Kills,
			Score:        session.Score,
			Epoch:        session.Epoch,
			Custody:      string(session.Custody),
		},
	}

	switch p := event.Payload.(type) {
	case model.ActionPayload:
		msg.Action = &ActionView{Kind: string(p.Kind), Subject: p.Subject, Score: p.Score}
	case model.SettledPayload:
		msg.Profile = &ProfileView{
			TotalBlocksPlaced: p.Profile.TotalBlocksPlaced,
			TotalAttacks:      p.Profile.TotalAttacks,
			TotalKills:        p.Profile.TotalKills,
			TotalScore:        p.Profile.TotalScore,
			GamesPlayed:       p.Profile.GamesPlayed,
		}
	}
	return msg
}
