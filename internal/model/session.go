package model

import "time"

// MaxRealmLen is the maximum length of a realm label in bytes
const MaxRealmLen = 16

// Custody identifies which storage venue currently owns a session record
type Custody string

const (
	CustodyDurable   Custody = "durable"   // Held by the durable venue
	CustodyDelegated Custody = "delegated" // Handed off to the fast venue
)

// SessionState is the lifecycle phase of a game session
type SessionState string

const (
	SessionStateIdle   SessionState = "idle"   // Never entered
	SessionStateActive SessionState = "active" // Accepting actions
	SessionStateEnded  SessionState = "ended"  // Frozen, awaiting or past settlement
)

// ActionKind identifies a hot-path session action
type ActionKind string

const (
	ActionPlaceBlock ActionKind = "place_block"
	ActionAttack     ActionKind = "attack"
	ActionKillEntity ActionKind = "kill_entity"
)

// GameSession is the ephemeral record of one play session, reused across
// sessions of the same owner
type GameSession struct {
	OwnerID OwnerID
	Realm   string

	BlocksPlaced uint32
	Attacks      uint32
	Kills        uint32
	Score        uint64
	Active       bool

	// Epoch increments on every successful Enter
	Epoch   uint64
	Custody Custody

	UpdatedAt time.Time
}

// NewGameSession returns the idle session record for owner
func NewGameSession(owner OwnerID, now time.Time) *GameSession {
	return &GameSession{
		OwnerID:   owner,
		Custody:   CustodyDurable,
		UpdatedAt: now,
	}
}

// Address returns the address of the session record in either venue
func (s *GameSession) Address() Address {
	return DeriveAddress(NamespaceSession, s.OwnerID)
}

// State derives the lifecycle phase from the record
func (s *GameSession) State() SessionState {
	switch {
	case s.Active:
		return SessionStateActive
	case s.Epoch == 0:
		return SessionStateIdle
	default:
		return SessionStateEnded
	}
}

// ValidateRealm checks the realm label length bound
func ValidateRealm(realm string) error {
	if len(realm) > MaxRealmLen {
		return ErrInvalidRealm
	}
	return nil
}

// Enter opens a new session in realm, resetting all counters
func (s *GameSession) Enter(owner OwnerID, realm string) error {
	if err := ValidateRealm(realm); err != nil {
		return err
	}
	if s.Active {
		return ErrSessionAlreadyActive
	}

	s.OwnerID = owner
	s.Realm = realm
	s.BlocksPlaced = 0
	s.Attacks = 0
	s.Kills = 0
	s.Score = 0
	s.Active = true
	s.Epoch++
	return nil
}

// Record applies one hot-path action and its score contribution
func (s *GameSession) Record(kind ActionKind, score uint64) error {
	if !s.Active {
		return ErrNoActiveSession
	}

	switch kind {
	case ActionPlaceBlock:
		s.BlocksPlaced = saturatingAdd32(s.BlocksPlaced, 1)
	case ActionAttack:
		s.Attacks = saturatingAdd32(s.Attacks, 1)
	case ActionKillEntity:
		s.Kills = saturatingAdd32(s.Kills, 1)
	default:
		return ErrInvalidAction
	}
	s.Score = saturatingAdd64(s.Score, score)
	return nil
}

// EndGame closes the active session, freezing its counters
func (s *GameSession) EndGame() error {
	if !s.Active {
		return ErrNoActiveSession
	}
	s.Active = false
	return nil
}

// Snapshot captures the counters to be settled
func (s *GameSession) Snapshot() SessionSnapshot {
	return SessionSnapshot{
		BlocksPlaced: s.BlocksPlaced,
		Attacks:      s.Attacks,
		Kills:        s.Kills,
		Score:        s.Score,
		Epoch:        s.Epoch,
	}
}

// SessionSnapshot is the frozen counter set read at settlement
type SessionSnapshot struct {
	BlocksPlaced uint32
	Attacks      uint32
	Kills        uint32
	Score        uint64
	Epoch        uint64
}
