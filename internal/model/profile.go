package model

import "time"

// PlayerProfile is the durable, monotonically accumulating record of a
// player's lifetime statistics
type PlayerProfile struct {
	OwnerID OwnerID

	TotalBlocksPlaced uint64
	TotalAttacks      uint64
	TotalKills        uint64
	TotalScore        uint64
	GamesPlayed       uint16

	// SettledEpoch is the epoch of the last session snapshot folded in
	SettledEpoch uint64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPlayerProfile returns a zeroed profile for owner
func NewPlayerProfile(owner OwnerID, now time.Time) *PlayerProfile {
	return &PlayerProfile{
		OwnerID:   owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Address returns the durable address of the profile
func (p *PlayerProfile) Address() Address {
	return DeriveAddress(NamespaceProfile, p.OwnerID)
}

// Settle folds a session snapshot into the profile totals and returns the
// resulting profile. The receiver is not modified.
func (p PlayerProfile) Settle(snap SessionSnapshot) PlayerProfile {
	p.TotalBlocksPlaced = saturatingAdd64(p.TotalBlocksPlaced, uint64(snap.BlocksPlaced))
	p.TotalAttacks = saturatingAdd64(p.TotalAttacks, uint64(snap.Attacks))
	p.TotalKills = saturatingAdd64(p.TotalKills, uint64(snap.Kills))
	p.TotalScore = saturatingAdd64(p.TotalScore, snap.Score)
	p.GamesPlayed = saturatingAdd16(p.GamesPlayed, 1)
	p.SettledEpoch = snap.Epoch
	return p
}
