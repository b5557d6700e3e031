package response

import (
	"time"

	"github.com/mcoot/realmledger/internal/model"
	"github.com/mcoot/realmledger/internal/services/auth"
)

// Signer represents a registered signer in API responses
type Signer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Owner    string `json:"owner"`
}

// SignerFromModel converts a model.Signer to a response Signer
func SignerFromModel(s *model.Signer) Signer {
	return Signer{
		ID:       string(s.ID),
		Username: s.Username,
		Owner:    string(s.Owner()),
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Signer       Signer    `json:"signer"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Signer:       SignerFromModel(&s.Signer),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Me describes the caller of a request
type Me struct {
	Signer     string      `json:"signer"`
	Username   string      `json:"username,omitempty"`
	Owner      string      `json:"owner,omitempty"`
	Credential *Credential `json:"credential,omitempty"`
}

// Profile represents a player profile in API responses
type Profile struct {
	Owner             string    `json:"owner"`
	Address           string    `json:"address"`
	TotalBlocksPlaced uint64    `json:"total_blocks_placed"`
	TotalAttacks      uint64    `json:"total_attacks"`
	TotalKills        uint64    `json:"total_kills"`
	TotalScore        uint64    `json:"total_score"`
	GamesPlayed       uint16    `json:"games_played"`
	SettledEpoch      uint64    `json:"settled_epoch"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProfileFromModel converts a model.PlayerProfile
func ProfileFromModel(p *model.PlayerProfile) Profile {
	return Profile{
		Owner:             string(p.OwnerID),
		Address:           string(p.Address()),
		TotalBlocksPlaced: p.TotalBlocksPlaced,
		TotalAttacks:      p.TotalAttacks,
		TotalKills:        p.TotalKills,
		TotalScore:        p.TotalScore,
		GamesPlayed:       p.GamesPlayed,
		SettledEpoch:      p.SettledEpoch,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// Session represents a game session in API responses
type Session struct {
	Owner        string    `json:"owner"`
	Address      string    `json:"address"`
	Realm        string    `json:"realm"`
	State        string    `json:"state"`
	Active       bool      `json:"active"`
	BlocksPlaced uint32    `json:"blocks_placed"`
	Attacks      uint32    `json:"attacks"`
	Kills        uint32    `json:"kills"`
	Score        uint64    `json:"score"`
	Epoch        uint64    `json:"epoch"`
	Custody      string    `json:"custody"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionFromModel converts a model.GameSession
func SessionFromModel(s *model.GameSession) Session {
	return Session{
		Owner:        string(s.OwnerID),
		Address:      string(s.Address()),
		Realm:        s.Realm,
		State:        string(s.State()),
		Active:       s.Active,
		BlocksPlaced: s.BlocksPlaced,
		Attacks:      s.Attacks,
		Kills:        s.Kills,
		Score:        s.Score,
		Epoch:        s.Epoch,
		Custody:      string(s.Custody),
		UpdatedAt:    s.UpdatedAt,
	}
}

// Credential represents a session credential in API responses
type Credential struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Signer    string    `json:"signer"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CredentialFromModel converts a model.SessionCredential
func CredentialFromModel(c *model.SessionCredential) Credential {
	return Credential{
		ID:        c.ID,
		Owner:     string(c.Owner),
		Signer:    string(c.Signer),
		IssuedAt:  c.IssuedAt,
		ExpiresAt: c.ExpiresAt,
	}
}

// CredentialResponse is the response for credential issuance
type CredentialResponse struct {
	Token      string     `json:"token"`
	Credential Credential `json:"credential"`
}
