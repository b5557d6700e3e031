package model

import "time"

// SignerID identifies the direct signer of a request
type SignerID string

// SessionCredential binds a secondary signer to a profile owner for a
// limited time
type SessionCredential struct {
	ID        string
	Owner     OwnerID
	Signer    SignerID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the credential is no longer usable at now
func (c *SessionCredential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Signer is a registered direct-signing identity
type Signer struct {
	ID           SignerID
	Username     string
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
}

// Owner returns the profile owner identity this signer controls
func (s *Signer) Owner() OwnerID {
	return OwnerID(s.ID)
}
