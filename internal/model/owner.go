package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// OwnerID is the stable identity of the principal controlling a profile
type OwnerID string

// Namespace labels used for deterministic record addressing
const (
	NamespaceProfile = "profile"
	NamespaceSession = "session"
)

// Address identifies a record in either storage venue
type Address string

// DeriveAddress returns the deterministic address of the record owned by
// owner in the given namespace
func DeriveAddress(namespace string, owner OwnerID) Address {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write([]byte(owner))
	return Address(hex.EncodeToString(h.Sum(nil)))
}
