package redis

import (
	"fmt"

	"github.com/mcoot/realmledger/internal/model"
)

// Key prefix for all fast-venue data
const keyPrefix = "realm"

// sessionKey returns the Redis key for a delegated session
func sessionKey(owner model.OwnerID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, model.DeriveAddress(model.NamespaceSession, owner))
}
