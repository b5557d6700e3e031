package memory

import (
	"context"
	"sync"

	"github.com/mcoot/realmledger/internal/model"
	"github.com/mcoot/realmledger/internal/storage"
)

// Fast is an in-memory implementation of the fast execution venue
type Fast struct {
	mu       sync.RWMutex
	sessions map[model.Address]model.GameSession
}

// NewFast creates a new in-memory fast venue
func NewFast() *Fast {
	return &Fast{
		sessions: make(map[model.Address]model.GameSession),
	}
}

// Ensure Fast implements the interface
var _ storage.FastStore = (*Fast)(nil)

func (f *Fast) AcceptCustody(ctx context.Context, session *model.GameSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	addr := session.Address()
	if _, ok := f.sessions[addr]; ok {
		return model.ErrAlreadyExists
	}
	f.sessions[addr] = *session
	return nil
}

func (f *Fast) GetSession(ctx context.Context, owner model.OwnerID) (*model.GameSession, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	session, ok := f.sessions[model.DeriveAddress(model.NamespaceSession, owner)]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &session, nil
}

func (f *Fast) SaveSession(ctx context.Context, session *model.GameSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	addr := session.Address()
	if _, ok := f.sessions[addr]; !ok {
		return model.ErrNotFound
	}
	f.sessions[addr] = *session
	return nil
}

func (f *Fast) ReleaseCustody(ctx context.Context, owner model.OwnerID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, model.DeriveAddress(model.NamespaceSession, owner))
	return nil
}
