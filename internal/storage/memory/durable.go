package memory

import (
	"context"
	"sync"

	"github.com/mcoot/realmledger/internal/model"
	"github.com/mcoot/realmledger/internal/storage"
)

// Durable is an in-memory implementation of the durable venue. Records are
// stored by value so callers never alias stored state.
type Durable struct {
	mu sync.RWMutex

	profiles      map[model.Address]model.PlayerProfile
	sessions      map[model.Address]model.GameSession
	checkpoints   map[model.Address]model.GameSession
	signers       map[model.SignerID]model.Signer
	usernameIndex map[string]model.SignerID
}

// NewDurable creates a new in-memory durable venue
func NewDurable() *Durable {
	return &Durable{
		profiles:      make(map[model.Address]model.PlayerProfile),
		sessions:      make(map[model.Address]model.GameSession),
		checkpoints:   make(map[model.Address]model.GameSession),
		signers:       make(map[model.SignerID]model.Signer),
		usernameIndex: make(map[string]model.SignerID),
	}
}

// Ensure Durable implements the interfaces
var (
	_ storage.DurableStore = (*Durable)(nil)
	_ storage.SignerStore  = (*Durable)(nil)
)

// Profile operations

func (d *Durable) CreateProfile(ctx context.Context, profile *model.PlayerProfile, session *model.GameSession) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	profileAddr := profile.Address()
	sessionAddr := session.Address()
	if _, ok := d.profiles[profileAddr]; ok {
		return model.ErrAlreadyExists
	}
	if _, ok := d.sessions[sessionAddr]; ok {
		return model.ErrAlreadyExists
	}

	d.profiles[profileAddr] = *profile
	d.sessions[sessionAddr] = *session
	return nil
}

func (d *Durable) GetProfile(ctx context.Context, owner model.OwnerID) (*model.PlayerProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	profile, ok := d.profiles[model.DeriveAddress(model.NamespaceProfile, owner)]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &profile, nil
}

// Session operations

func (d *Durable) GetSession(ctx context.Context, owner model.OwnerID) (*model.GameSession, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	session, ok := d.sessions[model.DeriveAddress(model.NamespaceSession, owner)]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &session, nil
}

func (d *Durable) SetCustody(ctx context.Context, owner model.OwnerID, custody model.Custody) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	addr := model.DeriveAddress(model.NamespaceSession, owner)
	session, ok := d.sessions[addr]
	if !ok {
		return model.ErrNotFound
	}
	session.Custody = custody
	d.sessions[addr] = session
	return nil
}

func (d *Durable) SaveCheckpoint(ctx context.Context, session *model.GameSession) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	addr := session.Address()
	if _, ok := d.sessions[addr]; !ok {
		return model.ErrNotFound
	}
	d.checkpoints[addr] = *session
	return nil
}

func (d *Durable) GetCheckpoint(ctx context.Context, owner model.OwnerID) (*model.GameSession, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	session, ok := d.checkpoints[model.DeriveAddress(model.NamespaceSession, owner)]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &session, nil
}

func (d *Durable) CommitSettlement(ctx context.Context, profile *model.PlayerProfile, session *model.GameSession) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	profileAddr := profile.Address()
	sessionAddr := session.Address()
	if _, ok := d.profiles[profileAddr]; !ok {
		return model.ErrNotFound
	}
	if _, ok := d.sessions[sessionAddr]; !ok {
		return model.ErrNotFound
	}
	d.profiles[profileAddr] = *profile
	d.sessions[sessionAddr] = *session
	delete(d.checkpoints, sessionAddr)
	return nil
}

// Signer operations

func (d *Durable) SaveSigner(ctx context.Context, signer *model.Signer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.usernameIndex[signer.Username]; ok && id != signer.ID {
		return model.ErrAlreadyExists
	}
	d.signers[signer.ID] = *signer
	d.usernameIndex[signer.Username] = signer.ID
	return nil
}

func (d *Durable) GetSigner(ctx context.Context, id model.SignerID) (*model.Signer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	signer, ok := d.signers[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &signer, nil
}

func (d *Durable) GetSignerByUsername(ctx context.Context, username string) (*model.Signer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.usernameIndex[username]
	if !ok {
		return nil, model.ErrNotFound
	}
	signer, ok := d.signers[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &signer, nil
}
