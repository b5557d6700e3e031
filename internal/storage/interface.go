package storage

import (
	"context"

	"github.com/mcoot/realmledger/internal/model"
)

// DurableStore is the permanent venue holding profiles and the owner's
// session record while it is not delegated
type DurableStore interface {
	// CreateProfile stores a new profile together with the owner's idle
	// session record. Returns model.ErrAlreadyExists if either is present.
	CreateProfile(ctx context.Context, profile *model.PlayerProfile, session *model.GameSession) error
	GetProfile(ctx context.Context, owner model.OwnerID) (*model.PlayerProfile, error)

	GetSession(ctx context.Context, owner model.OwnerID) (*model.GameSession, error)
	SetCustody(ctx context.Context, owner model.OwnerID, custody model.Custody) error

	// SaveCheckpoint replicates a delegated session without changing custody
	SaveCheckpoint(ctx context.Context, session *model.GameSession) error
	GetCheckpoint(ctx context.Context, owner model.OwnerID) (*model.GameSession, error)

	// CommitSettlement writes the settled profile and the returned session
	// record in a single transaction
	CommitSettlement(ctx context.Context, profile *model.PlayerProfile, session *model.GameSession) error
}

// FastStore is the execution venue holding delegated session records
type FastStore interface {
	// AcceptCustody stores a delegated session. Returns
	// model.ErrAlreadyExists if the venue already holds one for the owner.
	AcceptCustody(ctx context.Context, session *model.GameSession) error
	GetSession(ctx context.Context, owner model.OwnerID) (*model.GameSession, error)
	SaveSession(ctx context.Context, session *model.GameSession) error
	ReleaseCustody(ctx context.Context, owner model.OwnerID) error
}

// SignerStore persists registered signers
type SignerStore interface {
	SaveSigner(ctx context.Context, signer *model.Signer) error
	GetSigner(ctx context.Context, id model.SignerID) (*model.Signer, error)
	GetSignerByUsername(ctx context.Context, username string) (*model.Signer, error)
}
