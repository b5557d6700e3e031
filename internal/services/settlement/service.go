package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/realmledger/internal/dependencies/clock"
	"github.com/mcoot/realmledger/internal/model"
	"github.com/mcoot/realmledger/internal/services/authz"
	"github.com/mcoot/realmledger/internal/services/registry"
	"github.com/mcoot/realmledger/internal/storage"
)

// CredentialIssuer mints session credentials
type CredentialIssuer interface {
	Issue(owner model.OwnerID) (string, *model.SessionCredential, error)
}

// Service moves session custody between the durable and fast venues and
// folds finished sessions into the profile exactly once
type Service struct {
	durable   storage.DurableStore
	fast      storage.FastStore
	registry  *registry.Registry
	guard     *authz.Guard
	issuer    CredentialIssuer
	publisher model.EventPublisher
	clock     clock.Clock
	logger    *slog.Logger
}

// New creates a new settlement Service
func New(
	durable storage.DurableStore,
	fast storage.FastStore,
	registry *registry.Registry,
	guard *authz.Guard,
	issuer CredentialIssuer,
	publisher model.EventPublisher,
	clock clock.Clock,
	logger *slog.Logger,
) *Service {
	if publisher == nil {
		publisher = model.NopPublisher{}
	}
	return &Service{
		durable:   durable,
		fast:      fast,
		registry:  registry,
		guard:     guard,
		issuer:    issuer,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// IssueCredential mints a session credential bound to req.Owner. The
// owner's profile must exist.
func (s *Service) IssueCredential(ctx context.Context, req authz.Request) (string, *model.SessionCredential, error) {
	if err := s.guard.Authorize(authz.OpIssueCredential, req); err != nil {
		return "", nil, err
	}
	if _, err := s.durable.GetProfile(ctx, req.Owner); err != nil {
		return "", nil, err
	}
	return s.issuer.Issue(req.Owner)
}

// Delegate hands custody of the owner's session to the fast venue. A
// delegation whose fast copy was lost is restored from the latest
// checkpoint.
func (s *Service) Delegate(ctx context.Context, req authz.Request) (*model.GameSession, error) {
	if err := s.guard.Authorize(authz.OpDelegate, req); err != nil {
		return nil, err
	}

	release, err := s.registry.Acquire(ctx, req.Owner)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := s.durable.GetSession(ctx, req.Owner)
	if err != nil {
		return nil, err
	}

	if session.Custody == model.CustodyDelegated {
		return s.restoreDelegation(ctx, req, session)
	}

	// Drop any copy left behind by an interrupted settlement
	if err := s.fast.ReleaseCustody(ctx, req.Owner); err != nil {
		return nil, err
	}

	delegated := *session
	delegated.Custody = model.CustodyDelegated
	delegated.UpdatedAt = s.clock.Now()

	if err := s.fast.AcceptCustody(ctx, &delegated); err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return nil, model.ErrAlreadyDelegated
		}
		return nil, err
	}
	if err := s.durable.SetCustody(ctx, req.Owner, model.CustodyDelegated); err != nil {
		// Undo the fast venue write so custody stays with the durable venue
		if rerr := s.fast.ReleaseCustody(ctx, req.Owner); rerr != nil {
			s.logger.Error("failed to roll back delegation",
				slog.String("owner", string(req.Owner)),
				slog.String("error", rerr.Error()),
			)
		}
		return nil, err
	}

	s.logger.Info("session delegated",
		slog.String("owner", string(req.Owner)),
		slog.String("address", string(delegated.Address())),
	)
	s.publish(model.EventDelegated, req, delegated, nil)

	return &delegated, nil
}

func (s *Service) restoreDelegation(ctx context.Context, req authz.Request, durable *model.GameSession) (*model.GameSession, error) {
	_, err := s.fast.GetSession(ctx, req.Owner)
	if err == nil {
		return nil, model.ErrAlreadyDelegated
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	restored, err := s.durable.GetCheckpoint(ctx, req.Owner)
	if errors.Is(err, model.ErrNotFound) {
		restored, err = durable, nil
	}
	if err != nil {
		return nil, err
	}
	restored.Custody = model.CustodyDelegated
	restored.UpdatedAt = s.clock.Now()

	if err := s.fast.AcceptCustody(ctx, restored); err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return nil, model.ErrAlreadyDelegated
		}
		return nil, err
	}

	s.logger.Warn("delegated session restored from durable venue",
		slog.String("owner", string(req.Owner)),
		slog.Uint64("epoch", restored.Epoch),
	)
	s.publish(model.EventDelegated, req, *restored, nil)

	return restored, nil
}

// UndelegateAndSettle folds the ended session into the profile and returns
// custody to the durable venue as one step
func (s *Service) UndelegateAndSettle(ctx context.Context, req authz.Request) (*model.PlayerProfile, error) {
	if err := s.guard.Authorize(authz.OpUndelegateAndSettle, req); err != nil {
		return nil, err
	}

	release, err := s.registry.Acquire(ctx, req.Owner)
	if err != nil {
		return nil, err
	}
	defer release()

	durableSession, err := s.durable.GetSession(ctx, req.Owner)
	if err != nil {
		return nil, err
	}
	if durableSession.Custody != model.CustodyDelegated {
		return nil, model.ErrNotDelegated
	}

	session, err := s.fast.GetSession(ctx, req.Owner)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: fast venue copy missing, delegate again to restore", model.ErrNotDelegated)
		}
		return nil, err
	}
	if session.Active {
		return nil, model.ErrSessionStillActive
	}

	profile, err := s.durable.GetProfile(ctx, req.Owner)
	if err != nil {
		return nil, err
	}

	snap := session.Snapshot()
	if snap.Epoch <= profile.SettledEpoch {
		return nil, model.ErrAlreadySettled
	}

	now := s.clock.Now()
	settled := profile.Settle(snap)
	settled.UpdatedAt = now

	returned := *session
	returned.Custody = model.CustodyDurable
	returned.UpdatedAt = now

	if err := s.durable.CommitSettlement(ctx, &settled, &returned); err != nil {
		s.logger.Error("failed to commit settlement",
			slog.String("owner", string(req.Owner)),
			slog.Uint64("epoch", snap.Epoch),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	// The durable venue is authoritative from here; a copy left behind is
	// purged by the next delegate or enter
	if err := s.fast.ReleaseCustody(ctx, req.Owner); err != nil {
		s.logger.Warn("failed to release fast venue session",
			slog.String("owner", string(req.Owner)),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("session settled",
		slog.String("owner", string(req.Owner)),
		slog.Uint64("epoch", snap.Epoch),
		slog.Uint64("score", snap.Score),
		slog.Uint64("total_score", settled.TotalScore),
		slog.Int("games_played", int(settled.GamesPlayed)),
	)
	s.publish(model.EventSettled, req, returned, model.SettledPayload{Profile: settled})

	return &settled, nil
}

// CommitCheckpoint replicates the delegated session into the durable venue
// without changing custody, activity or profile totals
func (s *Service) CommitCheckpoint(ctx context.Context, req authz.Request) (*model.GameSession, error) {
	if err := s.guard.Authorize(authz.OpCommitCheckpoint, req); err != nil {
		return nil, err
	}

	release, err := s.registry.Acquire(ctx, req.Owner)
	if err != nil {
		return nil, err
	}
	defer release()

	durableSession, err := s.durable.GetSession(ctx, req.Owner)
	if err != nil {
		return nil, err
	}
	if durableSession.Custody != model.CustodyDelegated {
		return nil, model.ErrNotDelegated
	}

	session, err := s.fast.GetSession(ctx, req.Owner)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNotDelegated
		}
		return nil, err
	}

	if err := s.durable.SaveCheckpoint(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Debug("session checkpointed",
		slog.String("owner", string(req.Owner)),
		slog.Uint64("epoch", session.Epoch),
		slog.Uint64("score", session.Score),
	)
	s.publish(model.EventCheckpoint, req, *session, nil)

	return session, nil
}

// GetCheckpoint returns the latest checkpoint of the owner's session
func (s *Service) GetCheckpoint(ctx context.Context, owner model.OwnerID) (*model.GameSession, error) {
	return s.durable.GetCheckpoint(ctx, owner)
}

func (s *Service) publish(eventType model.EventType, req authz.Request, session model.GameSession, payload any) {
	s.publisher.Publish(model.Event{
		Type:      eventType,
		Timestamp: s.clock.Now(),
		Owner:     req.Owner,
		Signer:    req.Signer,
		Session:   session,
		Payload:   payload,
	})
}
