package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/realmledger/internal/dependencies/clock"
	"github.com/mcoot/realmledger/internal/model"
	"github.com/mcoot/realmledger/internal/services/authz"
	"github.com/mcoot/realmledger/internal/services/registry"
	"github.com/mcoot/realmledger/internal/services/scoring"
	"github.com/mcoot/realmledger/internal/storage"
)

// Controller runs the session state machine against the delegated copy of
// each owner's session
type Controller struct {
	durable        storage.DurableStore
	fast           storage.FastStore
	registry       *registry.Registry
	scoringService *scoring.Service
	guard          *authz.Guard
	publisher      model.EventPublisher
	clock          clock.Clock
	logger         *slog.Logger
}

// NewController creates a new session Controller
func NewController(
	durable storage.DurableStore,
	fast storage.FastStore,
	registry *registry.Registry,
	scoringService *scoring.Service,
	guard *authz.Guard,
	publisher model.EventPublisher,
	clock clock.Clock,
	logger *slog.Logger,
) *Controller {
	if publisher == nil {
		publisher = model.NopPublisher{}
	}
	return &Controller{
		durable:        durable,
		fast:           fast,
		registry:       registry,
		scoringService: scoringService,
		guard:          guard,
		publisher:      publisher,
		clock:          clock,
		logger:         logger,
	}
}

// GetSession returns the owner's session from whichever venue holds custody
func (c *Controller) GetSession(ctx context.Context, owner model.OwnerID) (*model.GameSession, error) {
	session, err := c.fast.GetSession(ctx, owner)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	return c.durable.GetSession(ctx, owner)
}

// Enter opens a new session in realm, resetting all counters
func (c *Controller) Enter(ctx context.Context, req authz.Request, realm string) (*model.GameSession, error) {
	session, err := c.transition(ctx, authz.OpEnter, req, true, func(s *model.GameSession) (model.EventType, any, error) {
		if err := s.Enter(req.Owner, realm); err != nil {
			return "", nil, err
		}
		return model.EventSessionEntered, nil, nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("session entered",
		slog.String("owner", string(req.Owner)),
		slog.String("realm", realm),
		slog.Uint64("epoch", session.Epoch),
	)
	return session, nil
}

// PlaceBlock records a placed block
func (c *Controller) PlaceBlock(ctx context.Context, req authz.Request, blockType string) (*model.GameSession, error) {
	return c.act(ctx, authz.OpPlaceBlock, req, model.EventBlockPlaced, scoring.Action{
		Kind:    model.ActionPlaceBlock,
		Subject: blockType,
	})
}

// Attack records an attack dealing damage
func (c *Controller) Attack(ctx context.Context, req authz.Request, targetType string, damage uint8) (*model.GameSession, error) {
	return c.act(ctx, authz.OpAttack, req, model.EventAttack, scoring.Action{
		Kind:    model.ActionAttack,
		Subject: targetType,
		Damage:  damage,
	})
}

// KillEntity records a kill worth scoreReward
func (c *Controller) KillEntity(ctx context.Context, req authz.Request, entityType string, scoreReward uint64) (*model.GameSession, error) {
	return c.act(ctx, authz.OpKillEntity, req, model.EventEntityKilled, scoring.Action{
		Kind:    model.ActionKillEntity,
		Subject: entityType,
		Reward:  scoreReward,
	})
}

// EndGame closes the active session, freezing its counters
func (c *Controller) EndGame(ctx context.Context, req authz.Request) (*model.GameSession, error) {
	session, err := c.transition(ctx, authz.OpEndGame, req, false, func(s *model.GameSession) (model.EventType, any, error) {
		if err := s.EndGame(); err != nil {
			return "", nil, err
		}
		return model.EventGameEnded, nil, nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("session ended",
		slog.String("owner", string(req.Owner)),
		slog.String("realm", session.Realm),
		slog.Uint64("score", session.Score),
	)
	return session, nil
}

func (c *Controller) act(ctx context.Context, op authz.Operation, req authz.Request, eventType model.EventType, action scoring.Action) (*model.GameSession, error) {
	return c.transition(ctx, op, req, false, func(s *model.GameSession) (model.EventType, any, error) {
		score, err := c.scoringService.Apply(s, action)
		if err != nil {
			return "", nil, err
		}
		return eventType, model.ActionPayload{Kind: action.Kind, Subject: action.Subject, Score: score}, nil
	})
}

// transition authorizes op, applies fn to a copy of the delegated session
// and persists the copy only if fn succeeds. A strict transition also
// confirms custody with the durable venue.
func (c *Controller) transition(
	ctx context.Context,
	op authz.Operation,
	req authz.Request,
	strict bool,
	fn func(*model.GameSession) (model.EventType, any, error),
) (*model.GameSession, error) {
	if err := c.guard.Authorize(op, req); err != nil {
		return nil, err
	}

	release, err := c.registry.Acquire(ctx, req.Owner)
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := c.loadDelegated(ctx, req.Owner, strict)
	if err != nil {
		return nil, err
	}

	next := *current
	eventType, payload, err := fn(&next)
	if err != nil {
		return nil, err
	}
	next.UpdatedAt = c.clock.Now()

	if err := c.fast.SaveSession(ctx, &next); err != nil {
		c.logger.Error("failed to save session",
			slog.String("owner", string(req.Owner)),
			slog.String("op", string(op)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.publisher.Publish(model.Event{
		Type:      eventType,
		Timestamp: next.UpdatedAt,
		Owner:     req.Owner,
		Signer:    req.Signer,
		Session:   next,
		Payload:   payload,
	})

	return &next, nil
}

// loadDelegated reads the fast venue copy, distinguishing a missing profile
// from a session that was never delegated. In strict mode a fast copy left
// behind by an interrupted settlement is purged instead of reused.
func (c *Controller) loadDelegated(ctx context.Context, owner model.OwnerID, strict bool) (*model.GameSession, error) {
	session, err := c.fast.GetSession(ctx, owner)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	if err == nil && !strict {
		return session, nil
	}

	durable, derr := c.durable.GetSession(ctx, owner)
	if derr != nil {
		return nil, derr
	}
	if err != nil {
		return nil, model.ErrNotDelegated
	}
	if durable.Custody != model.CustodyDelegated {
		c.logger.Warn("purging stale fast venue session",
			slog.String("owner", string(owner)),
			slog.Uint64("epoch", session.Epoch),
		)
		if err := c.fast.ReleaseCustody(ctx, owner); err != nil {
			return nil, err
		}
		return nil, model.ErrNotDelegated
	}
	return session, nil
}
