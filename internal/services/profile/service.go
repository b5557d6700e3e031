package profile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/realmledger/internal/dependencies/clock"
	"github.com/mcoot/realmledger/internal/model"
	"github.com/mcoot/realmledger/internal/services/authz"
	"github.com/mcoot/realmledger/internal/storage"
)

// Service manages durable player profiles
type Service struct {
	storage storage.DurableStore
	guard   *authz.Guard
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new profile Service
func New(storage storage.DurableStore, guard *authz.Guard, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		guard:   guard,
		clock:   clock,
		logger:  logger,
	}
}

// CreateProfile creates a zeroed profile for req.Owner together with its
// idle session record
func (s *Service) CreateProfile(ctx context.Context, req authz.Request) (*model.PlayerProfile, error) {
	if err := s.guard.Authorize(authz.OpCreateProfile, req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	profile := model.NewPlayerProfile(req.Owner, now)
	session := model.NewGameSession(req.Owner, now)

	if err := s.storage.CreateProfile(ctx, profile, session); err != nil {
		if !errors.Is(err, model.ErrAlreadyExists) {
			s.logger.Error("failed to create profile",
				slog.String("owner", string(req.Owner)),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	s.logger.Info("profile created",
		slog.String("owner", string(req.Owner)),
		slog.String("address", string(profile.Address())),
	)

	return profile, nil
}

// GetProfile retrieves the profile of owner
func (s *Service) GetProfile(ctx context.Context, owner model.OwnerID) (*model.PlayerProfile, error) {
	return s.storage.GetProfile(ctx, owner)
}
