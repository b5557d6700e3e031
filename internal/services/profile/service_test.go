package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/realmledger/internal/dependencies/mocks"
	"github.com/mcoot/realmledger/internal/model"
	"github.com/mcoot/realmledger/internal/services/authz"
	"github.com/mcoot/realmledger/internal/storage/memory"
	"github.com/mcoot/realmledger/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Durable
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.NewDurable()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, authz.NewGuard(nil), s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

func ownerRequest(owner model.OwnerID) authz.Request {
	return authz.Request{Owner: owner, Signer: model.SignerID(owner)}
}

func (s *ServiceSuite) TestCreateProfileZeroed() {
	profile, err := s.service.CreateProfile(s.ctx, ownerRequest("owner-1"))
	s.Require().NoError(err)

	s.Equal(model.OwnerID("owner-1"), profile.OwnerID)
	s.Zero(profile.TotalBlocksPlaced)
	s.Zero(profile.TotalAttacks)
	s.Zero(profile.TotalKills)
	s.Zero(profile.TotalScore)
	s.Zero(profile.GamesPlayed)
	s.Equal(s.clock.Now(), profile.CreatedAt)
}

func (s *ServiceSuite) TestCreateProfileAllocatesIdleSession() {
	_, err := s.service.CreateProfile(s.ctx, ownerRequest("owner-1"))
	s.Require().NoError(err)

	session, err := s.storage.GetSession(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.Equal(model.SessionStateIdle, session.State())
	s.Equal(model.CustodyDurable, session.Custody)
}

func (s *ServiceSuite) TestCreateProfileTwiceFails() {
	_, err := s.service.CreateProfile(s.ctx, ownerRequest("owner-1"))
	s.Require().NoError(err)

	_, err = s.service.CreateProfile(s.ctx, ownerRequest("owner-1"))
	s.ErrorIs(err, model.ErrAlreadyExists)
}

func (s *ServiceSuite) TestCreateProfileRequiresOwnerSignature() {
	_, err := s.service.CreateProfile(s.ctx, authz.Request{Owner: "owner-1", Signer: "someone-else"})
	s.ErrorIs(err, model.ErrInvalidAuth)

	_, err = s.service.GetProfile(s.ctx, "owner-1")
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *ServiceSuite) TestCreateProfileRejectsCredentialHolder() {
	req := authz.Request{
		Owner:  "owner-1",
		Signer: "sk_abc",
		Credential: &model.SessionCredential{
			Owner:  "owner-1",
			Signer: "sk_abc",
		},
	}
	_, err := s.service.CreateProfile(s.ctx, req)
	s.ErrorIs(err, model.ErrInvalidAuth)
}

func (s *ServiceSuite) TestGetProfile() {
	created, err := s.service.CreateProfile(s.ctx, ownerRequest("owner-1"))
	s.Require().NoError(err)

	got, err := s.service.GetProfile(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.Equal(created.OwnerID, got.OwnerID)
}

func (s *ServiceSuite) TestGetProfileNotFound() {
	_, err := s.service.GetProfile(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrNotFound)
}
