package storagetest

import (
	"context"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/realmledger/internal/model"
	"github.com/mcoot/realmledger/internal/storage"
)

// FastSuite exercises a storage.FastStore implementation
type FastSuite struct {
	suite.Suite
	NewStore func() storage.FastStore

	store storage.FastStore
	ctx   context.Context
}

func (s *FastSuite) SetupTest() {
	s.store = s.NewStore()
	s.ctx = context.Background()
}

func (s *FastSuite) delegated(owner model.OwnerID) *model.GameSession {
	session := model.NewGameSession(owner, testTime)
	session.Custody = model.CustodyDelegated
	return session
}

func (s *FastSuite) TestAcceptAndGetSession() {
	s.Require().NoError(s.store.AcceptCustody(s.ctx, s.delegated("owner-1")))

	session, err := s.store.GetSession(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.Equal(model.OwnerID("owner-1"), session.OwnerID)
	s.Equal(model.CustodyDelegated, session.Custody)
}

func (s *FastSuite) TestAcceptCustodyTwiceFails() {
	s.Require().NoError(s.store.AcceptCustody(s.ctx, s.delegated("owner-1")))

	err := s.store.AcceptCustody(s.ctx, s.delegated("owner-1"))
	s.ErrorIs(err, model.ErrAlreadyExists)
}

func (s *FastSuite) TestGetSessionNotFound() {
	_, err := s.store.GetSession(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *FastSuite) TestSaveSession() {
	session := s.delegated("owner-1")
	s.Require().NoError(s.store.AcceptCustody(s.ctx, session))

	s.Require().NoError(session.Enter("owner-1", "Jungle"))
	s.Require().NoError(session.Record(model.ActionKillEntity, 50))
	s.Require().NoError(s.store.SaveSession(s.ctx, session))

	stored, err := s.store.GetSession(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.True(stored.Active)
	s.Equal("Jungle", stored.Realm)
	s.Equal(uint64(50), stored.Score)
	s.Equal(uint32(1), stored.Kills)
}

func (s *FastSuite) TestSaveSessionWithoutCustodyFails() {
	err := s.store.SaveSession(s.ctx, s.delegated("owner-1"))
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *FastSuite) TestReleaseCustody() {
	s.Require().NoError(s.store.AcceptCustody(s.ctx, s.delegated("owner-1")))
	s.Require().NoError(s.store.ReleaseCustody(s.ctx, "owner-1"))

	_, err := s.store.GetSession(s.ctx, "owner-1")
	s.ErrorIs(err, model.ErrNotFound)

	// Custody can be taken again after release
	s.Require().NoError(s.store.AcceptCustody(s.ctx, s.delegated("owner-1")))
}

func (s *FastSuite) TestReleaseCustodyIsIdempotent() {
	s.NoError(s.store.ReleaseCustody(s.ctx, "nobody"))
}
