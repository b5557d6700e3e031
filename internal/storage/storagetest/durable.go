// Package storagetest holds behavioural suites shared by every storage
// backend.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/realmledger/internal/model"
	"github.com/mcoot/realmledger/internal/storage"
)

var testTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// DurableSuite exercises a storage.DurableStore implementation
type DurableSuite struct {
	suite.Suite
	NewStore func() storage.DurableStore

	store storage.DurableStore
	ctx   context.Context
}

func (s *DurableSuite) SetupTest() {
	s.store = s.NewStore()
	s.ctx = context.Background()
}

func (s *DurableSuite) createProfile(owner model.OwnerID) {
	err := s.store.CreateProfile(s.ctx, model.NewPlayerProfile(owner, testTime), model.NewGameSession(owner, testTime))
	s.Require().NoError(err)
}

func (s *DurableSuite) TestCreateAndGetProfile() {
	s.createProfile("owner-1")

	profile, err := s.store.GetProfile(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.Equal(model.OwnerID("owner-1"), profile.OwnerID)
	s.Zero(profile.TotalScore)
	s.Zero(profile.GamesPlayed)
	s.True(testTime.Equal(profile.CreatedAt))

	session, err := s.store.GetSession(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.Equal(model.CustodyDurable, session.Custody)
	s.False(session.Active)
}

func (s *DurableSuite) TestCreateProfileTwiceFails() {
	s.createProfile("owner-1")

	err := s.store.CreateProfile(s.ctx, model.NewPlayerProfile("owner-1", testTime), model.NewGameSession("owner-1", testTime))
	s.ErrorIs(err, model.ErrAlreadyExists)
}

func (s *DurableSuite) TestGetProfileNotFound() {
	_, err := s.store.GetProfile(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *DurableSuite) TestGetSessionNotFound() {
	_, err := s.store.GetSession(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *DurableSuite) TestSetCustody() {
	s.createProfile("owner-1")

	s.Require().NoError(s.store.SetCustody(s.ctx, "owner-1", model.CustodyDelegated))

	session, err := s.store.GetSession(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.Equal(model.CustodyDelegated, session.Custody)
}

func (s *DurableSuite) TestSetCustodyNotFound() {
	err := s.store.SetCustody(s.ctx, "nobody", model.CustodyDelegated)
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *DurableSuite) TestCheckpointDoesNotTouchSessionRecord() {
	s.createProfile("owner-1")

	live := model.NewGameSession("owner-1", testTime)
	s.Require().NoError(live.Enter("owner-1", "Jungle"))
	s.Require().NoError(live.Record(model.ActionPlaceBlock, 1))
	live.Custody = model.CustodyDelegated

	s.Require().NoError(s.store.SaveCheckpoint(s.ctx, live))
	s.Require().NoError(s.store.SaveCheckpoint(s.ctx, live))

	checkpoint, err := s.store.GetCheckpoint(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.Equal(uint32(1), checkpoint.BlocksPlaced)
	s.True(checkpoint.Active)

	session, err := s.store.GetSession(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.False(session.Active)
	s.Zero(session.BlocksPlaced)
}

func (s *DurableSuite) TestCheckpointRequiresAllocatedSession() {
	err := s.store.SaveCheckpoint(s.ctx, model.NewGameSession("nobody", testTime))
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *DurableSuite) TestCommitSettlement() {
	s.createProfile("owner-1")

	profile, err := s.store.GetProfile(s.ctx, "owner-1")
	s.Require().NoError(err)
	settled := profile.Settle(model.SessionSnapshot{BlocksPlaced: 1, Attacks: 1, Kills: 1, Score: 56, Epoch: 1})

	session := model.NewGameSession("owner-1", testTime)
	session.Realm = "Jungle"
	session.Score = 56
	session.Epoch = 1

	s.Require().NoError(s.store.CommitSettlement(s.ctx, &settled, session))

	stored, err := s.store.GetProfile(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.Equal(uint64(56), stored.TotalScore)
	s.Equal(uint16(1), stored.GamesPlayed)
	s.Equal(uint64(1), stored.SettledEpoch)

	storedSession, err := s.store.GetSession(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.Equal(model.CustodyDurable, storedSession.Custody)
	s.Equal("Jungle", storedSession.Realm)
	s.Equal(uint64(1), storedSession.Epoch)
}

func (s *DurableSuite) TestCommitSettlementUnknownProfile() {
	settled := model.NewPlayerProfile("nobody", testTime)
	err := s.store.CommitSettlement(s.ctx, settled, model.NewGameSession("nobody", testTime))
	s.ErrorIs(err, model.ErrNotFound)
}

// SignerSuite exercises a storage.SignerStore implementation
type SignerSuite struct {
	suite.Suite
	NewStore func() storage.SignerStore

	store storage.SignerStore
	ctx   context.Context
}

func (s *SignerSuite) SetupTest() {
	s.store = s.NewStore()
	s.ctx = context.Background()
}

func (s *SignerSuite) TestSaveAndGetSigner() {
	signer := &model.Signer{ID: "s_1", Username: "alice", PasswordHash: "hash", CreatedAt: testTime}
	s.Require().NoError(s.store.SaveSigner(s.ctx, signer))

	byID, err := s.store.GetSigner(s.ctx, "s_1")
	s.Require().NoError(err)
	s.Equal("alice", byID.Username)

	byName, err := s.store.GetSignerByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.SignerID("s_1"), byName.ID)
}

func (s *SignerSuite) TestGetSignerNotFound() {
	_, err := s.store.GetSigner(s.ctx, "missing")
	s.ErrorIs(err, model.ErrNotFound)

	_, err = s.store.GetSignerByUsername(s.ctx, "missing")
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *SignerSuite) TestDuplicateUsernameRejected() {
	s.Require().NoError(s.store.SaveSigner(s.ctx, &model.Signer{ID: "s_1", Username: "alice"}))

	err := s.store.SaveSigner(s.ctx, &model.Signer{ID: "s_2", Username: "alice"})
	s.ErrorIs(err, model.ErrAlreadyExists)
}
