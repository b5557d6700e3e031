package settlement

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/realmledger/internal/dependencies/mocks"
	"github.com/mcoot/realmledger/internal/model"
	"github.com/mcoot/realmledger/internal/services/authz"
	"github.com/mcoot/realmledger/internal/services/registry"
	"github.com/mcoot/realmledger/internal/services/scoring"
	"github.com/mcoot/realmledger/internal/services/session"
	"github.com/mcoot/realmledger/internal/storage/memory"
	"github.com/mcoot/realmledger/internal/testutil"
)

const owner = model.OwnerID("owner-1")

type stubIssuer struct {
	issued []model.OwnerID
}

func (i *stubIssuer) Issue(owner model.OwnerID) (string, *model.SessionCredential, error) {
	i.issued = append(i.issued, owner)
	return "token", &model.SessionCredential{ID: "cred-1", Owner: owner, Signer: "sk_session"}, nil
}

type ServiceSuite struct {
	suite.Suite
	durable    *memory.Durable
	fast       *memory.Fast
	clock      *mocks.MockClock
	publisher  *mocks.MockPublisher
	issuer     *stubIssuer
	service    *Service
	controller *session.Controller
	ctx        context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.durable = memory.NewDurable()
	s.fast = memory.NewFast()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.publisher = mocks.NewMockPublisher()
	s.issuer = &stubIssuer{}

	reg := registry.New()
	guard := authz.NewGuard(nil)
	logger := testutil.NopLogger()
	s.service = New(s.durable, s.fast, reg, guard, s.issuer, s.publisher, s.clock, logger)
	s.controller = session.NewController(s.durable, s.fast, reg, scoring.New(), guard, s.publisher, s.clock, logger)
	s.ctx = context.Background()

	now := s.clock.Now()
	s.Require().NoError(s.durable.CreateProfile(s.ctx, model.NewPlayerProfile(owner, now), model.NewGameSession(owner, now)))
}

func (s *ServiceSuite) ownerReq() authz.Request {
	return authz.Request{Owner: owner, Signer: model.SignerID(owner)}
}

func (s *ServiceSuite) credentialReq() authz.Request {
	return authz.Request{
		Owner:      owner,
		Signer:     "sk_session",
		Credential: &model.SessionCredential{ID: "cred-1", Owner: owner, Signer: "sk_session"},
	}
}

func (s *ServiceSuite) profile() *model.PlayerProfile {
	p, err := s.durable.GetProfile(s.ctx, owner)
	s.Require().NoError(err)
	return p
}

// playJungle runs the reference session: one block, one attack for 10
// damage and one kill worth 50, then ends the game
func (s *ServiceSuite) playJungle(req authz.Request) {
	_, err := s.controller.Enter(s.ctx, req, "Jungle")
	s.Require().NoError(err)
	_, err = s.controller.PlaceBlock(s.ctx, req, "dirt")
	s.Require().NoError(err)
	_, err = s.controller.Attack(s.ctx, req, "zombie", 10)
	s.Require().NoError(err)
	_, err = s.controller.KillEntity(s.ctx, req, "zombie", 50)
	s.Require().NoError(err)
	_, err = s.controller.EndGame(s.ctx, req)
	s.Require().NoError(err)
}

// Delegate tests

func (s *ServiceSuite) TestDelegateMovesCustody() {
	delegated, err := s.service.Delegate(s.ctx, s.ownerReq())
	s.Require().NoError(err)
	s.Equal(model.CustodyDelegated, delegated.Custody)

	durable, err := s.durable.GetSession(s.ctx, owner)
	s.Require().NoError(err)
	s.Equal(model.CustodyDelegated, durable.Custody)

	fast, err := s.fast.GetSession(s.ctx, owner)
	s.Require().NoError(err)
	s.Equal(model.CustodyDelegated, fast.Custody)
	s.Equal(model.SessionStateIdle, fast.State())

	s.Equal([]model.EventType{model.EventDelegated}, s.publisher.Types())
}

func (s *ServiceSuite) TestDelegateTwiceFails() {
	_, err := s.service.Delegate(s.ctx, s.ownerReq())
	s.Require().NoError(err)

	_, err = s.service.Delegate(s.ctx, s.ownerReq())
	s.ErrorIs(err, model.ErrAlreadyDelegated)
}

func (s *ServiceSuite) TestDelegateRejectsCredential() {
	_, err := s.service.Delegate(s.ctx, s.credentialReq())
	s.ErrorIs(err, model.ErrInvalidAuth)

	_, err = s.fast.GetSession(s.ctx, owner)
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *ServiceSuite) TestDelegateUnknownOwner() {
	_, err := s.service.Delegate(s.ctx, authz.Request{Owner: "nobody", Signer: "nobody"})
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *ServiceSuite) TestDelegateRestoresLostFastCopyFromCheckpoint() {
	_, err := s.service.Delegate(s.ctx, s.ownerReq())
	s.Require().NoError(err)
	_, err = s.controller.Enter(s.ctx, s.ownerReq(), "Jungle")
	s.Require().NoError(err)
	_, err = s.controller.PlaceBlock(s.ctx, s.ownerReq(), "dirt")
	s.Require().NoError(err)
	_, err = s.service.CommitCheckpoint(s.ctx, s.ownerReq())
	s.Require().NoError(err)

	// Fast venue loses the record
	s.Require().NoError(s.fast.ReleaseCustody(s.ctx, owner))

	restored, err := s.service.Delegate(s.ctx, s.ownerReq())
	s.Require().NoError(err)
	s.Equal(uint32(1), restored.BlocksPlaced)
	s.True(restored.Active)

	fast, err := s.fast.GetSession(s.ctx, owner)
	s.Require().NoError(err)
	s.Equal(uint64(1), fast.Score)
}

// UndelegateAndSettle tests

func (s *ServiceSuite) TestJungleScenarioSettles() {
	_, err := s.service.Delegate(s.ctx, s.ownerReq())
	s.Require().NoError(err)
	s.playJungle(s.credentialReq())

	profile, err := s.service.UndelegateAndSettle(s.ctx, s.ownerReq())
	s.Require().NoError(err)

	s.Equal(uint64(1), profile.TotalBlocksPlaced)
	s.Equal(uint64(1), profile.TotalAttacks)
	s.Equal(uint64(1), profile.TotalKills)
	s.Equal(uint64(56), profile.TotalScore)
	s.Equal(uint16(1), profile.GamesPlayed)
	s.Equal(*profile, *s.profile())

	durable, err := s.durable.GetSession(s.ctx, owner)
	s.Require().NoError(err)
	s.Equal(model.CustodyDurable, durable.Custody)
	s.Equal(uint64(56), durable.Score)

	_, err = s.fast.GetSession(s.ctx, owner)
	s.ErrorIs(err, model.ErrNotFound)

	event, ok := s.publisher.Last()
	s.Require().True(ok)
	s.Equal(model.EventSettled, event.Type)
	payload, ok := event.Payload.(model.SettledPayload)
	s.Require().True(ok)
	s.Equal(uint64(56), payload.Profile.TotalScore)
}

func (s *ServiceSuite) TestSettleWhileActiveFails() {
	_, _ = s.service.Delegate(s.ctx, s.ownerReq())
	_, err := s.controller.Enter(s.ctx, s.ownerReq(), "Jungle")
	s.Require().NoError(err)
	_, _ = s.controller.PlaceBlock(s.ctx, s.ownerReq(), "dirt")
	fastBefore, _ := s.fast.GetSession(s.ctx, owner)
	profileBefore := *s.profile()

	_, err = s.service.UndelegateAndSettle(s.ctx, s.ownerReq())
	s.ErrorIs(err, model.ErrSessionStillActive)

	fastAfter, err := s.fast.GetSession(s.ctx, owner)
	s.Require().NoError(err)
	s.Equal(*fastBefore, *fastAfter)
	s.Equal(profileBefore, *s.profile())
}

func (s *ServiceSuite) TestSecondSettlementRejected() {
	_, _ = s.service.Delegate(s.ctx, s.ownerReq())
	s.playJungle(s.ownerReq())
	_, err := s.service.UndelegateAndSettle(s.ctx, s.ownerReq())
	s.Require().NoError(err)

	_, err = s.service.UndelegateAndSettle(s.ctx, s.ownerReq())
	s.ErrorIs(err, model.ErrNotDelegated)
	s.Equal(uint64(56), s.profile().TotalScore)
}

func (s *ServiceSuite) TestRedelegatedSnapshotNotSettledTwice() {
	_, _ = s.service.Delegate(s.ctx, s.ownerReq())
	s.playJungle(s.ownerReq())
	_, err := s.service.UndelegateAndSettle(s.ctx, s.ownerReq())
	s.Require().NoError(err)

	// Delegate again without entering a new session
	_, err = s.service.Delegate(s.ctx, s.ownerReq())
	s.Require().NoError(err)

	_, err = s.service.UndelegateAndSettle(s.ctx, s.ownerReq())
	s.ErrorIs(err, model.ErrAlreadySettled)
	s.Equal(uint64(56), s.profile().TotalScore)
	s.Equal(uint16(1), s.profile().GamesPlayed)
}

func (s *ServiceSuite) TestSecondSessionAccumulates() {
	_, _ = s.service.Delegate(s.ctx, s.ownerReq())
	s.playJungle(s.ownerReq())
	_, _ = s.service.UndelegateAndSettle(s.ctx, s.ownerReq())

	_, err := s.service.Delegate(s.ctx, s.ownerReq())
	s.Require().NoError(err)
	s.playJungle(s.credentialReq())

	profile, err := s.service.UndelegateAndSettle(s.ctx, s.ownerReq())
	s.Require().NoError(err)
	s.Equal(uint64(112), profile.TotalScore)
	s.Equal(uint64(2), profile.TotalKills)
	s.Equal(uint16(2), profile.GamesPlayed)
	s.Equal(uint64(2), profile.SettledEpoch)
}

func (s *ServiceSuite) TestSettleNotDelegated() {
	_, err := s.service.UndelegateAndSettle(s.ctx, s.ownerReq())
	s.ErrorIs(err, model.ErrNotDelegated)
}

func (s *ServiceSuite) TestSettleRejectsCredential() {
	_, _ = s.service.Delegate(s.ctx, s.ownerReq())
	s.playJungle(s.credentialReq())

	_, err := s.service.UndelegateAndSettle(s.ctx, s.credentialReq())
	s.ErrorIs(err, model.ErrInvalidAuth)
	s.Zero(s.profile().GamesPlayed)
}

func (s *ServiceSuite) TestSettleWithLostFastCopyFails() {
	_, _ = s.service.Delegate(s.ctx, s.ownerReq())
	s.playJungle(s.ownerReq())
	s.Require().NoError(s.fast.ReleaseCustody(s.ctx, owner))

	_, err := s.service.UndelegateAndSettle(s.ctx, s.ownerReq())
	s.ErrorIs(err, model.ErrNotDelegated)
	s.Zero(s.profile().GamesPlayed)
}

func (s *ServiceSuite) TestSettleSaturatesTotals() {
	p := s.profile()
	p.TotalScore = math.MaxUint64 - 10
	p.GamesPlayed = math.MaxUint16
	sess, err := s.durable.GetSession(s.ctx, owner)
	s.Require().NoError(err)
	s.Require().NoError(s.durable.CommitSettlement(s.ctx, p, sess))

	_, _ = s.service.Delegate(s.ctx, s.ownerReq())
	s.playJungle(s.ownerReq())

	profile, err := s.service.UndelegateAndSettle(s.ctx, s.ownerReq())
	s.Require().NoError(err)
	s.Equal(uint64(math.MaxUint64), profile.TotalScore)
	s.Equal(uint16(math.MaxUint16), profile.GamesPlayed)
}

// CommitCheckpoint tests

func (s *ServiceSuite) TestCheckpointReplicatesWithoutSettling() {
	_, _ = s.service.Delegate(s.ctx, s.ownerReq())
	_, _ = s.controller.Enter(s.ctx, s.ownerReq(), "Jungle")
	_, _ = s.controller.KillEntity(s.ctx, s.ownerReq(), "zombie", 50)

	checkpoint, err := s.service.CommitCheckpoint(s.ctx, s.credentialReq())
	s.Require().NoError(err)
	s.True(checkpoint.Active)
	s.Equal(uint64(50), checkpoint.Score)

	stored, err := s.service.GetCheckpoint(s.ctx, owner)
	s.Require().NoError(err)
	s.Equal(*checkpoint, *stored)

	s.Zero(s.profile().TotalScore)
	durable, _ := s.durable.GetSession(s.ctx, owner)
	s.Equal(model.CustodyDelegated, durable.Custody)
	fast, _ := s.fast.GetSession(s.ctx, owner)
	s.True(fast.Active)
}

func (s *ServiceSuite) TestCheckpointIsRepeatable() {
	_, _ = s.service.Delegate(s.ctx, s.ownerReq())
	_, _ = s.controller.Enter(s.ctx, s.ownerReq(), "Jungle")

	for i := 0; i < 3; i++ {
		_, _ = s.controller.PlaceBlock(s.ctx, s.ownerReq(), "dirt")
		_, err := s.service.CommitCheckpoint(s.ctx, s.ownerReq())
		s.Require().NoError(err)
	}

	stored, err := s.service.GetCheckpoint(s.ctx, owner)
	s.Require().NoError(err)
	s.Equal(uint32(3), stored.BlocksPlaced)
}

func (s *ServiceSuite) TestCheckpointNotDelegated() {
	_, err := s.service.CommitCheckpoint(s.ctx, s.ownerReq())
	s.ErrorIs(err, model.ErrNotDelegated)
}

func (s *ServiceSuite) TestCheckpointClearedBySettlement() {
	_, _ = s.service.Delegate(s.ctx, s.ownerReq())
	_, _ = s.controller.Enter(s.ctx, s.ownerReq(), "Jungle")
	_, _ = s.service.CommitCheckpoint(s.ctx, s.ownerReq())
	_, _ = s.controller.EndGame(s.ctx, s.ownerReq())

	_, err := s.service.UndelegateAndSettle(s.ctx, s.ownerReq())
	s.Require().NoError(err)

	_, err = s.service.GetCheckpoint(s.ctx, owner)
	s.ErrorIs(err, model.ErrNotFound)
}

// IssueCredential tests

func (s *ServiceSuite) TestIssueCredential() {
	token, cred, err := s.service.IssueCredential(s.ctx, s.ownerReq())
	s.Require().NoError(err)
	s.Equal("token", token)
	s.Equal(owner, cred.Owner)
	s.Equal([]model.OwnerID{owner}, s.issuer.issued)
}

func (s *ServiceSuite) TestIssueCredentialRequiresOwner() {
	_, _, err := s.service.IssueCredential(s.ctx, s.credentialReq())
	s.ErrorIs(err, model.ErrInvalidAuth)
	s.Empty(s.issuer.issued)
}

func (s *ServiceSuite) TestIssueCredentialRequiresProfile() {
	_, _, err := s.service.IssueCredential(s.ctx, authz.Request{Owner: "nobody", Signer: "nobody"})
	s.True(errors.Is(err, model.ErrNotFound))
}
