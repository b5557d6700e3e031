package credential

import (
	"crypto/ed25519"
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/realmledger/internal/dependencies/mocks"
	"github.com/mcoot/realmledger/internal/model"
	"github.com/mcoot/realmledger/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	key     ed25519.PrivateKey
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.key = ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))
	s.service = s.newService(s.key)
}

func (s *ServiceSuite) newService(key ed25519.PrivateKey) *Service {
	cfg := DefaultConfig()
	cfg.Key = key
	service, err := New(cfg, s.clock, s.random, testutil.NopLogger())
	s.Require().NoError(err)
	return service
}

func (s *ServiceSuite) TestNewRejectsMissingKey() {
	_, err := New(DefaultConfig(), s.clock, s.random, testutil.NopLogger())
	s.Error(err)
}

// Issue tests

func (s *ServiceSuite) TestIssueBindsFreshSignerToOwner() {
	s.random.QueueString("abc")

	token, cred, err := s.service.Issue("owner-1")
	s.Require().NoError(err)

	s.NotEmpty(token)
	s.NotEmpty(cred.ID)
	s.Equal(model.OwnerID("owner-1"), cred.Owner)
	s.Equal(model.SignerID("sk_abc"), cred.Signer)
	s.Equal(s.clock.Now(), cred.IssuedAt)
	s.Equal(s.clock.Now().Add(time.Hour), cred.ExpiresAt)
}

func (s *ServiceSuite) TestIssueUsesUniqueIDs() {
	_, first, err := s.service.Issue("owner-1")
	s.Require().NoError(err)
	_, second, err := s.service.Issue("owner-1")
	s.Require().NoError(err)

	s.NotEqual(first.ID, second.ID)
}

// Verify tests

func (s *ServiceSuite) TestVerifyRoundTrip() {
	s.random.QueueString("abc")
	token, issued, err := s.service.Issue("owner-1")
	s.Require().NoError(err)

	verified, err := s.service.Verify(token)
	s.Require().NoError(err)
	s.Equal(issued, verified)
}

func (s *ServiceSuite) TestVerifyRejectsExpired() {
	token, _, err := s.service.Issue("owner-1")
	s.Require().NoError(err)

	s.clock.Advance(time.Hour)

	_, err = s.service.Verify(token)
	s.ErrorIs(err, model.ErrCredentialInvalid)
}

func (s *ServiceSuite) TestVerifyAcceptsBeforeExpiry() {
	token, _, err := s.service.Issue("owner-1")
	s.Require().NoError(err)

	s.clock.Advance(59 * time.Minute)

	_, err = s.service.Verify(token)
	s.NoError(err)
}

func (s *ServiceSuite) TestVerifyRejectsForeignKey() {
	other := s.newService(ed25519.NewKeyFromSeed([]byte("0123456789abcdef0123456789abcdef")))
	token, _, err := other.Issue("owner-1")
	s.Require().NoError(err)

	_, err = s.service.Verify(token)
	s.ErrorIs(err, model.ErrCredentialInvalid)
}

func (s *ServiceSuite) TestVerifyRejectsGarbage() {
	_, err := s.service.Verify("not-a-token")
	s.ErrorIs(err, model.ErrCredentialInvalid)

	_, err = s.service.Verify("   ")
	s.ErrorIs(err, model.ErrCredentialInvalid)
}

func (s *ServiceSuite) TestVerifyRejectsOtherIssuer() {
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "owner-1",
			ID:        "cred-1",
			ExpiresAt: jwt.NewNumericDate(s.clock.Now().Add(time.Hour)),
		},
		Signer: "sk_abc",
	})
	signed, err := token.SignedString(s.key)
	s.Require().NoError(err)

	_, err = s.service.Verify(signed)
	s.ErrorIs(err, model.ErrCredentialInvalid)
}

func (s *ServiceSuite) TestVerifyRejectsMissingSigner() {
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    DefaultIssuer,
			Subject:   "owner-1",
			ID:        "cred-1",
			ExpiresAt: jwt.NewNumericDate(s.clock.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(s.key)
	s.Require().NoError(err)

	_, err = s.service.Verify(signed)
	s.ErrorIs(err, model.ErrCredentialInvalid)
}

// ParseKey tests

func (s *ServiceSuite) TestParseKeyAcceptsSeed() {
	seed := make([]byte, ed25519.SeedSize)
	seed[0] = 7

	key, err := ParseKey(base64.StdEncoding.EncodeToString(seed))
	s.Require().NoError(err)
	s.Equal(ed25519.NewKeyFromSeed(seed), key)
}

func (s *ServiceSuite) TestParseKeyAcceptsFullKey() {
	key, err := ParseKey(base64.RawStdEncoding.EncodeToString(s.key))
	s.Require().NoError(err)
	s.Equal(s.key, key)
}

func (s *ServiceSuite) TestParseKeyRejectsBadInput() {
	_, err := ParseKey("")
	s.Error(err)

	_, err = ParseKey(base64.StdEncoding.EncodeToString([]byte("short")))
	s.Error(err)
}

func (s *ServiceSuite) TestGenerateKey() {
	key, err := GenerateKey()
	s.Require().NoError(err)
	s.Len(key, ed25519.PrivateKeySize)
}
