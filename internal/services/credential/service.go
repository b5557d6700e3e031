package credential

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mcoot/realmledger/internal/dependencies/clock"
	"github.com/mcoot/realmledger/internal/dependencies/random"
	"github.com/mcoot/realmledger/internal/model"
)

// DefaultIssuer is the issuer claim stamped on every credential
const DefaultIssuer = "realmledger"

// Config holds configuration for the credential service
type Config struct {
	Issuer string
	Key    ed25519.PrivateKey
	TTL    time.Duration
}

// DefaultConfig returns default credential configuration. The signing key
// is left empty and must be supplied or generated.
func DefaultConfig() Config {
	return Config{
		Issuer: DefaultIssuer,
		TTL:    time.Hour,
	}
}

// claims is the JWT claim set of a session credential
type claims struct {
	jwt.RegisteredClaims
	Signer string `json:"signer"`
}

// Service issues and verifies session credentials
type Service struct {
	cfg    Config
	clock  clock.Clock
	random random.Random
	logger *slog.Logger
}

// New creates a new credential Service
func New(cfg Config, clock clock.Clock, random random.Random, logger *slog.Logger) (*Service, error) {
	if len(cfg.Key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("credential signing key must be %d bytes", ed25519.PrivateKeySize)
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	return &Service{
		cfg:    cfg,
		clock:  clock,
		random: random,
		logger: logger,
	}, nil
}

// Issue mints a credential binding a fresh session signer to owner
func (s *Service) Issue(owner model.OwnerID) (string, *model.SessionCredential, error) {
	// JWT numeric dates carry whole seconds
	now := s.clock.Now().UTC().Truncate(time.Second)
	cred := &model.SessionCredential{
		ID:        uuid.NewString(),
		Owner:     owner,
		Signer:    model.SignerID("sk_" + s.random.String(22, random.Alphabet)),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.TTL),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   string(owner),
			ID:        cred.ID,
			IssuedAt:  jwt.NewNumericDate(cred.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(cred.ExpiresAt),
		},
		Signer: string(cred.Signer),
	})
	signed, err := token.SignedString(s.cfg.Key)
	if err != nil {
		return "", nil, fmt.Errorf("sign credential: %w", err)
	}

	s.logger.Info("session credential issued",
		slog.String("owner", string(owner)),
		slog.String("signer", string(cred.Signer)),
		slog.String("credential_id", cred.ID),
		slog.Time("expires_at", cred.ExpiresAt),
	)

	return signed, cred, nil
}

// Verify checks a credential token and returns the credential it encodes.
// Expired and malformed tokens fail with model.ErrCredentialInvalid.
func (s *Service) Verify(token string) (*model.SessionCredential, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", model.ErrCredentialInvalid)
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (any, error) {
		return s.cfg.Key.Public(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}

	if parsed.Issuer != s.cfg.Issuer {
		return nil, fmt.Errorf("%w: issuer mismatch", model.ErrCredentialInvalid)
	}
	if parsed.ID == "" || parsed.Subject == "" || parsed.Signer == "" {
		return nil, fmt.Errorf("%w: missing claims", model.ErrCredentialInvalid)
	}
	if parsed.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: exp is required", model.ErrCredentialInvalid)
	}

	cred := &model.SessionCredential{
		ID:        parsed.ID,
		Owner:     model.OwnerID(parsed.Subject),
		Signer:    model.SignerID(parsed.Signer),
		ExpiresAt: parsed.ExpiresAt.Time.UTC(),
	}
	if parsed.IssuedAt != nil {
		cred.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	if cred.Expired(s.clock.Now()) {
		return nil, fmt.Errorf("%w: expired", model.ErrCredentialInvalid)
	}
	return cred, nil
}

// TTL returns the lifetime of issued credentials
func (s *Service) TTL() time.Duration {
	return s.cfg.TTL
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return fmt.Errorf("%w: signature is invalid", model.ErrCredentialInvalid)
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return fmt.Errorf("%w: alg is invalid", model.ErrCredentialInvalid)
	}
	return fmt.Errorf("%w: malformed token", model.ErrCredentialInvalid)
}

// ParseKey decodes a base64 Ed25519 seed or private key
func ParseKey(value string) (ed25519.PrivateKey, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("empty credential key")
	}
	raw, err := base64.RawStdEncoding.DecodeString(value)
	if err != nil {
		raw, err = base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("decode credential key: %w", err)
		}
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	default:
		return nil, fmt.Errorf("credential key must be %d or %d bytes", ed25519.SeedSize, ed25519.PrivateKeySize)
	}
}

// GenerateKey creates a fresh signing key
func GenerateKey() (ed25519.PrivateKey, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	return key, err
}
