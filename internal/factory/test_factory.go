package factory

import (
	"crypto/ed25519"
	"time"

	"github.com/mcoot/realmledger/internal/dependencies/mocks"
	"github.com/mcoot/realmledger/internal/services/auth"
	"github.com/mcoot/realmledger/internal/services/credential"
	"github.com/mcoot/realmledger/internal/testutil"
)

// TestEpoch is the initial time of every TestApp clock
var TestEpoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App on in-memory storage with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithStores(MemoryStores())
}

// NewTestAppWithStores creates an App over the given venues with mocked
// dependencies
func NewTestAppWithStores(stores Stores) *TestApp {
	mockClock := mocks.NewMockClock(TestEpoch)
	mockRandom := mocks.NewMockRandom()

	credCfg := credential.DefaultConfig()
	credCfg.Key = TestCredentialKey()

	app, err := newWithDependencies(stores, mockClock, mockRandom, auth.DefaultConfig(), credCfg, testutil.NopLogger())
	if err != nil {
		panic(err)
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// TestCredentialKey returns a fixed signing key
func TestCredentialKey() ed25519.PrivateKey {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	return ed25519.NewKeyFromSeed(seed)
}
