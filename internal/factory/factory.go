package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/realmledger/internal/dependencies/clock"
	"github.com/mcoot/realmledger/internal/dependencies/random"
	"github.com/mcoot/realmledger/internal/services/auth"
	"github.com/mcoot/realmledger/internal/services/authz"
	"github.com/mcoot/realmledger/internal/services/credential"
	"github.com/mcoot/realmledger/internal/services/profile"
	"github.com/mcoot/realmledger/internal/services/registry"
	"github.com/mcoot/realmledger/internal/services/scoring"
	"github.com/mcoot/realmledger/internal/services/session"
	"github.com/mcoot/realmledger/internal/services/settlement"
	"github.com/mcoot/realmledger/internal/sse"
	"github.com/mcoot/realmledger/internal/storage"
	"github.com/mcoot/realmledger/internal/storage/memory"
	redisstorage "github.com/mcoot/realmledger/internal/storage/redis"
	"github.com/mcoot/realmledger/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory     = "memory"
	StorageTypePersistent = "persistent"
)

// Stores groups the storage venues the services run against
type Stores struct {
	Durable storage.DurableStore
	Fast    storage.FastStore
	Signers storage.SignerStore

	closers []io.Closer
}

// Close releases every backing connection
func (s Stores) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MemoryStores returns in-process venues
func MemoryStores() Stores {
	durable := memory.NewDurable()
	return Stores{
		Durable: durable,
		Fast:    memory.NewFast(),
		Signers: durable,
	}
}

// App contains all wired application components
type App struct {
	// Storage
	Stores Stores

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Guard             *authz.Guard
	Registry          *registry.Registry
	ScoringService    *scoring.Service
	AuthService       *auth.Service
	CredentialService *credential.Service
	ProfileService    *profile.Service
	SettlementService *settlement.Service
	SessionController *session.Controller
	HubManager        *sse.HubManager
	Broadcaster       *sse.Broadcaster
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// CredentialConfig holds the credential signing key and lifetime.
	// A key is generated when none is set.
	CredentialConfig credential.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "persistent")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "persistent")
	RedisConfig *redisstorage.Config
	// SQLitePath is the durable database file (required if StorageType is "persistent")
	SQLitePath string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	stores, err := openStores(cfg)
	if err != nil {
		return nil, err
	}

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	credCfg := cfg.CredentialConfig
	if len(credCfg.Key) == 0 {
		key, err := credential.GenerateKey()
		if err != nil {
			_ = stores.Close()
			return nil, err
		}
		credCfg.Key = key
		logger.Warn("no credential signing key configured, generated an ephemeral key")
	}

	app, err := newWithDependencies(stores, clock.New(), random.New(), authCfg, credCfg, logger)
	if err != nil {
		_ = stores.Close()
		return nil, err
	}
	return app, nil
}

func openStores(cfg Config) (Stores, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return MemoryStores(), nil
	case StorageTypePersistent:
		if cfg.RedisConfig == nil {
			return Stores{}, errors.New("RedisConfig required when StorageType is persistent")
		}
		if cfg.SQLitePath == "" {
			return Stores{}, errors.New("SQLitePath required when StorageType is persistent")
		}
		durable, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return Stores{}, fmt.Errorf("open sqlite: %w", err)
		}
		fast, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			_ = durable.Close()
			return Stores{}, fmt.Errorf("connect redis: %w", err)
		}
		return Stores{
			Durable: durable,
			Fast:    fast,
			Signers: durable,
			closers: []io.Closer{fast, durable},
		}, nil
	default:
		return Stores{}, errors.New("invalid StorageType: must be 'memory' or 'persistent'")
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	stores Stores,
	clk clock.Clock,
	rnd random.Random,
	authCfg auth.Config,
	credCfg credential.Config,
	logger *slog.Logger,
) (*App, error) {
	credentialService, err := credential.New(credCfg, clk, rnd, logger)
	if err != nil {
		return nil, err
	}

	guard := authz.NewGuard(nil)
	reg := registry.New()
	scoringService := scoring.New()
	hubManager := sse.NewHubManager(logger)
	broadcaster := sse.NewBroadcaster(hubManager, logger)

	return &App{
		Stores:            stores,
		Clock:             clk,
		Random:            rnd,
		Guard:             guard,
		Registry:          reg,
		ScoringService:    scoringService,
		AuthService:       auth.New(stores.Signers, clk, rnd, authCfg, logger),
		CredentialService: credentialService,
		ProfileService:    profile.New(stores.Durable, guard, clk, logger),
		SettlementService: settlement.New(stores.Durable, stores.Fast, reg, guard, credentialService, broadcaster, clk, logger),
		SessionController: session.NewController(stores.Durable, stores.Fast, reg, scoringService, guard, broadcaster, clk, logger),
		HubManager:        hubManager,
		Broadcaster:       broadcaster,
	}, nil
}

// Close shuts down event hubs and storage connections
func (a *App) Close() error {
	a.HubManager.Close()
	return a.Stores.Close()
}
