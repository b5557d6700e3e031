package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/realmledger/internal/model"
	"github.com/mcoot/realmledger/internal/storage"
)

// Storage is a Redis-backed implementation of the fast execution venue.
// Delegated sessions never expire; custody only ends through ReleaseCustody.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.FastStore = (*Storage)(nil)

func (s *Storage) AcceptCustody(ctx context.Context, session *model.GameSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, sessionKey(session.OwnerID), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrAlreadyExists
	}
	return nil
}

func (s *Storage) GetSession(ctx context.Context, owner model.OwnerID) (*model.GameSession, error) {
	data, err := s.client.Get(ctx, sessionKey(owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	var session model.GameSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) SaveSession(ctx context.Context, session *model.GameSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	// Only overwrite a record this venue already holds custody of
	ok, err := s.client.SetXX(ctx, sessionKey(session.OwnerID), data, redis.KeepTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrNotFound
	}
	return nil
}

func (s *Storage) ReleaseCustody(ctx context.Context, owner model.OwnerID) error {
	return s.client.Del(ctx, sessionKey(owner)).Err()
}
