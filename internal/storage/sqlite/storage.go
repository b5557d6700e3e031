package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcoot/realmledger/internal/model"
	"github.com/mcoot/realmledger/internal/storage"
)

// Storage is a SQLite-backed implementation of the durable venue
type Storage struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path
func Open(path string) (*Storage, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Writes are serialized through one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interfaces
var (
	_ storage.DurableStore = (*Storage)(nil)
	_ storage.SignerStore  = (*Storage)(nil)
)

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			address TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL UNIQUE,
			total_blocks_placed INTEGER NOT NULL,
			total_attacks INTEGER NOT NULL,
			total_kills INTEGER NOT NULL,
			total_score INTEGER NOT NULL,
			games_played INTEGER NOT NULL,
			settled_epoch INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			address TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL UNIQUE,
			realm TEXT NOT NULL,
			blocks_placed INTEGER NOT NULL,
			attacks INTEGER NOT NULL,
			kills INTEGER NOT NULL,
			score INTEGER NOT NULL,
			active INTEGER NOT NULL,
			epoch INTEGER NOT NULL,
			custody TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS checkpoints (
			address TEXT PRIMARY KEY REFERENCES sessions(address),
			payload TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS signers (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SQLite integers are signed 64-bit; unsigned counters are stored
// bit-for-bit so values past math.MaxInt64 survive a round trip.

func toDB(v uint64) int64 {
	return int64(v)
}

func fromDB(v int64) uint64 {
	return uint64(v)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Profile operations

func (s *Storage) CreateProfile(ctx context.Context, profile *model.PlayerProfile, session *model.GameSession) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `INSERT INTO profiles (
			address, owner_id, total_blocks_placed, total_attacks, total_kills,
			total_score, games_played, settled_epoch, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		string(profile.Address()), string(profile.OwnerID),
		toDB(profile.TotalBlocksPlaced), toDB(profile.TotalAttacks), toDB(profile.TotalKills),
		toDB(profile.TotalScore), int64(profile.GamesPlayed), toDB(profile.SettledEpoch),
		formatTime(profile.CreatedAt), formatTime(profile.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return model.ErrAlreadyExists
	}

	res, err = tx.ExecContext(ctx, `INSERT INTO sessions (
			address, owner_id, realm, blocks_placed, attacks, kills, score,
			active, epoch, custody, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		sessionArgs(session)...,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return model.ErrAlreadyExists
	}

	return tx.Commit()
}

func (s *Storage) GetProfile(ctx context.Context, owner model.OwnerID) (*model.PlayerProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT owner_id, total_blocks_placed, total_attacks,
			total_kills, total_score, games_played, settled_epoch, created_at, updated_at
		FROM profiles WHERE address = ?`,
		string(model.DeriveAddress(model.NamespaceProfile, owner)),
	)

	var (
		p                                  model.PlayerProfile
		ownerID, createdAt, updatedAt      string
		blocks, attacks, kills, score, eps int64
		games                              int64
	)
	if err := row.Scan(&ownerID, &blocks, &attacks, &kills, &score, &games, &eps, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	p.OwnerID = model.OwnerID(ownerID)
	p.TotalBlocksPlaced = fromDB(blocks)
	p.TotalAttacks = fromDB(attacks)
	p.TotalKills = fromDB(kills)
	p.TotalScore = fromDB(score)
	p.GamesPlayed = uint16(games)
	p.SettledEpoch = fromDB(eps)

	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Session operations

func sessionArgs(session *model.GameSession) []any {
	active := 0
	if session.Active {
		active = 1
	}
	return []any{
		string(session.Address()), string(session.OwnerID), session.Realm,
		int64(session.BlocksPlaced), int64(session.Attacks), int64(session.Kills),
		toDB(session.Score), active, toDB(session.Epoch), string(session.Custody),
		formatTime(session.UpdatedAt),
	}
}

func (s *Storage) GetSession(ctx context.Context, owner model.OwnerID) (*model.GameSession, error) {
	row := s.db.QueryRowContext(ctx, `SELECT owner_id, realm, blocks_placed, attacks, kills,
			score, active, epoch, custody, updated_at
		FROM sessions WHERE address = ?`,
		string(model.DeriveAddress(model.NamespaceSession, owner)),
	)

	var (
		session                        model.GameSession
		ownerID, custody, updatedAt    string
		blocks, attacks, kills, active int64
		score, epoch                   int64
	)
	if err := row.Scan(&ownerID, &session.Realm, &blocks, &attacks, &kills, &score, &active, &epoch, &custody, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	session.OwnerID = model.OwnerID(ownerID)
	session.BlocksPlaced = uint32(blocks)
	session.Attacks = uint32(attacks)
	session.Kills = uint32(kills)
	session.Score = fromDB(score)
	session.Active = active != 0
	session.Epoch = fromDB(epoch)
	session.Custody = model.Custody(custody)

	var err error
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) SetCustody(ctx context.Context, owner model.OwnerID, custody model.Custody) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET custody = ? WHERE address = ?`,
		string(custody), string(model.DeriveAddress(model.NamespaceSession, owner)),
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Storage) SaveCheckpoint(ctx context.Context, session *model.GameSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	addr := string(session.Address())
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE address = ?`, addr).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrNotFound
		}
		return err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO checkpoints (address, payload, recorded_at)
		VALUES (?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET payload = excluded.payload, recorded_at = excluded.recorded_at`,
		addr, string(payload), formatTime(session.UpdatedAt),
	)
	return err
}

func (s *Storage) GetCheckpoint(ctx context.Context, owner model.OwnerID) (*model.GameSession, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM checkpoints WHERE address = ?`,
		string(model.DeriveAddress(model.NamespaceSession, owner)),
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	var session model.GameSession
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) CommitSettlement(ctx context.Context, profile *model.PlayerProfile, session *model.GameSession) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE profiles SET
			total_blocks_placed = ?, total_attacks = ?, total_kills = ?, total_score = ?,
			games_played = ?, settled_epoch = ?, updated_at = ?
		WHERE address = ?`,
		toDB(profile.TotalBlocksPlaced), toDB(profile.TotalAttacks), toDB(profile.TotalKills),
		toDB(profile.TotalScore), int64(profile.GamesPlayed), toDB(profile.SettledEpoch),
		formatTime(profile.UpdatedAt), string(profile.Address()),
	)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}

	if err := updateSession(ctx, tx, session); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM checkpoints WHERE address = ?`, string(session.Address())); err != nil {
		return err
	}

	return tx.Commit()
}

func updateSession(ctx context.Context, db execer, session *model.GameSession) error {
	args := sessionArgs(session)
	// The address leads sessionArgs but belongs in the WHERE clause
	params := make([]any, 0, len(args))
	params = append(params, args[1:]...)
	params = append(params, args[0])
	res, err := db.ExecContext(ctx, `UPDATE sessions SET
			owner_id = ?, realm = ?, blocks_placed = ?, attacks = ?, kills = ?, score = ?,
			active = ?, epoch = ?, custody = ?, updated_at = ?
		WHERE address = ?`,
		params...,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Signer operations

func (s *Storage) SaveSigner(ctx context.Context, signer *model.Signer) error {
	var existing string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM signers WHERE username = ?`, signer.Username).Scan(&existing)
	switch {
	case err == nil && existing != string(signer.ID):
		return model.ErrAlreadyExists
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO signers (id, username, password_hash, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET username = excluded.username, password_hash = excluded.password_hash`,
		string(signer.ID), signer.Username, signer.PasswordHash, formatTime(signer.CreatedAt),
	)
	return err
}

func (s *Storage) GetSigner(ctx context.Context, id model.SignerID) (*model.Signer, error) {
	return s.scanSigner(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM signers WHERE id = ?`, string(id)))
}

func (s *Storage) GetSignerByUsername(ctx context.Context, username string) (*model.Signer, error) {
	return s.scanSigner(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM signers WHERE username = ?`, username))
}

func (s *Storage) scanSigner(row *sql.Row) (*model.Signer, error) {
	var (
		signer        model.Signer
		id, createdAt string
	)
	if err := row.Scan(&id, &signer.Username, &signer.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	signer.ID = model.SignerID(id)

	var err error
	if signer.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &signer, nil
}
