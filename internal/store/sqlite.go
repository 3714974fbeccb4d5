package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/yourorg/wandermate/pkg/types"
)

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection serializes writers; SQLite would otherwise report SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	s := &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.Init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Init() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return err
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			destination TEXT NOT NULL DEFAULT '',
			itinerary TEXT NOT NULL DEFAULT '',
			num_days INTEGER NOT NULL DEFAULT 0,
			departure_date TEXT NOT NULL DEFAULT '',
			return_date TEXT NOT NULL DEFAULT '',
			chat_history TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS cache_entries (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			expires_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_cache_expires ON cache_entries(expires_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context) (*types.SessionState, error) {
	now := s.now()
	sess := &types.SessionState{ID: uuid.NewString(), ChatHistory: []types.ChatTurn{}, CreatedAt: now, UpdatedAt: now}
	_, err := s.db.ExecContext(ctx, `INSERT INTO sessions(id,chat_history,created_at,updated_at) VALUES(?,?,?,?)`,
		sess.ID, "[]", sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*types.SessionState, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,destination,itinerary,num_days,departure_date,return_date,chat_history,created_at,updated_at FROM sessions WHERE id=?`, id)
	var out types.SessionState
	var history string
	if err := row.Scan(&out.ID, &out.Destination, &out.Itinerary, &out.NumDays, &out.DepartureDate, &out.ReturnDate, &history, &out.CreatedAt, &out.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(history), &out.ChatHistory); err != nil {
		return nil, fmt.Errorf("decode chat history: %w", err)
	}
	return &out, nil
}

func (s *SQLiteStore) SaveTrip(ctx context.Context, id string, trip TripState) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET destination=?, itinerary=?, num_days=?, departure_date=?, return_date=?, updated_at=? WHERE id=?`,
		trip.Destination, trip.Itinerary, trip.NumDays, trip.DepartureDate, trip.ReturnDate, s.now(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) SaveChatHistory(ctx context.Context, id string, history []types.ChatTurn) error {
	if history == nil {
		history = []types.ChatTurn{}
	}
	b, err := json.Marshal(history)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET chat_history=?, updated_at=? WHERE id=?`, string(b), s.now(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=?`, id)
	return err
}

// Cache returns a Cache backed by the cache_entries table.
func (s *SQLiteStore) Cache() *SQLiteCache {
	return &SQLiteCache{db: s.db, now: s.now}
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return errors.New("store is nil")
	}
	return s.db.Close()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SQLiteCache keeps cache entries next to the sessions. Expired rows are
// ignored on read and removed by Sweep.
type SQLiteCache struct {
	db  *sql.DB
	now func() time.Time
}

func (c *SQLiteCache) Get(ctx context.Context, key string) (string, bool, error) {
	row := c.db.QueryRowContext(ctx, `SELECT key,value,expires_at FROM cache_entries WHERE key=?`, key)
	var e types.CacheEntry
	if err := row.Scan(&e.Key, &e.Value, &e.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	if e.Expired(c.now()) {
		return "", false, nil
	}
	return e.Value, true, nil
}

func (c *SQLiteCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	expires := c.now().Add(ttl)
	_, err := c.db.ExecContext(ctx, `INSERT INTO cache_entries(key,value,expires_at) VALUES(?,?,?)
	ON CONFLICT(key) DO UPDATE SET value=excluded.value, expires_at=excluded.expires_at`, key, value, expires)
	return err
}

func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key=?`, key)
	return err
}

func (c *SQLiteCache) Clear(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries`)
	return err
}

// Sweep deletes expired rows and reports how many were removed.
func (c *SQLiteCache) Sweep(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at <= ?`, c.now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
