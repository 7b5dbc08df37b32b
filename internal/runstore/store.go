// Package runstore keeps the history of task runs, in a JSON file or in
// Postgres.
package runstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	loadErr  error
	mu       sync.RWMutex
	runs     []Run

	schemaOnce sync.Once
	schemaErr  error

	recentCache *lru.Cache[string, []Run]
}

// New returns a file-backed store at path.
func New(path string) *Store {
	return &Store{path: path}
}

// NewPostgres opens a Postgres-backed store.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return newDB(db)
}

func newDB(db *sql.DB) (*Store, error) {
	cache, err := lru.New[string, []Run](64)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, recentCache: cache}, nil
}

// Open uses Postgres when dsn is set and reachable, the file at path
// otherwise. The returned error is the Postgres failure, if any; the
// store is usable either way.
func Open(path, dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("RUNSTORE_PG_DSN"))
	}
	if dsn == "" {
		return New(path), nil
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New(path), fmt.Errorf("runstore: postgres unavailable, using %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put records a run, replacing an earlier record with the same ID.
func (s *Store) Put(ctx context.Context, r Run) error {
	if s == nil {
		return nil
	}
	r = normalizeRun(r)
	if r.ID == "" || r.Task == "" {
		return fmt.Errorf("runstore: run id and task are required")
	}
	if s.db != nil {
		if err := s.putDB(ctx, r); err != nil {
			return err
		}
		s.recentCache.Purge()
		return nil
	}
	return s.putFile(r)
}

// Recent returns up to n runs of task, newest first. An empty task lists
// every task.
func (s *Store) Recent(ctx context.Context, task string, n int) ([]Run, error) {
	if s == nil {
		return nil, nil
	}
	if n <= 0 {
		n = 20
	}
	task = strings.TrimSpace(task)
	if s.db == nil {
		return s.recentFile(task, n)
	}
	key := fmt.Sprintf("%s#%d", task, n)
	if cached, ok := s.recentCache.Get(key); ok {
		return cached, nil
	}
	runs, err := s.recentDB(ctx, task, n)
	if err != nil {
		return nil, err
	}
	s.recentCache.Add(key, runs)
	return runs, nil
}
