package storage

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

const createUsersTableSQL = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL DEFAULT '',
	password TEXT NOT NULL
);`

const createRankingsTableSQL = `
CREATE TABLE IF NOT EXISTS rankings (
	username TEXT PRIMARY KEY,
	wins INTEGER NOT NULL DEFAULT 0,
	losses INTEGER NOT NULL DEFAULT 0,
	ties INTEGER NOT NULL DEFAULT 0
);`

const createGamesTableSQL = `
CREATE TABLE IF NOT EXISTS games (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL,
	mode TEXT NOT NULL,
	difficulty TEXT NOT NULL,
	winner TEXT NOT NULL,
	moves TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

// Store keeps finished games and the scoreboard. In-progress games are
// never written here.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open connects to the sqlite file at path and creates the tables
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one connection: sqlite has a single writer and ":memory:" is per connection
	db.SetMaxOpenConns(1)
	s := New(db)
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Migrate() error {
	tables := []struct{ name, stmt string }{
		{"users", createUsersTableSQL},
		{"rankings", createRankingsTableSQL},
		{"games", createGamesTableSQL},
	}
	for _, t := range tables {
		if _, err := s.db.Exec(t.stmt); err != nil {
			return fmt.Errorf("create %s table: %w", t.name, err)
		}
	}
	_, err := s.db.Exec(`
	INSERT INTO rankings (username)
	SELECT username
	FROM users
	WHERE username NOT IN (SELECT username FROM rankings)
`)
	if err != nil {
		return fmt.Errorf("backfill rankings: %w", err)
	}
	log.Println("Database tables ready")
	return nil
}
