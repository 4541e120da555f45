package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"Tic-Tac-Shift/internals/models"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrUsernameTaken  = errors.New("username already taken")
	ErrPlayerNotFound = errors.New("player not found")
)

// CreatePlayer stores a new account and its empty scoreboard row.
// p.Password must already be hashed.
func (s *Store) CreatePlayer(p models.Player) (models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return p, fmt.Errorf("begin signup for %s: %w", p.Username, err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO users (username, password, email) VALUES (?, ?, ?)`, p.Username, p.Password, p.Email)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return p, fmt.Errorf("%w: %s", ErrUsernameTaken, p.Username)
	} else if err != nil {
		return p, fmt.Errorf("insert user %s: %w", p.Username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return p, fmt.Errorf("user id for %s: %w", p.Username, err)
	}
	p.Id = int(id)

	if _, err := tx.Exec(`INSERT OR IGNORE INTO rankings (username) VALUES (?)`, p.Username); err != nil {
		return p, fmt.Errorf("ensure ranking for %s: %w", p.Username, err)
	}
	if err := tx.Commit(); err != nil {
		return p, fmt.Errorf("commit signup for %s: %w", p.Username, err)
	}
	return p, nil
}

// FindPlayer loads an account, password hash included
func (s *Store) FindPlayer(username string) (models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p models.Player
	err := s.db.QueryRow(`SELECT id, username, password, email FROM users WHERE username = ?`, username).
		Scan(&p.Id, &p.Username, &p.Password, &p.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("%w: %s", ErrPlayerNotFound, username)
	} else if err != nil {
		return p, fmt.Errorf("find player %s: %w", username, err)
	}
	return p, nil
}
