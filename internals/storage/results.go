package storage

import (
	"fmt"
	"sort"
	"strings"

	"Tic-Tac-Shift/internals/models"
)

type Outcome int

const (
	OutcomeWin Outcome = iota
	OutcomeLoss
	OutcomeTie
)

// EnsurePlayer gives username a zeroed scoreboard row
func (s *Store) EnsurePlayer(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT OR IGNORE INTO rankings (username) VALUES (?)`, username)
	if err != nil {
		return fmt.Errorf("ensure ranking for %s: %w", username, err)
	}
	return nil
}

// SaveGame appends a finished game
func (s *Store) SaveGame(rec models.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	movesStr := strings.Join(rec.Moves, ",") // store moves as comma-separated string

	_, err := s.db.Exec(`
		INSERT INTO games (username, mode, difficulty, winner, moves)
		VALUES (?, ?, ?, ?, ?)
	`, rec.Username, rec.Mode, rec.Difficulty, rec.Winner, movesStr)
	if err != nil {
		return fmt.Errorf("save game for %s: %w", rec.Username, err)
	}
	return nil
}

// RecordOutcome bumps the player's win, loss or tie counter
func (s *Store) RecordOutcome(username string, o Outcome) error {
	var column string
	switch o {
	case OutcomeWin:
		column = "wins"
	case OutcomeLoss:
		column = "losses"
	case OutcomeTie:
		column = "ties"
	default:
		return fmt.Errorf("unknown outcome %d", o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(fmt.Sprintf(`
		INSERT INTO rankings (username, %[1]s)
		VALUES (?, 1)
		ON CONFLICT(username) DO UPDATE SET %[1]s = %[1]s + 1
	`, column), username)
	if err != nil {
		return fmt.Errorf("update %s for %s: %w", column, username, err)
	}
	return nil
}

// Ranking returns every player sorted by wins, then fewest losses, then name
func (s *Store) Ranking() ([]models.Ranking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT username, wins, losses, ties FROM rankings`)
	if err != nil {
		return nil, fmt.Errorf("fetch rankings: %w", err)
	}
	defer rows.Close()

	var ranking []models.Ranking
	for rows.Next() {
		var r models.Ranking
		if err := rows.Scan(&r.Username, &r.Wins, &r.Losses, &r.Ties); err != nil {
			return nil, fmt.Errorf("scan ranking: %w", err)
		}
		ranking = append(ranking, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Wins != ranking[j].Wins {
			return ranking[i].Wins > ranking[j].Wins
		}
		if ranking[i].Losses != ranking[j].Losses {
			return ranking[i].Losses < ranking[j].Losses
		}
		return ranking[i].Username < ranking[j].Username
	})
	return ranking, nil
}

// History lists the player's most recent games, newest first
func (s *Store) History(username string, limit int) ([]models.GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, username, mode, difficulty, winner, moves, created_at
		FROM games
		WHERE username = ?
		ORDER BY id DESC
		LIMIT ?
	`, username, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch games for %s: %w", username, err)
	}
	defer rows.Close()

	var out []models.GameRecord
	for rows.Next() {
		var rec models.GameRecord
		var moves string
		if err := rows.Scan(&rec.Id, &rec.Username, &rec.Mode, &rec.Difficulty, &rec.Winner, &moves, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		rec.Moves = []string{}
		if moves != "" {
			rec.Moves = strings.Split(moves, ",")
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
