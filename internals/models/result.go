package models

import "time"

// GameRecord is one finished game as stored in the games table.
type GameRecord struct {
	Id         int       `db:"id" json:"id"`
	Username   string    `db:"username" json:"username"`
	Mode       string    `db:"mode" json:"mode"`
	Difficulty string    `db:"difficulty" json:"difficulty"`
	Winner     string    `db:"winner" json:"winner"` // "X", "O" or "tie"
	Moves      []string  `db:"moves" json:"moves"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Ranking is a player's record against the computer.
type Ranking struct {
	Username string `db:"username" json:"username"`
	Wins     int    `db:"wins" json:"wins"`
	Losses   int    `db:"losses" json:"losses"`
	Ties     int    `db:"ties" json:"ties"`
}
