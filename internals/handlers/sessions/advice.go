package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"Tic-Tac-Shift/internals/handlers/game"
)

type moveRequest struct {
	Board      game.Board `json:"board"`
	Player     game.Cell  `json:"player"`
	Difficulty string     `json:"difficulty"`
}

type moveResponse struct {
	Decision game.Decision `json:"decision"`
	Board    game.Board    `json:"board"`
	Winner   game.Cell     `json:"winner"`
	Over     bool          `json:"over"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

// MoveHandler answers POST /api/move with the computer's move for a board.
// Player defaults to O and difficulty to medium.
func MoveHandler(timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req moveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
			return
		}
		if req.Player == game.Empty {
			req.Player = game.Computer
		}
		level := game.Medium
		if req.Difficulty != "" {
			var err error
			if level, err = game.ParseDifficulty(req.Difficulty); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		d, err := game.BestMove(ctx, req.Board, req.Player, level)
		if errors.Is(err, game.ErrMalformedBoard) || errors.Is(err, game.ErrInvalidMove) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		} else if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		after := req.Board
		if d.Action == game.ActionPlace {
			err = game.Place(&after, d.Target, req.Player)
		} else {
			err = game.ShiftRow(&after, d.Target)
		}
		if err != nil {
			log.Printf("Decision %s does not apply: %v", d, err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		resp := moveResponse{Decision: d, Board: after}
		if winner, ok := game.WinnerFor(after, req.Player); ok {
			resp.Winner, resp.Over = winner, true
		} else if game.IsFull(after) {
			resp.Over = true
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
