package sessions

import (
	"log"
	"net/http"
	"strconv"

	"Tic-Tac-Shift/internals/models"
)

// Scoreboard reads stored results. *storage.Store satisfies it.
type Scoreboard interface {
	Ranking() ([]models.Ranking, error)
	History(username string, limit int) ([]models.GameRecord, error)
}

// RankingHandler serves GET /api/rankings
func RankingHandler(sb Scoreboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ranking, err := sb.Ranking()
		if err != nil {
			log.Printf("Error fetching rankings: %v", err)
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		if ranking == nil {
			ranking = []models.Ranking{}
		}
		writeJSON(w, http.StatusOK, ranking)
	}
}

// HistoryHandler serves GET /api/games?username=&limit=
func HistoryHandler(sb Scoreboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		username := r.URL.Query().Get("username")
		if username == "" {
			http.Error(w, "Username required", http.StatusBadRequest)
			return
		}
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
				return
			}
			limit = n
		}
		games, err := sb.History(username, limit)
		if err != nil {
			log.Printf("Error fetching games for %s: %v", username, err)
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		if games == nil {
			games = []models.GameRecord{}
		}
		writeJSON(w, http.StatusOK, games)
	}
}
