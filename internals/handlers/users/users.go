package users

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"

	"Tic-Tac-Shift/internals/models"
	"Tic-Tac-Shift/internals/storage"

	"golang.org/x/crypto/bcrypt"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

// Accounts is the player store the handlers need. *storage.Store satisfies it.
type Accounts interface {
	CreatePlayer(p models.Player) (models.Player, error)
	FindPlayer(username string) (models.Player, error)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type accountResponse struct {
	Player  models.Player `json:"player"`
	Message string        `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var req credentials
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return req, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// SignupHandler registers a player; their results then appear on the scoreboard
func SignupHandler(accounts Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeCredentials(w, r)
		if !ok {
			return
		}
		if !usernamePattern.MatchString(req.Username) || len(req.Password) < 6 {
			http.Error(w, "Username (3-32 letters, digits, _ or -) and a password of at least 6 characters required", http.StatusBadRequest)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "Error hashing password", http.StatusInternalServerError)
			return
		}
		p, err := accounts.CreatePlayer(models.Player{Username: req.Username, Email: req.Email, Password: string(hash)})
		switch {
		case errors.Is(err, storage.ErrUsernameTaken):
			http.Error(w, "Username already taken", http.StatusConflict)
			return
		case err != nil:
			log.Printf("Signup for %s failed: %v", req.Username, err)
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		log.Printf("Player %s signed up", p.Username)
		writeJSON(w, http.StatusCreated, accountResponse{Player: p, Message: "Signup successful"})
	}
}

// LoginHandler checks a player's password
func LoginHandler(accounts Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeCredentials(w, r)
		if !ok {
			return
		}
		p, err := accounts.FindPlayer(req.Username)
		switch {
		case errors.Is(err, storage.ErrPlayerNotFound):
			http.Error(w, "Invalid username or password", http.StatusUnauthorized)
			return
		case err != nil:
			log.Printf("Login for %s failed: %v", req.Username, err)
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(p.Password), []byte(req.Password)); err != nil {
			http.Error(w, "Invalid username or password", http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, accountResponse{Player: p, Message: "Login successful"})
	}
}
