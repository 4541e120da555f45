package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Tic-Tac-Shift/internals/config"
	"Tic-Tac-Shift/internals/handlers/game"
	"Tic-Tac-Shift/internals/handlers/sessions"
	"Tic-Tac-Shift/internals/handlers/users"
	"Tic-Tac-Shift/internals/storage"

	"github.com/rs/cors"
)

func sessionOptions(cfg *config.Config) (sessions.Options, error) {
	mode, err := game.ParseMode(cfg.Game.DefaultMode)
	if err != nil {
		return sessions.Options{}, err
	}
	level, err := game.ParseDifficulty(cfg.Game.DefaultDifficulty)
	if err != nil {
		return sessions.Options{}, err
	}
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	return sessions.Options{
		DefaultMode:       mode,
		DefaultDifficulty: level,
		ThinkingDelay: map[game.Difficulty]time.Duration{
			game.Easy:   ms(cfg.Game.ThinkingEasyMs),
			game.Medium: ms(cfg.Game.ThinkingMediumMs),
			game.Hard:   ms(cfg.Game.ThinkingHardMs),
		},
		DecisionTimeout:  cfg.DecisionTimeout(),
		ReconnectTimeout: cfg.ReconnectTimeout(),
		CacheSize:        cfg.Game.SessionCacheSize,
	}, nil
}

func main() {
	fmt.Println("Starting main...")
	cfg := config.MustLoad()
	fmt.Println("Config loaded")

	store, err := storage.Open(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()
	fmt.Println("Database ready")

	opts, err := sessionOptions(cfg)
	if err != nil {
		log.Fatalf("Invalid game settings: %v", err)
	}
	manager, err := sessions.NewManager(opts, store)
	if err != nil {
		log.Fatalf("Failed to start session manager: %v", err)
	}

	router := http.NewServeMux()
	router.HandleFunc("/api/signup", users.SignupHandler(store))                // api for signup
	router.HandleFunc("/api/login", users.LoginHandler(store))                  // api for login
	router.HandleFunc("/ws/game", manager.HandleGame)                           // WebSocket endpoint for games
	router.HandleFunc("/api/move", sessions.MoveHandler(cfg.DecisionTimeout())) // stateless computer move
	router.HandleFunc("/api/rankings", sessions.RankingHandler(store))          // api for rankings
	router.HandleFunc("/api/games", sessions.HistoryHandler(store))             // api for game history

	fmt.Println("Router setup complete")

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: c.Handler(router),
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		fmt.Println("Server Started on", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-done
	fmt.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to gracefully shutdown server: %v", err)
	}
	fmt.Println("Server stopped")
}
