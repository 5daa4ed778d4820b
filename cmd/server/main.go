// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/moe-a1/MindDigits/internal/auth"
	"github.com/moe-a1/MindDigits/internal/cache"
	"github.com/moe-a1/MindDigits/internal/database"
	"github.com/moe-a1/MindDigits/internal/game"
	"github.com/moe-a1/MindDigits/internal/handlers"
	"github.com/moe-a1/MindDigits/internal/middleware"
)

func main() {
	auth.Init()
	database.ConnectDB()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	repo := database.NewLobbyRepo(database.DB)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("ensure indexes: %v", err)
	}
	cancel()

	// Redis is optional: without it action history is simply not recorded.
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("redis unavailable, action history disabled: %v", err)
		cache.Rdb = nil
	}

	cfg := game.Config{
		AutoStartOnReady: os.Getenv("AUTO_START_ON_READY") == "true",
		EnrollCreator:    os.Getenv("ENROLL_CREATOR") == "true",
		Scoring:          game.ScoringMode(os.Getenv("SCORING_MODE")),
	}

	store := game.NewLobbyStore()
	hub := handlers.NewHub(logger)
	engine := game.NewEngine(store, repo, hub, logger, cfg)
	srv := handlers.NewServer(engine, hub, logger)

	mux := http.NewServeMux()

	// lobby endpoints
	mux.Handle("/lobby/create", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.CreateLobbyHandler(srv),
	)))
	mux.Handle("/lobby/state", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.LobbyStateHandler(srv),
	)))
	mux.Handle("/lobby/list", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.ListLobbiesHandler(srv, store),
	)))

	// lobby ws
	mux.Handle("/lobby/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.WSHandler(srv),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
