// internal/handlers/game_server.go
package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/moe-a1/MindDigits/internal/game"
)

// Server bundles what the HTTP and websocket handlers need: the game engine,
// the connection hub and a logger.
type Server struct {
	Engine *game.Engine
	Hub    *Hub
	Log    *logrus.Logger
}

func NewServer(engine *game.Engine, hub *Hub, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	return &Server{Engine: engine, Hub: hub, Log: logger}
}
