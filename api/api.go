// Package api exposes docent's retrieval and chat engine over HTTP. It is
// the UI boundary: clients send raw user text and receive the assistant's
// text plus citations, or a structured error code. Rendering and retry
// policy belong to the client.
package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Server is the docent API server.
type Server struct {
	config   Config
	sessions *sessionRegistry
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates an API server over fully-constructed collaborators.
// Collaborators are injected, never ambient, so several servers with
// different corpora or credentials can coexist in one process.
func NewServer(config Config, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		sessions: newSessionRegistry(config, logger),
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/search", s.handleSearch)
	app.Post("/v1/chat", s.handleChat)
	app.Delete("/v1/sessions/:id", s.handleDeleteSession)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
