// Package api exposes the relay's HTTP surface: per-provider proxy
// endpoints that attach server-held credentials, plus conversation, model
// catalog and key management routes.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/aethernet/internal/ai"
	"github.com/aethernet/internal/chat"
	"github.com/aethernet/internal/credentials"
	"github.com/aethernet/internal/dispatch"
)

// Config holds the server listen settings and the CORS origin allow-list.
// Requests without an Origin header (curl, server-to-server) pass through;
// browser requests from origins outside the list are rejected.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// AdapterFactory builds an adapter of the given kind bound to a specific
// credential store. Key validation uses it so probe keys never touch the
// live store.
type AdapterFactory func(kind chat.ProviderKind, creds *credentials.Store) (ai.Adapter, bool)

// Server represents the API server
type Server struct {
	echo       *echo.Echo
	cfg        Config
	store      *chat.Store
	dispatcher *dispatch.Dispatcher
	registry   *ai.Registry
	creds      *credentials.Store
	newAdapter AdapterFactory
}

// NewServer creates a new API server. All collaborators are injected;
// nothing is reached through globals, so tests can stand up isolated
// instances.
func NewServer(cfg Config, store *chat.Store, dispatcher *dispatch.Dispatcher, registry *ai.Registry, creds *credentials.Store, factory AdapterFactory) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(originFilter(cfg.AllowedOrigins))

	server := &Server{
		echo:       e,
		cfg:        cfg,
		store:      store,
		dispatcher: dispatcher,
		registry:   registry,
		creds:      creds,
		newAdapter: factory,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// originFilter rejects requests whose Origin header is outside the
// allow-list. CORS headers alone leave enforcement to the browser; this
// rejects server-side too. Requests without an Origin header (curl,
// server-to-server) pass through.
func originFilter(allowed []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.Request().Header.Get(echo.HeaderOrigin)
			if origin == "" {
				return next(c)
			}
			for _, candidate := range allowed {
				if candidate == "*" || candidate == origin {
					return next(c)
				}
			}
			log.Warn().Str("origin", origin).Msg("Rejected request from disallowed origin")
			return c.JSON(http.StatusForbidden, RelayError{Error: "origin not allowed"})
		}
	}
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	// Liveness probe
	s.echo.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "running",
		})
	})

	// One relay endpoint per registered provider
	for _, kind := range s.registry.Kinds() {
		s.echo.POST("/"+string(kind), s.relayHandler(kind))
	}

	// API v1 group
	v1 := s.echo.Group("/api/v1")

	v1.GET("/models", s.getModels)

	v1.POST("/chats", s.createChat)
	v1.GET("/chats", s.listChats)
	v1.GET("/chats/:id", s.getChat)
	v1.PUT("/chats/:id", s.renameChat)
	v1.DELETE("/chats/:id", s.deleteChat)
	v1.POST("/chats/:id/participants", s.addParticipant)
	v1.DELETE("/chats/:id/participants/:pid", s.removeParticipant)
	v1.POST("/chats/:id/messages", s.postMessage)

	v1.PUT("/keys/:provider", s.setKey)
	v1.POST("/keys/validate", s.validateKey)
}

// Start begins the API server
func (s *Server) Start() error {
	// Start server in a goroutine
	go func() {
		log.Info().Int("port", s.cfg.Port).Msg("Starting relay server")
		if err := s.echo.Start(fmt.Sprintf(":%d", s.cfg.Port)); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
