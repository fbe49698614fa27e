package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"linewatch-worker-go/internal/api/handlers"
	"linewatch-worker-go/internal/api/middleware"
	"linewatch-worker-go/internal/config"
	"linewatch-worker-go/internal/services/control"
	"linewatch-worker-go/internal/services/dashboard"
	"linewatch-worker-go/internal/services/mjpeg"
	"linewatch-worker-go/internal/services/storage"
)

// LiveView is the WebSocket endpoint plus its viewer count.
type LiveView interface {
	http.Handler
	Count() int
	SetAuthorizer(authorize func(r *http.Request) bool)
}

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Store     storage.Store
	Control   *control.Service
	Loops     handlers.Loops
	Dashboard *dashboard.Sender
	MJPEG     *mjpeg.Publisher
	LiveView  LiveView
}

type Server struct {
	config *config.Config
	router *gin.Engine
	server *http.Server
	live   LiveView

	healthHandler   *handlers.HealthHandler
	cameraHandler   *handlers.CameraHandler
	settingsHandler *handlers.SettingsHandler
	logsHandler     *handlers.LogsHandler
	systemHandler   *handlers.SystemHandler
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:          cfg,
		router:          gin.New(),
		live:            deps.LiveView,
		healthHandler:   handlers.NewHealthHandler(cfg, deps.Loops, deps.LiveView),
		cameraHandler:   handlers.NewCameraHandler(deps.Store, deps.Control, deps.Loops, deps.MJPEG, cfg.ModelDir),
		settingsHandler: handlers.NewSettingsHandler(deps.Store),
		logsHandler:     handlers.NewLogsHandler(deps.Store, deps.Dashboard),
		systemHandler:   handlers.NewSystemHandler(cfg.WorkerID, deps.Loops, deps.LiveView),
	}

	deps.LiveView.SetAuthorizer(middleware.AdminRequest(cfg.AdminTokenHash))

	s.setupMiddleware()
	s.setupRoutes()
	s.setupSwagger()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("Starting LineWatch Worker API")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Stopping LineWatch Worker API")
	return s.server.Shutdown(ctx)
}
