package api

import (
	"github.com/gin-gonic/gin"

	"linewatch-worker-go/internal/api/middleware"
)

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.RequestContext())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
}

func (s *Server) setupRoutes() {
	admin := middleware.AdminAuth(s.config.AdminTokenHash)

	s.router.GET("/", s.healthHandler.WorkerInfo)
	s.router.GET("/health", s.healthHandler.HealthCheck)
	s.router.GET("/ws", gin.WrapH(s.live))

	cameras := s.router.Group("/cameras")
	{
		cameras.GET("", s.cameraHandler.ListCameras)
		cameras.GET("/:id", s.cameraHandler.GetCamera)
		cameras.GET("/:id/models", s.cameraHandler.ListModels)
		cameras.GET("/:id/mjpeg", s.cameraHandler.MJPEG)

		cameras.POST("", admin, s.cameraHandler.CreateCamera)
		cameras.PUT("/:id", admin, s.cameraHandler.UpdateCamera)
		cameras.DELETE("/:id", admin, s.cameraHandler.DeleteCamera)
		cameras.POST("/:id/ai", admin, s.cameraHandler.SetAI)
		cameras.PUT("/:id/line", admin, s.cameraHandler.SetLine)
		cameras.DELETE("/:id/line", admin, s.cameraHandler.ClearLine)
		cameras.PUT("/:id/alarm", admin, s.cameraHandler.SetAlarm)
		cameras.POST("/:id/models", admin, s.cameraHandler.AddModel)
	}

	s.router.GET("/settings", s.settingsHandler.Get)
	s.router.PUT("/settings", admin, s.settingsHandler.Put)

	logs := s.router.Group("/logs")
	{
		logs.GET("/counts", s.logsHandler.Counts)
		logs.GET("/alarms", s.logsHandler.Alarms)
		logs.DELETE("/counts", admin, s.logsHandler.ClearCounts)
		logs.DELETE("/alarms", admin, s.logsHandler.ClearAlarms)
	}
	s.router.GET("/files", s.logsHandler.Files)

	apiGroup := s.router.Group("/api")
	{
		apiGroup.GET("/count_data", s.logsHandler.CountData)
		apiGroup.GET("/dashboard", s.logsHandler.Dashboard)
	}

	system := s.router.Group("/system")
	{
		system.GET("/pipelines", s.systemHandler.Pipelines)
		system.GET("/stats", s.systemHandler.GetStats)
	}
}
