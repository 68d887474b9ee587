package server

import (
  "github.com/gin-gonic/gin"
  "github.com/gin-contrib/cors"
  "github.com/studioplanar/planar-backend/internal/handlers"
)

type RouterConfig struct {
  EditorHandler *handlers.EditorHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:3000",
      "http://localhost:5173",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  router.GET("/healthcheck", handlers.HealthCheck)

  api := router.Group("/api")
  {
    api.POST("/upload", cfg.EditorHandler.Upload)
    api.POST("/edit", cfg.EditorHandler.Edit)
    api.GET("/render-angle", cfg.EditorHandler.RenderAngle)
    api.GET("/history/:id", cfg.EditorHandler.History)
    api.GET("/view/:id", cfg.EditorHandler.View)
  }

  return router
}
