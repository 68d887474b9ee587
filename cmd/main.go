package main

import (
  "fmt"
  "os"
  "github.com/studioplanar/planar-backend/internal/logger"
  "github.com/studioplanar/planar-backend/internal/utils"
  "github.com/studioplanar/planar-backend/internal/db"
  "github.com/studioplanar/planar-backend/internal/repos"
  "github.com/studioplanar/planar-backend/internal/services"
  "github.com/studioplanar/planar-backend/internal/handlers"
  "github.com/studioplanar/planar-backend/internal/server"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  historyCap := utils.GetEnvAsInt("SESSION_HISTORY_CAP", services.DefaultHistoryCap, log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  sessionRepo := repos.NewSessionRepo(thePG, log)
  versionRepo := repos.NewVersionRepo(thePG, log)

  // Services
  log.Info("Setting up Services from main...")
  bucketService, err := services.NewBucketService(log)
  if err != nil {
    log.Error("Could not init BucketService", "error", err)
    os.Exit(1)
  }
  imageClient, err := services.NewGenaiImageClient(log)
  if err != nil {
    log.Error("Could not init GenaiImageClient", "error", err)
    os.Exit(1)
  }
  angleCache, err := services.NewAngleCache(log)
  if err != nil {
    log.Warn("Could not init AngleCache, continuing without it", "error", err)
    angleCache = services.NewNoopAngleCache()
  }
  sessionService := services.NewSessionService(log, sessionRepo, historyCap, nil)
  graphService := services.NewVersionGraphService(log, versionRepo, angleCache, nil)
  angleService := services.NewAngleService(log, versionRepo, angleCache)
  editorService := services.NewEditorService(
    log,
    services.DefaultEditorConfig(),
    sessionService,
    graphService,
    angleService,
    versionRepo,
    bucketService,
    imageClient,
  )

  // Handlers
  log.Info("Setting up handlers from main...")
  editorHandler := handlers.NewEditorHandler(log, editorService, graphService, angleService)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    EditorHandler: editorHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Warn("Server failed", "error", err)
  }
}
