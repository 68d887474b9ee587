package db

import (
  "fmt"
  "gorm.io/driver/postgres"
  "gorm.io/gorm"
  "github.com/studioplanar/planar-backend/internal/types"
  "github.com/studioplanar/planar-backend/internal/utils"
  "github.com/studioplanar/planar-backend/internal/logger"
)

type PostgresService struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
  serviceLog := log.With("service", "PostgresService")

  postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
  postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
  postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
  postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
  postgresName := utils.GetEnv("POSTGRES_NAME", "planar", log)

  dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

  serviceLog.Info("Connecting to Postgres...")
  db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
  })
  if err != nil {
    serviceLog.Error("Failed to connect to Postgres", "error", err)
    return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
  }

  return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
  s.log.Info("Auto migrating postgres tables...")
  err := s.db.AutoMigrate(
    &types.Session{},
    &types.Version{},
  )
  if err != nil {
    s.log.Error("Auto migration failed for postgres tables", "error", err)
    return err
  }
  // Parent edges stay valid because versions are append-only; the FK guards
  // against a child citing an id that was never written.
  if err := s.db.Exec(`
    ALTER TABLE "design_version"
    ADD CONSTRAINT "fk_design_version_parent_id"
    FOREIGN KEY ("parent_id")
    REFERENCES "design_version"("id")
  `).Error; err != nil {
    s.log.Warn("Could not add fk_design_version_parent_id (may already exist)", "error", err)
  }
  if err := s.db.Exec(`
    ALTER TABLE "design_version"
    ADD CONSTRAINT "fk_design_version_session_id"
    FOREIGN KEY ("session_id")
    REFERENCES "design_session"("id")
  `).Error; err != nil {
    s.log.Warn("Could not add fk_design_version_session_id (may already exist)", "error", err)
  }
  return nil
}

func (s *PostgresService) DB() *gorm.DB {
  return s.db
}
