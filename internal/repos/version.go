package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/studioplanar/planar-backend/internal/logger"
  "github.com/studioplanar/planar-backend/internal/types"
)

type VersionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, version *types.Version) (*types.Version, error)
  GetByID(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) (*types.Version, error)
  GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.Version, error)
  GetByParentIDs(ctx context.Context, tx *gorm.DB, parentIDs []uuid.UUID) ([]*types.Version, error)
  GetLatestByAngle(ctx context.Context, tx *gorm.DB, angleLabel string) (*types.Version, error)
  GetByRequestID(ctx context.Context, tx *gorm.DB, requestID string) (*types.Version, error)
}

type versionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewVersionRepo(db *gorm.DB, baseLog *logger.Logger) VersionRepo {
  repoLog := baseLog.With("repo", "VersionRepo")
  return &versionRepo{db: db, log: repoLog}
}

func (r *versionRepo) Create(ctx context.Context, tx *gorm.DB, version *types.Version) (*types.Version, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if err := transaction.WithContext(ctx).Create(version).Error; err != nil {
    return nil, err
  }
  return version, nil
}

func (r *versionRepo) GetByID(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) (*types.Version, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.Version
  if err := transaction.WithContext(ctx).
    Where("id = ?", versionID).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *versionRepo) GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.Version, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Version
  if err := transaction.WithContext(ctx).
    Where("session_id = ?", sessionID).
    Order("created_at ASC, id ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

// GetByParentIDs returns the direct children of the given versions, ordered by
// creation time with id as the stable tie-break. Lineage traversal walks the
// graph one generation per call.
func (r *versionRepo) GetByParentIDs(ctx context.Context, tx *gorm.DB, parentIDs []uuid.UUID) ([]*types.Version, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Version
  if len(parentIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("parent_id IN ?", parentIDs).
    Order("created_at ASC, id ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *versionRepo) GetLatestByAngle(ctx context.Context, tx *gorm.DB, angleLabel string) (*types.Version, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.Version
  if err := transaction.WithContext(ctx).
    Where("angle_label = ?", angleLabel).
    Order("created_at DESC, id DESC").
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *versionRepo) GetByRequestID(ctx context.Context, tx *gorm.DB, requestID string) (*types.Version, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.Version
  if err := transaction.WithContext(ctx).
    Where("request_id = ?", requestID).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}
