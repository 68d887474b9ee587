package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"
  "github.com/studioplanar/planar-backend/internal/logger"
  "github.com/studioplanar/planar-backend/internal/types"
)

type SessionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, session *types.Session) (*types.Session, error)
  GetByID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.Session, error)
  ReplaceHistory(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, history datatypes.JSON) error
}

type sessionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
  repoLog := baseLog.With("repo", "SessionRepo")
  return &sessionRepo{db: db, log: repoLog}
}

func (r *sessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.Session) (*types.Session, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if err := transaction.WithContext(ctx).Create(session).Error; err != nil {
    return nil, err
  }
  return session, nil
}

func (r *sessionRepo) GetByID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.Session, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.Session
  if err := transaction.WithContext(ctx).
    Where("id = ?", sessionID).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

// ReplaceHistory overwrites the stored history blob in full. There is no
// per-turn log; the last writer wins on concurrent appends to one session.
func (r *sessionRepo) ReplaceHistory(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, history datatypes.JSON) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if err := transaction.WithContext(ctx).
    Model(&types.Session{}).
    Where("id = ?", sessionID).
    Update("history", history).Error; err != nil {
    return err
  }
  return nil
}
