package services

import (
  "context"
  "errors"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/studioplanar/planar-backend/internal/logger"
  "github.com/studioplanar/planar-backend/internal/repos"
  "github.com/studioplanar/planar-backend/internal/types"
)

// VersionGraphService owns the append-only forest of versions. Writes need no
// mutual exclusion: concurrent edits citing the same parent simply produce
// sibling versions.
type VersionGraphService interface {
  CreateVersion(ctx context.Context, version *types.Version) (*types.Version, error)
  GetVersion(ctx context.Context, versionID uuid.UUID) (*types.Version, error)
  // Lineage returns the descendant subtree rooted at versionID: the queried
  // node at depth 0, then all descendants breadth-first by depth, creation
  // order breaking ties within one depth. It is NOT the ancestor chain;
  // callers wanting "everything this came from" walk ParentID themselves.
  Lineage(ctx context.Context, versionID uuid.UUID) ([]*types.Version, error)
}

type versionGraphService struct {
  log         *logger.Logger
  versionRepo repos.VersionRepo
  cache       AngleCache
  newID       func() uuid.UUID
}

func NewVersionGraphService(log *logger.Logger, versionRepo repos.VersionRepo, cache AngleCache, newID func() uuid.UUID) VersionGraphService {
  if newID == nil {
    newID = uuid.New
  }
  return &versionGraphService{
    log:         log.With("service", "VersionGraphService"),
    versionRepo: versionRepo,
    cache:       cache,
    newID:       newID,
  }
}

func (s *versionGraphService) CreateVersion(ctx context.Context, version *types.Version) (*types.Version, error) {
  if version.ID == uuid.Nil {
    version.ID = s.newID()
  }
  created, err := s.versionRepo.Create(ctx, nil, version)
  if err != nil {
    return nil, fmt.Errorf("%w: failed to create version: %v", ErrStorageFailure, err)
  }
  if created.AngleLabel != "" {
    // Newest write is by definition the latest for its label.
    s.cache.Set(ctx, created.AngleLabel, created.ID)
  }
  s.log.Info("Created version", "version_id", created.ID, "parent_id", created.ParentID, "angle", created.AngleLabel)
  return created, nil
}

func (s *versionGraphService) GetVersion(ctx context.Context, versionID uuid.UUID) (*types.Version, error) {
  version, err := s.versionRepo.GetByID(ctx, nil, versionID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, fmt.Errorf("%w: version %s", ErrNotFound, versionID)
    }
    return nil, fmt.Errorf("Failed to load version %s: %w", versionID, err)
  }
  return version, nil
}

func (s *versionGraphService) Lineage(ctx context.Context, versionID uuid.UUID) ([]*types.Version, error) {
  root, err := s.GetVersion(ctx, versionID)
  if err != nil {
    return nil, err
  }

  // Iterative breadth-first walk, one generation per query. Cycles are
  // impossible by construction (parents must exist before children), but the
  // seen set keeps a corrupted store from looping us forever.
  collected := []*types.Version{root}
  seen := map[uuid.UUID]bool{root.ID: true}
  frontier := []uuid.UUID{root.ID}
  for len(frontier) > 0 {
    children, err := s.versionRepo.GetByParentIDs(ctx, nil, frontier)
    if err != nil {
      return nil, fmt.Errorf("Failed to load children of %v: %w", frontier, err)
    }
    frontier = frontier[:0]
    for _, child := range children {
      if seen[child.ID] {
        continue
      }
      seen[child.ID] = true
      collected = append(collected, child)
      frontier = append(frontier, child.ID)
    }
  }
  return collected, nil
}
