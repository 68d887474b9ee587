package services

import (
  "context"
  "errors"
  "fmt"
  "strings"

  "gorm.io/gorm"

  "github.com/studioplanar/planar-backend/internal/logger"
  "github.com/studioplanar/planar-backend/internal/repos"
  "github.com/studioplanar/planar-backend/internal/types"
)

// angleKeywords maps instruction keywords to viewpoint labels. Declaration
// order is the match order: when several keywords co-occur in one
// instruction, the first declared entry wins, not the longest match.
var angleKeywords = []struct {
  Keyword string
  Label   string
}{
  {"front", "front"},
  {"facade", "front"},
  {"entrance", "front"},
  {"backyard", "patio"},
  {"patio", "patio"},
  {"garden", "patio"},
  {"back", "back"},
  {"rear", "back"},
  {"aerial", "aerial"},
  {"top-down", "aerial"},
  {"top down", "aerial"},
  {"overhead", "aerial"},
  {"bird", "aerial"},
  {"interior", "interior"},
  {"inside", "interior"},
  {"side", "side"},
  {"street", "street"},
  {"kitchen", "kitchen"},
  {"bathroom", "bathroom"},
  {"bedroom", "bedroom"},
  {"living room", "living"},
}

type AngleService interface {
  InferAngle(text string, explicitHint string) string
  LocateLatest(ctx context.Context, angleLabel string) (*types.Version, error)
}

type angleService struct {
  log         *logger.Logger
  versionRepo repos.VersionRepo
  cache       AngleCache
}

func NewAngleService(log *logger.Logger, versionRepo repos.VersionRepo, cache AngleCache) AngleService {
  return &angleService{
    log:         log.With("service", "AngleService"),
    versionRepo: versionRepo,
    cache:       cache,
  }
}

// InferAngle returns a viewpoint label for an edit instruction. A non-empty
// explicit hint always wins over keyword inference. Returns "" when nothing
// matches.
func (s *angleService) InferAngle(text string, explicitHint string) string {
  if hint := strings.TrimSpace(explicitHint); hint != "" {
    return hint
  }
  lowered := strings.ToLower(text)
  for _, entry := range angleKeywords {
    if strings.Contains(lowered, entry.Keyword) {
      return entry.Label
    }
  }
  return ""
}

// LocateLatest returns the version with the greatest creation time among
// those tagged angleLabel, id ordering as the tie-break.
func (s *angleService) LocateLatest(ctx context.Context, angleLabel string) (*types.Version, error) {
  angleLabel = strings.TrimSpace(angleLabel)
  if angleLabel == "" {
    return nil, fmt.Errorf("%w: angle label is required", ErrValidation)
  }

  if id, ok := s.cache.Get(ctx, angleLabel); ok {
    if v, err := s.versionRepo.GetByID(ctx, nil, id); err == nil && v.AngleLabel == angleLabel {
      return v, nil
    }
    // Stale or unreadable entry; fall through to the indexed query.
  }

  v, err := s.versionRepo.GetLatestByAngle(ctx, nil, angleLabel)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, fmt.Errorf("%w: no version tagged with angle %q", ErrNotFound, angleLabel)
    }
    return nil, fmt.Errorf("Failed to query latest version for angle %q: %w", angleLabel, err)
  }
  s.cache.Set(ctx, angleLabel, v.ID)
  return v, nil
}
