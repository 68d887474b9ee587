package services

import (
  "context"
  "fmt"
  "os"
  "strings"
  "time"

  goredis "github.com/redis/go-redis/v9"

  "github.com/google/uuid"
  "github.com/studioplanar/planar-backend/internal/logger"
)

// AngleCache is a read-through cache for the latest version id per angle
// label. It only ever short-circuits a lookup; correctness never depends on
// it, and a disabled cache is a valid configuration.
type AngleCache interface {
  Get(ctx context.Context, angleLabel string) (uuid.UUID, bool)
  Set(ctx context.Context, angleLabel string, versionID uuid.UUID)
}

// NewNoopAngleCache returns the disabled cache. Callers fall back to it when
// redis is configured but unreachable.
func NewNoopAngleCache() AngleCache {
  return noopAngleCache{}
}

type noopAngleCache struct{}

func (noopAngleCache) Get(ctx context.Context, angleLabel string) (uuid.UUID, bool) {
  return uuid.Nil, false
}
func (noopAngleCache) Set(ctx context.Context, angleLabel string, versionID uuid.UUID) {}

type redisAngleCache struct {
  log *logger.Logger
  rdb *goredis.Client
  ttl time.Duration
}

// NewAngleCache returns a redis-backed cache when REDIS_ADDR is set and a
// no-op cache otherwise.
func NewAngleCache(log *logger.Logger) (AngleCache, error) {
  serviceLog := log.With("service", "AngleCache")
  addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
  if addr == "" {
    serviceLog.Info("REDIS_ADDR not set, angle cache disabled")
    return noopAngleCache{}, nil
  }

  rdb := goredis.NewClient(&goredis.Options{
    Addr:        addr,
    DialTimeout: 5 * time.Second,
  })
  ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
  defer cancel()
  if err := rdb.Ping(ctx).Err(); err != nil {
    return nil, fmt.Errorf("Failed to ping redis at %q: %w", addr, err)
  }
  return &redisAngleCache{
    log: serviceLog,
    rdb: rdb,
    ttl: time.Hour,
  }, nil
}

func angleKey(label string) string {
  return "angle:latest:" + label
}

func (c *redisAngleCache) Get(ctx context.Context, angleLabel string) (uuid.UUID, bool) {
  val, err := c.rdb.Get(ctx, angleKey(angleLabel)).Result()
  if err != nil {
    if err != goredis.Nil {
      c.log.Warn("Angle cache read failed", "angle", angleLabel, "error", err)
    }
    return uuid.Nil, false
  }
  id, err := uuid.Parse(val)
  if err != nil {
    c.log.Warn("Angle cache held an unparseable version id", "angle", angleLabel, "value", val)
    return uuid.Nil, false
  }
  return id, true
}

func (c *redisAngleCache) Set(ctx context.Context, angleLabel string, versionID uuid.UUID) {
  if err := c.rdb.Set(ctx, angleKey(angleLabel), versionID.String(), c.ttl).Err(); err != nil {
    c.log.Warn("Angle cache write failed", "angle", angleLabel, "error", err)
  }
}
